/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package entity

import "time"

type ConversationType string

const (
	ConversationDirect ConversationType = "direct"
	ConversationVaca   ConversationType = "vaca"
)

// Conversation is either a direct chat between two users or the group chat of a vaca
type Conversation struct {
	ID        string           `gorm:"primaryKey" json:"id"`
	Type      ConversationType `gorm:"size:16;not null;index" json:"type"`
	Name      string           `json:"name,omitempty"`
	BagID     *string          `gorm:"index" json:"bagId,omitempty"`
	DirectKey *string          `gorm:"uniqueIndex" json:"-"` // Sorted "<a>:<b>" pair for direct chats, nil for groups
	CreatedAt time.Time        `gorm:"not null" json:"createdAt"`

	Participants []ConversationParticipant `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"participants,omitempty"`
}

type ConversationParticipant struct {
	ConversationID string    `gorm:"primaryKey" json:"conversationId"`
	UserID         string    `gorm:"primaryKey;index" json:"userId"`
	JoinedAt       time.Time `gorm:"not null" json:"joinedAt"`
}

// Other returns the participant of a direct conversation that is not userID
func (c *Conversation) Other(userID string) string {
	for _, p := range c.Participants {
		if p.UserID != userID {
			return p.UserID
		}
	}
	return userID
}

// HasParticipant tells whether userID is enrolled in the conversation
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}
