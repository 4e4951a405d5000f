/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package entity

import "time"

// Represents a message sent in a conversation. Messages are never modified once stored.
type Message struct {
	ID             string    `gorm:"primaryKey" json:"id"`
	ConversationID string    `gorm:"not null;index:idx_messages_conversation_created" json:"conversationId"`
	SenderID       string    `gorm:"index" json:"senderId,omitempty"` // Empty for system messages
	Content        string    `gorm:"not null" json:"content"`         // Base64 ciphertext when IsEncrypted, plaintext otherwise
	IsEncrypted    bool      `gorm:"not null;default:false" json:"is_encrypted"`
	IsSystem       bool      `gorm:"not null;default:false" json:"is_system"`
	CreatedAt      time.Time `gorm:"not null;index:idx_messages_conversation_created" json:"createdAt"`
}
