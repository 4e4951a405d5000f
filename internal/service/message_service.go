/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package service

import (
	"context"
	"strings"
	"time"

	"jesstore/internal/apperr"
	"jesstore/internal/entity"
	"jesstore/internal/events"
	"jesstore/internal/nlog"
	"jesstore/internal/repository"

	"github.com/google/uuid"
)

// Sealer encrypts and decrypts the messages of a pair of users (chatcrypt.Cipher)
type Sealer interface {
	Seal(idA, idB, plaintext string) (string, error)
	Open(idA, idB, ciphertext string) string // Never fails: a message that cannot be opened renders as a placeholder
}

// ConversationView is a conversation as listed to one of its participants
type ConversationView struct {
	*entity.Conversation
	LastMessageAt *time.Time `json:"lastMessageAt,omitempty"`
}

// Service used to handle messages, both for direct and vaca (group) chats
type MessageService interface {
	OpenDirect(ctx context.Context, userID, otherID string) (*entity.Conversation, error) // Returns the direct chat between the two users, creating it if needed

	Send(ctx context.Context, conversationID, senderID, content string, encrypt bool) (*entity.Message, error) // Stores a message, sealing it when asked in a direct chat
	StoreEncrypted(ctx context.Context, conversationID, senderID, ciphertext string) (*entity.Message, error)  // Stores a message the client already sealed

	Thread(ctx context.Context, conversationID, viewerID string) ([]*entity.Message, error) // Retrieves the messages, oldest first, opened for the viewer
	ListConversations(ctx context.Context, userID string) ([]*ConversationView, error)
}

type localMessageService struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	users         repository.UserRepository
	sealer        Sealer
	publisher     events.Publisher
	logger        nlog.Logger
}

func NewMessageService(conversations repository.ConversationRepository, messages repository.MessageRepository, users repository.UserRepository, sealer Sealer, publisher events.Publisher, logger nlog.Logger) MessageService {
	return &localMessageService{
		conversations: conversations,
		messages:      messages,
		users:         users,
		sealer:        sealer,
		publisher:     publisher,
		logger:        logger,
	}
}

func (m *localMessageService) Logf(format string, v ...any) {
	m.logger.Logf(format, v...)
}

func (m *localMessageService) OpenDirect(ctx context.Context, userID, otherID string) (*entity.Conversation, error) {
	if userID == otherID {
		return nil, apperr.InvalidArg("cannot open a chat with yourself")
	}
	if _, err := m.users.GetByID(ctx, otherID); err != nil {
		return nil, err
	}
	return m.conversations.GetOrCreateDirect(ctx, userID, otherID)
}

func (m *localMessageService) Send(ctx context.Context, conversationID, senderID, content string, encrypt bool) (*entity.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperr.ErrEmptyMessage
	}
	conv, err := m.participantConversation(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}

	msg := &entity.Message{
		ID:             uuid.New().String(),
		ConversationID: conv.ID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      time.Now(),
	}
	if encrypt && conv.Type == entity.ConversationDirect {
		sealed, err := m.sealer.Seal(senderID, conv.Other(senderID), content)
		if err != nil {
			// Stored readable rather than lost
			m.Logf("Message for %s could not be sealed, storing plaintext {%v}", conv.ID, err)
		} else {
			msg.Content = sealed
			msg.IsEncrypted = true
		}
	}
	return m.store(ctx, msg)
}

func (m *localMessageService) StoreEncrypted(ctx context.Context, conversationID, senderID, ciphertext string) (*entity.Message, error) {
	if strings.TrimSpace(ciphertext) == "" {
		return nil, apperr.ErrEmptyMessage
	}
	conv, err := m.participantConversation(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}
	return m.store(ctx, &entity.Message{
		ID:             uuid.New().String(),
		ConversationID: conv.ID,
		SenderID:       senderID,
		Content:        ciphertext,
		IsEncrypted:    true,
		CreatedAt:      time.Now(),
	})
}

func (m *localMessageService) store(ctx context.Context, msg *entity.Message) (*entity.Message, error) {
	if err := m.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	if err := m.publisher.Publish(ctx, events.MessageSent, map[string]any{
		"conversationId": msg.ConversationID, "messageId": msg.ID, "senderId": msg.SenderID,
	}); err != nil {
		m.Logf("Could not publish %s {%v}", events.MessageSent, err)
	}
	return msg, nil
}

func (m *localMessageService) Thread(ctx context.Context, conversationID, viewerID string) ([]*entity.Message, error) {
	conv, err := m.participantConversation(ctx, conversationID, viewerID)
	if err != nil {
		return nil, err
	}
	messages, err := m.messages.ListByConversation(ctx, conv.ID)
	if err != nil {
		return nil, err
	}

	if conv.Type != entity.ConversationDirect {
		return messages, nil
	}
	a, b := viewerID, conv.Other(viewerID)
	for _, msg := range messages {
		if msg.IsEncrypted {
			msg.Content = m.sealer.Open(a, b, msg.Content)
		}
	}
	return messages, nil
}

func (m *localMessageService) ListConversations(ctx context.Context, userID string) ([]*ConversationView, error) {
	convs, err := m.conversations.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	views := make([]*ConversationView, 0, len(convs))
	for _, conv := range convs {
		view := &ConversationView{Conversation: conv}
		last, err := m.messages.Last(ctx, conv.ID)
		if err != nil {
			return nil, err
		}
		if last != nil {
			view.LastMessageAt = &last.CreatedAt
		}
		views = append(views, view)
	}
	return views, nil
}

// participantConversation loads the conversation and refuses users outside of it
func (m *localMessageService) participantConversation(ctx context.Context, conversationID, userID string) (*entity.Conversation, error) {
	conv, err := m.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, apperr.ErrNotParticipant
	}
	return conv, nil
}
