/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package repository

import (
	"context"
	"time"

	"jesstore/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// This repository is used to manipulate the messages in the system. Messages are append-only.
type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error // Inserts a message in the conversation

	ListByConversation(ctx context.Context, conversationID string) ([]*entity.Message, error) // Retrieves the messages of the conversation, oldest first
	Last(ctx context.Context, conversationID string) (*entity.Message, error)                // Retrieves the latest message, nil when the conversation is empty
}

// Implementation of the repository over gorm
type GormMessageRepository struct {
	db *gorm.DB
}

func NewGormMessageRepository(db *gorm.DB) MessageRepository {
	return &GormMessageRepository{db}
}

func (repo *GormMessageRepository) Create(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	return repo.db.WithContext(ctx).Create(message).Error
}

func (repo *GormMessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	var messages []*entity.Message
	err := repo.db.WithContext(ctx).Where("conversation_id = ?", conversationID).Order("created_at ASC").Find(&messages).Error
	return messages, err
}

func (repo *GormMessageRepository) Last(ctx context.Context, conversationID string) (*entity.Message, error) {
	var messages []*entity.Message
	err := repo.db.WithContext(ctx).Where("conversation_id = ?", conversationID).Order("created_at DESC").Limit(1).Find(&messages).Error
	if err != nil || len(messages) == 0 {
		return nil, err
	}
	return messages[0], nil
}

func newSystemMessage(conversationID, content string, at time.Time) *entity.Message {
	return &entity.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Content:        content,
		IsSystem:       true,
		CreatedAt:      at,
	}
}
