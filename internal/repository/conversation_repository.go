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

	"jesstore/internal/apperr"
	"jesstore/internal/chatcrypt"
	"jesstore/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// This repository is used to manipulate conversations and their members.
// Direct conversations are unique per pair of users, vaca conversations are created by the bag repository.
type ConversationRepository interface {
	GetOrCreateDirect(ctx context.Context, userA, userB string) (*entity.Conversation, error) // Opens (or reopens) the direct chat between two users

	GetByID(ctx context.Context, id string) (*entity.Conversation, error)             // Retrieves the conversation WITH its participants
	GetByBag(ctx context.Context, bagID string) (*entity.Conversation, error)         // Retrieves the group chat of a vaca
	ListByUser(ctx context.Context, userID string) ([]*entity.Conversation, error)    // Retrieves the user's conversations, newest first
	IsParticipant(ctx context.Context, conversationID, userID string) (bool, error)   // Checks whether userID can read and write in the conversation
}

// Implementation of the repository over gorm
type GormConversationRepository struct {
	db *gorm.DB
}

func NewGormConversationRepository(db *gorm.DB) ConversationRepository {
	return &GormConversationRepository{db}
}

func (repo *GormConversationRepository) GetOrCreateDirect(ctx context.Context, userA, userB string) (*entity.Conversation, error) {
	key := chatcrypt.PairID(userA, userB)

	var conv entity.Conversation
	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		candidate := entity.Conversation{
			ID:        uuid.New().String(),
			Type:      entity.ConversationDirect,
			DirectKey: &key,
			CreatedAt: now,
		}
		// Two users opening the chat at the same time both land on the same row
		if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(&candidate).Error; err != nil {
			return err
		}
		if err := tx.Where("direct_key = ?", key).First(&conv).Error; err != nil {
			return err
		}

		members := []entity.ConversationParticipant{
			{ConversationID: conv.ID, UserID: userA, JoinedAt: now},
		}
		if userB != userA {
			members = append(members, entity.ConversationParticipant{ConversationID: conv.ID, UserID: userB, JoinedAt: now})
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&members).Error; err != nil {
			return err
		}
		return tx.Where("conversation_id = ?", conv.ID).Order("joined_at ASC").Find(&conv.Participants).Error
	})
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (repo *GormConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	var conv entity.Conversation
	err := repo.db.WithContext(ctx).Preload("Participants", func(db *gorm.DB) *gorm.DB {
		return db.Order("joined_at ASC")
	}).Where("id = ?", id).First(&conv).Error
	if err != nil {
		return nil, notFound(err, apperr.ErrConversationNotFound)
	}
	return &conv, nil
}

func (repo *GormConversationRepository) GetByBag(ctx context.Context, bagID string) (*entity.Conversation, error) {
	var conv entity.Conversation
	err := repo.db.WithContext(ctx).Preload("Participants").
		Where("bag_id = ? AND type = ?", bagID, entity.ConversationVaca).
		First(&conv).Error
	if err != nil {
		return nil, notFound(err, apperr.ErrConversationNotFound)
	}
	return &conv, nil
}

func (repo *GormConversationRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	var convs []*entity.Conversation
	err := repo.db.WithContext(ctx).
		Preload("Participants").
		Joins("JOIN conversation_participants ON conversation_participants.conversation_id = conversations.id").
		Where("conversation_participants.user_id = ?", userID).
		Order("conversations.created_at DESC").
		Find(&convs).Error
	return convs, err
}

func (repo *GormConversationRepository) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	var count int64
	err := repo.db.WithContext(ctx).Model(&entity.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count).Error
	return count > 0, err
}
