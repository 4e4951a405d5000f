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
	"fmt"
	"time"

	"jesstore/internal/apperr"
	"jesstore/internal/entity"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PooledGiftRecord is everything CreatePooledGift writes.
// Contributors must already exclude the recipient; the creator is expected first.
type PooledGiftRecord struct {
	Bag          *entity.Bag
	Gift         *entity.Gift
	Conversation *entity.Conversation
	Contributors []string

	GoalMessage             string // First system message, already formatted
	RecipientMessageFormat  string // Second system message, %s is replaced with the recipient's name
	RecipientFallbackName   string // Used when the recipient has no profile
	SystemMessageTimestamps func() time.Time
}

// This repository is used to manipulate bags (vacas), their participants and their totals.
type BagRepository interface {
	CreatePooledGift(ctx context.Context, rec *PooledGiftRecord) (*entity.Bag, *entity.Conversation, error) // Creates bag, participants, gift, chat and system messages atomically

	GetByID(ctx context.Context, id string) (*entity.Bag, error)              // Retrieves the bag WITH its participants
	ListByUser(ctx context.Context, userID string) ([]*entity.Bag, error)    // Retrieves the bags the user takes part in, newest first
	IsParticipant(ctx context.Context, bagID, userID string) (bool, error)   // Checks whether userID contributes to bagID
	SettledTotal(ctx context.Context, bagID string) (decimal.Decimal, error) // Sums the completed and paid contributions
}

// Implementation of the repository over gorm
type GormBagRepository struct {
	db *gorm.DB
}

func NewGormBagRepository(db *gorm.DB) BagRepository {
	return &GormBagRepository{db}
}

func (repo *GormBagRepository) CreatePooledGift(ctx context.Context, rec *PooledGiftRecord) (*entity.Bag, *entity.Conversation, error) {
	now := time.Now
	if rec.SystemMessageTimestamps != nil {
		now = rec.SystemMessageTimestamps
	}

	bag, conv := rec.Bag, rec.Conversation
	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(bag).Error; err != nil {
			return err
		}

		participants := make([]entity.BagParticipant, 0, len(rec.Contributors))
		for i, id := range rec.Contributors {
			role := entity.RoleMember
			if id == bag.CreatorID {
				role = entity.RoleCreator
			}
			participants = append(participants, entity.BagParticipant{BagID: bag.ID, UserID: id, Role: role, JoinedAt: joinOrder(bag.CreatedAt, i)})
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&participants).Error; err != nil {
			return err
		}

		if err := tx.Create(rec.Gift).Error; err != nil {
			return err
		}

		if err := tx.Omit(clause.Associations).Create(conv).Error; err != nil {
			return err
		}

		members := make([]entity.ConversationParticipant, 0, len(rec.Contributors))
		for i, id := range rec.Contributors {
			members = append(members, entity.ConversationParticipant{ConversationID: conv.ID, UserID: id, JoinedAt: joinOrder(conv.CreatedAt, i)})
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&members).Error; err != nil {
			return err
		}

		// A missing profile must not abort the whole vaca
		recipientName := rec.RecipientFallbackName
		var recipients []entity.User
		if err := tx.Where("id = ?", rec.Gift.RecipientID).Limit(1).Find(&recipients).Error; err == nil && len(recipients) == 1 {
			if name := recipients[0].Name(); name != "" {
				recipientName = name
			}
		}

		first := now()
		messages := []*entity.Message{
			newSystemMessage(conv.ID, rec.GoalMessage, first),
			newSystemMessage(conv.ID, fmt.Sprintf(rec.RecipientMessageFormat, recipientName), first.Add(time.Millisecond)),
		}
		if err := tx.Create(&messages).Error; err != nil {
			return err
		}

		if err := tx.Where("bag_id = ?", bag.ID).Order("joined_at ASC").Find(&bag.Participants).Error; err != nil {
			return err
		}
		return tx.Where("conversation_id = ?", conv.ID).Order("joined_at ASC").Find(&conv.Participants).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return bag, conv, nil
}

func (repo *GormBagRepository) GetByID(ctx context.Context, id string) (*entity.Bag, error) {
	var bag entity.Bag
	err := repo.db.WithContext(ctx).Preload("Participants", func(db *gorm.DB) *gorm.DB {
		return db.Order("joined_at ASC")
	}).Where("id = ?", id).First(&bag).Error
	if err != nil {
		return nil, notFound(err, apperr.ErrBagNotFound)
	}
	return &bag, nil
}

func (repo *GormBagRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Bag, error) {
	var bags []*entity.Bag
	err := repo.db.WithContext(ctx).
		Preload("Participants").
		Joins("JOIN bag_participants ON bag_participants.bag_id = bags.id").
		Where("bag_participants.user_id = ?", userID).
		Order("bags.created_at DESC").
		Find(&bags).Error
	return bags, err
}

func (repo *GormBagRepository) IsParticipant(ctx context.Context, bagID, userID string) (bool, error) {
	var count int64
	err := repo.db.WithContext(ctx).Model(&entity.BagParticipant{}).
		Where("bag_id = ? AND user_id = ?", bagID, userID).
		Count(&count).Error
	return count > 0, err
}

func (repo *GormBagRepository) SettledTotal(ctx context.Context, bagID string) (decimal.Decimal, error) {
	return settledTotal(repo.db.WithContext(ctx), bagID)
}

// joinOrder spaces the join times of rows inserted together, so ordering by joined_at keeps the input order
func joinOrder(base time.Time, i int) time.Time {
	return base.Add(time.Duration(i) * time.Millisecond)
}

// settledTotal sums the settled contributions in Go, so the result does not depend on how the driver types SUM over decimals
func settledTotal(db *gorm.DB, bagID string) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	err := db.Model(&entity.BagContribution{}).
		Where("bag_id = ? AND status IN ?", bagID, []entity.ContributionStatus{entity.ContributionCompleted, entity.ContributionPaid}).
		Pluck("amount", &amounts).Error
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.Sum(decimal.Zero, amounts...), nil
}
