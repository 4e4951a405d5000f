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
	"jesstore/internal/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// This repository is used to manipulate the contributions to a bag.
// A user has at most one pending contribution per bag, the one its payment reference points to.
type ContributionRepository interface {
	UpsertPending(ctx context.Context, c *entity.BagContribution) error // Reuses the user's pending contribution on the bag (new amount), or inserts c

	Settle(ctx context.Context, p ContributionPayment) (*entity.BagContribution, error) // Applies a payment once per payment id

	ListByBag(ctx context.Context, bagID string) ([]*entity.BagContribution, error)
}

// ContributionPayment is a payment made by a participant towards a bag
type ContributionPayment struct {
	BagID     string
	UserID    string
	Reference string
	PaymentID string
	Amount    decimal.Decimal // What was actually paid, zero keeps the amount of the pending contribution
	Method    entity.PaymentMethod
	Status    entity.ContributionStatus
}

// Implementation of the repository over gorm
type GormContributionRepository struct {
	db *gorm.DB
}

func NewGormContributionRepository(db *gorm.DB) ContributionRepository {
	return &GormContributionRepository{db}
}

func (repo *GormContributionRepository) UpsertPending(ctx context.Context, c *entity.BagContribution) error {
	return repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []entity.BagContribution
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("bag_id = ? AND user_id = ? AND status = ?", c.BagID, c.UserID, entity.ContributionPending).
			Limit(1).Find(&existing).Error
		if err != nil {
			return err
		}

		if len(existing) == 0 {
			return tx.Create(c).Error
		}

		found := existing[0]
		if err := tx.Model(&entity.BagContribution{}).Where("id = ?", found.ID).
			Updates(map[string]any{"amount": c.Amount, "external_reference": c.ExternalReference}).Error; err != nil {
			return err
		}
		found.Amount = c.Amount
		found.ExternalReference = c.ExternalReference
		*c = found
		return nil
	})
}

// Settle completes the pending contribution with the payment, at the amount actually paid.
// A payment id already recorded for the participant is apperr.ErrAlreadySettled. A new payment with
// nothing pending (an older checkout link paid late) is stored as a contribution of its own.
func (repo *GormContributionRepository) Settle(ctx context.Context, p ContributionPayment) (*entity.BagContribution, error) {
	if p.PaymentID == "" {
		return nil, apperr.InvalidArg("payment id is required")
	}

	var settled entity.BagContribution
	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The participant row serialises the settlements of one user on one bag
		var participants []entity.BagParticipant
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("bag_id = ? AND user_id = ?", p.BagID, p.UserID).
			Limit(1).Find(&participants).Error
		if err != nil {
			return err
		}
		if len(participants) == 0 {
			return apperr.ErrUnknownReference
		}

		var recorded int64
		err = tx.Model(&entity.BagContribution{}).
			Where("bag_id = ? AND user_id = ? AND payment_id = ?", p.BagID, p.UserID, p.PaymentID).
			Count(&recorded).Error
		if err != nil {
			return err
		}
		if recorded > 0 {
			return apperr.ErrAlreadySettled
		}

		var pending []entity.BagContribution
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("bag_id = ? AND user_id = ? AND status = ?", p.BagID, p.UserID, entity.ContributionPending).
			Order("created_at ASC").Limit(1).Find(&pending).Error
		if err != nil {
			return err
		}

		now := time.Now()
		if len(pending) == 0 {
			if !p.Amount.IsPositive() {
				return apperr.ErrInvalidAmount
			}
			settled = entity.BagContribution{
				ID:                uuid.New().String(),
				BagID:             p.BagID,
				UserID:            p.UserID,
				Amount:            p.Amount,
				Status:            p.Status,
				PaymentMethod:     p.Method,
				ExternalReference: p.Reference,
				PaymentID:         p.PaymentID,
				CreatedAt:         now,
				SettledAt:         &now,
			}
			return tx.Create(&settled).Error
		}

		settled = pending[0]
		if p.Amount.IsPositive() {
			settled.Amount = p.Amount
		}
		if p.Method != "" {
			settled.PaymentMethod = p.Method
		}
		res := tx.Model(&entity.BagContribution{}).
			Where("id = ? AND status = ?", settled.ID, entity.ContributionPending).
			Updates(map[string]any{
				"status":         p.Status,
				"amount":         settled.Amount,
				"payment_method": settled.PaymentMethod,
				"payment_id":     p.PaymentID,
				"settled_at":     &now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.ErrAlreadySettled
		}

		settled.Status = p.Status
		settled.PaymentID = p.PaymentID
		settled.SettledAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &settled, nil
}

func (repo *GormContributionRepository) ListByBag(ctx context.Context, bagID string) ([]*entity.BagContribution, error) {
	var contributions []*entity.BagContribution
	err := repo.db.WithContext(ctx).Where("bag_id = ?", bagID).Order("created_at ASC").Find(&contributions).Error
	return contributions, err
}
