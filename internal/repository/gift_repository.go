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

	"gorm.io/gorm"
)

// This repository is used to manipulate gifts. Gifts are only ever written twice: at creation and when paid.
type GiftRepository interface {
	Create(ctx context.Context, gift *entity.Gift) error // Inserts a pending gift

	GetByID(ctx context.Context, id string) (*entity.Gift, error)
	GetByReference(ctx context.Context, reference string) (*entity.Gift, error) // Retrieves the gift correlated to a payment reference
	ListByRecipient(ctx context.Context, userID string) ([]*entity.Gift, error)
	ListBySender(ctx context.Context, userID string) ([]*entity.Gift, error)

	MarkPaid(ctx context.Context, id, paymentID string) error // pending -> paid, apperr.ErrAlreadySettled when it was not pending
}

// Implementation of the repository over gorm
type GormGiftRepository struct {
	db *gorm.DB
}

func NewGormGiftRepository(db *gorm.DB) GiftRepository {
	return &GormGiftRepository{db}
}

func (repo *GormGiftRepository) Create(ctx context.Context, gift *entity.Gift) error {
	return repo.db.WithContext(ctx).Create(gift).Error
}

func (repo *GormGiftRepository) GetByID(ctx context.Context, id string) (*entity.Gift, error) {
	var gift entity.Gift
	if err := repo.db.WithContext(ctx).Where("id = ?", id).First(&gift).Error; err != nil {
		return nil, notFound(err, apperr.ErrGiftNotFound)
	}
	return &gift, nil
}

func (repo *GormGiftRepository) GetByReference(ctx context.Context, reference string) (*entity.Gift, error) {
	var gift entity.Gift
	if err := repo.db.WithContext(ctx).Where("external_reference = ?", reference).First(&gift).Error; err != nil {
		return nil, notFound(err, apperr.ErrGiftNotFound)
	}
	return &gift, nil
}

func (repo *GormGiftRepository) ListByRecipient(ctx context.Context, userID string) ([]*entity.Gift, error) {
	var gifts []*entity.Gift
	err := repo.db.WithContext(ctx).Where("recipient_id = ?", userID).Order("created_at DESC").Find(&gifts).Error
	return gifts, err
}

func (repo *GormGiftRepository) ListBySender(ctx context.Context, userID string) ([]*entity.Gift, error) {
	var gifts []*entity.Gift
	err := repo.db.WithContext(ctx).Where("sender_id = ?", userID).Order("created_at DESC").Find(&gifts).Error
	return gifts, err
}

func (repo *GormGiftRepository) MarkPaid(ctx context.Context, id, paymentID string) error {
	return markGiftPaid(repo.db.WithContext(ctx), id, paymentID)
}

// markGiftPaid is shared with the wallet, which marks gifts paid inside its own debit transaction.
// The status guard makes replays (duplicate webhooks, double clicks) no-ops.
func markGiftPaid(db *gorm.DB, id, paymentID string) error {
	now := time.Now()
	res := db.Model(&entity.Gift{}).
		Where("id = ? AND status = ?", id, entity.GiftPending).
		Updates(map[string]any{"status": entity.GiftPaid, "payment_id": paymentID, "paid_at": &now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := db.Model(&entity.Gift{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return apperr.ErrGiftNotFound
		}
		return apperr.ErrAlreadySettled
	}
	return nil
}
