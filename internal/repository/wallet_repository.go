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

// This repository is used to move JES Coins.
// Every debit locks the wallet row (SELECT ... FOR UPDATE) so two concurrent payments of the same user cannot both read the old balance.
type WalletRepository interface {
	Get(ctx context.Context, userID string) (*entity.Wallet, error)
	Credit(ctx context.Context, userID string, amount decimal.Decimal, reference string) (*entity.Wallet, error) // Adds coins, opening the wallet if needed

	PayGift(ctx context.Context, giftID, payerID string) (*entity.Gift, error)                 // Debits the gift amount and marks the gift paid, atomically
	PayContribution(ctx context.Context, c *entity.BagContribution) (*entity.Wallet, error) // Debits c.Amount and stores c as paid, atomically

	Transactions(ctx context.Context, userID string) ([]*entity.CoinTransaction, error)
}

// Implementation of the repository over gorm
type GormWalletRepository struct {
	db *gorm.DB
}

func NewGormWalletRepository(db *gorm.DB) WalletRepository {
	return &GormWalletRepository{db}
}

func (repo *GormWalletRepository) Get(ctx context.Context, userID string) (*entity.Wallet, error) {
	var wallet entity.Wallet
	if err := repo.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		return nil, notFound(err, apperr.ErrWalletNotFound)
	}
	return &wallet, nil
}

func (repo *GormWalletRepository) Credit(ctx context.Context, userID string, amount decimal.Decimal, reference string) (*entity.Wallet, error) {
	if !amount.IsPositive() {
		return nil, apperr.ErrInvalidAmount
	}

	var wallet entity.Wallet
	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		open := entity.Wallet{UserID: userID, Balance: decimal.Zero, UpdatedAt: time.Now()}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&open).Error; err != nil {
			return err
		}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&wallet).Error; err != nil {
			return err
		}
		wallet.Balance = wallet.Balance.Add(amount)
		wallet.UpdatedAt = time.Now()
		if err := saveBalance(tx, &wallet); err != nil {
			return err
		}
		return tx.Create(newCoinTransaction(userID, amount, reference)).Error
	})
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (repo *GormWalletRepository) PayGift(ctx context.Context, giftID, payerID string) (*entity.Gift, error) {
	var gift entity.Gift
	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", giftID).First(&gift).Error; err != nil {
			return notFound(err, apperr.ErrGiftNotFound)
		}
		if gift.Status != entity.GiftPending {
			return apperr.ErrAlreadySettled
		}

		txID, err := debit(tx, payerID, gift.Amount, gift.ExternalReference)
		if err != nil {
			return err
		}

		// A concurrent settlement that won the race leaves 0 rows here; the error rolls the debit back
		if err := markGiftPaid(tx, gift.ID, "coins:"+txID); err != nil {
			return err
		}
		return tx.Where("id = ?", giftID).First(&gift).Error
	})
	if err != nil {
		return nil, err
	}
	return &gift, nil
}

func (repo *GormWalletRepository) PayContribution(ctx context.Context, c *entity.BagContribution) (*entity.Wallet, error) {
	var wallet entity.Wallet
	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txID, err := debit(tx, c.UserID, c.Amount, c.ExternalReference)
		if err != nil {
			return err
		}

		now := time.Now()
		c.Status = entity.ContributionPaid
		c.PaymentMethod = entity.MethodCoins
		c.PaymentID = "coins:" + txID
		c.SettledAt = &now
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", c.UserID).First(&wallet).Error
	})
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (repo *GormWalletRepository) Transactions(ctx context.Context, userID string) ([]*entity.CoinTransaction, error) {
	var txs []*entity.CoinTransaction
	err := repo.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&txs).Error
	return txs, err
}

// debit locks the wallet row, checks the balance and writes the movement. It returns the coin transaction id.
func debit(tx *gorm.DB, userID string, amount decimal.Decimal, reference string) (string, error) {
	if !amount.IsPositive() {
		return "", apperr.ErrInvalidAmount
	}

	var wallet entity.Wallet
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		return "", notFound(err, apperr.ErrWalletNotFound)
	}
	if wallet.Balance.LessThan(amount) {
		return "", apperr.ErrInsufficientFunds
	}

	wallet.Balance = wallet.Balance.Sub(amount)
	wallet.UpdatedAt = time.Now()
	if err := saveBalance(tx, &wallet); err != nil {
		return "", err
	}

	movement := newCoinTransaction(userID, amount.Neg(), reference)
	if err := tx.Create(movement).Error; err != nil {
		return "", err
	}
	return movement.ID, nil
}

func saveBalance(tx *gorm.DB, wallet *entity.Wallet) error {
	return tx.Model(&entity.Wallet{}).Where("user_id = ?", wallet.UserID).
		Updates(map[string]any{"balance": wallet.Balance, "updated_at": wallet.UpdatedAt}).Error
}

func newCoinTransaction(userID string, amount decimal.Decimal, reference string) *entity.CoinTransaction {
	return &entity.CoinTransaction{
		ID:        uuid.New().String(),
		UserID:    userID,
		Amount:    amount,
		Reference: reference,
		CreatedAt: time.Now(),
	}
}
