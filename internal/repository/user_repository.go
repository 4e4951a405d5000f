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
	"strings"
	"time"

	"jesstore/internal/apperr"
	"jesstore/internal/entity"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// This repository is used to manipulate the users of the store. Registration also opens the user's JES Coins wallet.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User, initialCoins decimal.Decimal) error // Inserts a user, its secret and its wallet
	SoftDelete(ctx context.Context, id string) error                                  // Soft deletes the user (the record remains, it's just marked deleted)

	GetForLogin(ctx context.Context, username string) (*entity.User, error) // Retrieves the user with its hashed password, hence, used for login.
	GetByID(ctx context.Context, id string) (*entity.User, error)           // Retrieves the user with the given id
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]*entity.User, error) // Retrieves the users among ids that exist, in no particular order
}

// Implementation of the repository over gorm
type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db}
}

func (repo *GormUserRepository) Create(ctx context.Context, user *entity.User, initialCoins decimal.Decimal) error {
	return repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&entity.User{}).Unscoped().Where("username = ?", user.Username).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return apperr.ErrUsernameTaken
		}

		if err := tx.Create(user).Error; err != nil {
			if isUniqueViolation(err) {
				return apperr.ErrUsernameTaken
			}
			return err
		}

		wallet := &entity.Wallet{UserID: user.ID, Balance: initialCoins, UpdatedAt: time.Now()}
		if err := tx.Create(wallet).Error; err != nil {
			return err
		}
		if initialCoins.IsPositive() {
			return tx.Create(newCoinTransaction(user.ID, initialCoins, "signup")).Error
		}
		return nil
	})
}

func (repo *GormUserRepository) SoftDelete(ctx context.Context, id string) error {
	res := repo.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrUserNotFound
	}
	return nil
}

func (repo *GormUserRepository) GetForLogin(ctx context.Context, username string) (*entity.User, error) {
	var user entity.User
	if err := repo.db.WithContext(ctx).Preload("Secret").Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err, apperr.ErrUserNotFound)
	}
	return &user, nil
}

func (repo *GormUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	if err := repo.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err, apperr.ErrUserNotFound)
	}
	return &user, nil
}

func (repo *GormUserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	var user entity.User
	if err := repo.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err, apperr.ErrUserNotFound)
	}
	return &user, nil
}

func (repo *GormUserRepository) FindByIDs(ctx context.Context, ids []string) ([]*entity.User, error) {
	var users []*entity.User
	if len(ids) == 0 {
		return users, nil
	}
	err := repo.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, err
}

// notFound turns gorm's ErrRecordNotFound into the given domain error, wrapping anything else
func notFound(err error, domain error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain
	}
	return errors.WithStack(err)
}

// isUniqueViolation recognises unique-constraint failures of both SQLite and Postgres
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}
