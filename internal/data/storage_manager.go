/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package data

import (
	"jesstore/internal/repository"

	"gorm.io/gorm"
)

// Storage manager gathers all the repositories needed by the store in a single container.
type StorageManager struct {
	db *gorm.DB

	// Repositories
	userRepo         repository.UserRepository
	bagRepo          repository.BagRepository
	contributionRepo repository.ContributionRepository
	giftRepo         repository.GiftRepository
	conversationRepo repository.ConversationRepository
	messageRepo      repository.MessageRepository
	walletRepo       repository.WalletRepository
}

func NewStorageManager(db *gorm.DB) *StorageManager {
	return &StorageManager{
		db:               db,
		userRepo:         repository.NewGormUserRepository(db),
		bagRepo:          repository.NewGormBagRepository(db),
		contributionRepo: repository.NewGormContributionRepository(db),
		giftRepo:         repository.NewGormGiftRepository(db),
		conversationRepo: repository.NewGormConversationRepository(db),
		messageRepo:      repository.NewGormMessageRepository(db),
		walletRepo:       repository.NewGormWalletRepository(db),
	}
}

// Ping checks that the database still answers, used by /healthz
func (s *StorageManager) Ping() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close releases the underlying connection pool
func (s *StorageManager) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *StorageManager) GetUserRepository() repository.UserRepository {
	return s.userRepo
}

func (s *StorageManager) GetBagRepository() repository.BagRepository {
	return s.bagRepo
}

func (s *StorageManager) GetContributionRepository() repository.ContributionRepository {
	return s.contributionRepo
}

func (s *StorageManager) GetGiftRepository() repository.GiftRepository {
	return s.giftRepo
}

func (s *StorageManager) GetConversationRepository() repository.ConversationRepository {
	return s.conversationRepo
}

func (s *StorageManager) GetMessageRepository() repository.MessageRepository {
	return s.messageRepo
}

func (s *StorageManager) GetWalletRepository() repository.WalletRepository {
	return s.walletRepo
}
