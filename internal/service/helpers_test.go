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
	"fmt"
	"strings"
	"sync"
	"testing"

	"jesstore/internal/entity"
	"jesstore/internal/payment"
	"jesstore/internal/repository"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type MockLogger struct{}

func (m *MockLogger) Logf(format string, v ...any) {
	fmt.Printf(format+"\n", v...)
}

// stores bundles the repositories of one in-memory database
type stores struct {
	db            *gorm.DB
	users         repository.UserRepository
	bags          repository.BagRepository
	contributions repository.ContributionRepository
	gifts         repository.GiftRepository
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	wallets       repository.WalletRepository
}

func newStores(t *testing.T) *stores {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(entity.All()...))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	return &stores{
		db:            db,
		users:         repository.NewGormUserRepository(db),
		bags:          repository.NewGormBagRepository(db),
		contributions: repository.NewGormContributionRepository(db),
		gifts:         repository.NewGormGiftRepository(db),
		conversations: repository.NewGormConversationRepository(db),
		messages:      repository.NewGormMessageRepository(db),
		wallets:       repository.NewGormWalletRepository(db),
	}
}

// register creates a user through the auth service, so it also gets a wallet
func (s *stores) register(t *testing.T, username string, coins int64) *entity.User {
	t.Helper()
	auth := NewAuthService(s.users, decimal.NewFromInt(coins), &MockLogger{})
	u, err := auth.Register(context.Background(), username, strings.ToUpper(username[:1])+username[1:], "secret")
	require.NoError(t, err)
	return u
}

// fakeGateway records preferences and answers payments from a map
type fakeGateway struct {
	mu          sync.Mutex
	preferences []payment.Preference
	payments    map[string]*payment.Payment
	err         error
}

func (g *fakeGateway) CreatePreference(_ context.Context, pref payment.Preference) (*payment.CheckoutLink, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.preferences = append(g.preferences, pref)
	id := fmt.Sprintf("pref-%d", len(g.preferences))
	return &payment.CheckoutLink{PreferenceID: id, InitPoint: "https://mp.example/checkout/" + id}, nil
}

func (g *fakeGateway) GetPayment(_ context.Context, paymentID string) (*payment.Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.payments[paymentID]
	if !ok {
		return nil, errors.Errorf("payment %s not found", paymentID)
	}
	return p, nil
}

// recordingPublisher keeps every subject it is asked to publish
type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return nil
}

func (p *recordingPublisher) count(subject string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, s := range p.subjects {
		if s == subject {
			n++
		}
	}
	return n
}
