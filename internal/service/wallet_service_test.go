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
	"testing"

	"jesstore/internal/apperr"
	"jesstore/internal/entity"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletPayGift(t *testing.T) {
	s := newStores(t)
	ctx := context.Background()
	sender := s.register(t, "uno", 20000)
	recipient := s.register(t, "dos", 0)
	pub := &recordingPublisher{}

	gifts := NewGiftService(s.gifts, &fakeGateway{}, "", &MockLogger{})
	checkout, err := gifts.CreateGift(ctx, GiftRequest{
		SenderID: sender.ID, RecipientID: recipient.ID, ProductHandle: "taza",
		Amount: decimal.NewFromInt(15000), Method: entity.MethodCoins,
	})
	require.NoError(t, err)
	assert.Empty(t, checkout.InitPoint)

	wallets := NewWalletService(s.wallets, s.gifts, s.bags, pub, nil, &MockLogger{})

	_, err = wallets.PayGift(ctx, checkout.Gift.ID, recipient.ID)
	assert.ErrorIs(t, err, apperr.ErrGiftNotYourOwn)

	paid, err := wallets.PayGift(ctx, checkout.Gift.ID, sender.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.GiftPaid, paid.Status)

	balance, err := wallets.Balance(ctx, sender.ID)
	require.NoError(t, err)
	assert.True(t, balance.Balance.Equal(decimal.NewFromInt(5000)))

	// No double debit
	_, err = wallets.PayGift(ctx, checkout.Gift.ID, sender.ID)
	assert.ErrorIs(t, err, apperr.ErrAlreadySettled)
	balance, err = wallets.Balance(ctx, sender.ID)
	require.NoError(t, err)
	assert.True(t, balance.Balance.Equal(decimal.NewFromInt(5000)))
	assert.Equal(t, 1, pub.count("gift.paid"))
}

func TestWalletPayContribution(t *testing.T) {
	s := newStores(t)
	ctx := context.Background()
	creator := s.register(t, "uno", 10000)
	recipient := s.register(t, "dos", 0)
	member := s.register(t, "tres", 0)

	vaca, err := NewVacaService(s.bags, &recordingPublisher{}, &MockLogger{}).CreatePooledGift(ctx, PooledGiftRequest{
		CreatorID: creator.ID, RecipientID: recipient.ID, ParticipantIDs: []string{member.ID},
		ProductHandle: "reloj", GoalAmount: decimal.NewFromInt(30000),
	})
	require.NoError(t, err)

	wallets := NewWalletService(s.wallets, s.gifts, s.bags, &recordingPublisher{}, nil, &MockLogger{})

	// The share is 15000, more than the creator has
	_, err = wallets.PayContribution(ctx, vaca.Bag.ID, creator.ID, decimal.Zero)
	assert.ErrorIs(t, err, apperr.ErrInsufficientFunds)

	c, err := wallets.PayContribution(ctx, vaca.Bag.ID, creator.ID, decimal.NewFromInt(8000))
	require.NoError(t, err)
	assert.Equal(t, entity.ContributionPaid, c.Status)
	assert.Equal(t, entity.MethodCoins, c.PaymentMethod)

	_, err = wallets.PayContribution(ctx, vaca.Bag.ID, recipient.ID, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, apperr.ErrNotParticipant)

	balance, err := wallets.Balance(ctx, creator.ID)
	require.NoError(t, err)
	assert.True(t, balance.Balance.Equal(decimal.NewFromInt(2000)))
}
