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
	"time"

	"jesstore/internal/apperr"
	"jesstore/internal/entity"
	"jesstore/internal/events"
	"jesstore/internal/nlog"
	"jesstore/internal/payment"
	"jesstore/internal/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Service used to pay with JES Coins. Every payment is one transaction: debit and settlement commit together or not at all.
type WalletService interface {
	PayGift(ctx context.Context, giftID, userID string) (*entity.Gift, error)                                       // The sender pays its pending gift
	PayContribution(ctx context.Context, bagID, userID string, amount decimal.Decimal) (*entity.BagContribution, error) // A participant pays (part of) its share
	Balance(ctx context.Context, userID string) (*entity.Wallet, error)
}

type localWalletService struct {
	wallets   repository.WalletRepository
	gifts     repository.GiftRepository
	bags      repository.BagRepository
	publisher events.Publisher
	metrics   *SettlementMetrics
	logger    nlog.Logger
}

func NewWalletService(wallets repository.WalletRepository, gifts repository.GiftRepository, bags repository.BagRepository, publisher events.Publisher, metrics *SettlementMetrics, logger nlog.Logger) WalletService {
	return &localWalletService{
		wallets:   wallets,
		gifts:     gifts,
		bags:      bags,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

func (w *localWalletService) Logf(format string, a ...any) {
	w.logger.Logf(format, a...)
}

func (w *localWalletService) PayGift(ctx context.Context, giftID, userID string) (*entity.Gift, error) {
	gift, err := w.gifts.GetByID(ctx, giftID)
	if err != nil {
		return nil, err
	}
	if gift.SenderID != userID {
		return nil, apperr.ErrGiftNotYourOwn
	}

	kind := string(payment.KindGift)
	if gift.BagID != nil {
		kind = string(payment.KindVacaGift)
	}

	paid, err := w.wallets.PayGift(ctx, giftID, userID)
	if err != nil {
		w.metrics.observe(kind, outcomeOf(err))
		w.Logf("Coins payment of gift %s failed {%v}", giftID, err)
		return nil, err
	}
	w.metrics.observe(kind, OutcomeSettled)
	w.Logf("Gift %s paid with %s coins by %s", giftID, paid.Amount, userID)

	if err := w.publisher.Publish(ctx, events.GiftPaid, map[string]any{
		"giftId": paid.ID, "paymentId": paid.PaymentID, "method": entity.MethodCoins,
	}); err != nil {
		w.Logf("Could not publish %s {%v}", events.GiftPaid, err)
	}
	return paid, nil
}

func (w *localWalletService) PayContribution(ctx context.Context, bagID, userID string, amount decimal.Decimal) (*entity.BagContribution, error) {
	bag, amount, err := contributionAmount(ctx, w.bags, bagID, userID, amount)
	if err != nil {
		return nil, err
	}

	c := &entity.BagContribution{
		ID:                uuid.New().String(),
		BagID:             bag.ID,
		UserID:            userID,
		Amount:            amount,
		ExternalReference: payment.VacaReference(bag.ID, userID),
		CreatedAt:         time.Now(),
	}
	if _, err := w.wallets.PayContribution(ctx, c); err != nil {
		w.metrics.observe(string(payment.KindVaca), outcomeOf(err))
		w.Logf("Coins contribution to %s failed {%v}", bagID, err)
		return nil, err
	}
	w.metrics.observe(string(payment.KindVaca), OutcomeSettled)
	w.Logf("Contribution %s of %s coins to bag %s", c.ID, amount, bag.ID)

	if err := w.publisher.Publish(ctx, events.ContributionSettled, map[string]any{
		"bagId": c.BagID, "userId": c.UserID, "amount": c.Amount, "paymentId": c.PaymentID, "method": entity.MethodCoins,
	}); err != nil {
		w.Logf("Could not publish %s {%v}", events.ContributionSettled, err)
	}
	return c, nil
}

func (w *localWalletService) Balance(ctx context.Context, userID string) (*entity.Wallet, error) {
	return w.wallets.Get(ctx, userID)
}

func outcomeOf(err error) string {
	if errors.Is(err, apperr.ErrAlreadySettled) {
		return OutcomeReplayed
	}
	return OutcomeFailed
}
