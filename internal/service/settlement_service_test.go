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
	"jesstore/internal/payment"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type settlementFixture struct {
	s        *stores
	gateway  *fakeGateway
	pub      *recordingPublisher
	metrics  *SettlementMetrics
	vaca     *PooledGift
	creator  *entity.User
	member   *entity.User
	settle   SettlementService
	contribs ContributionService
}

func newSettlementFixture(t *testing.T) *settlementFixture {
	s := newStores(t)
	f := &settlementFixture{
		s:       s,
		gateway: &fakeGateway{payments: map[string]*payment.Payment{}},
		pub:     &recordingPublisher{},
		metrics: NewSettlementMetrics(prometheus.NewRegistry()),
		creator: s.register(t, "uno", 0),
		member:  s.register(t, "tres", 0),
	}
	recipient := s.register(t, "dos", 0)

	vaca, err := NewVacaService(s.bags, f.pub, &MockLogger{}).CreatePooledGift(context.Background(), PooledGiftRequest{
		CreatorID: f.creator.ID, RecipientID: recipient.ID, ParticipantIDs: []string{f.member.ID},
		ProductHandle: "reloj", ProductTitle: "Reloj", GoalAmount: decimal.NewFromInt(100000),
	})
	require.NoError(t, err)
	f.vaca = vaca

	f.settle = NewSettlementService(s.contributions, s.gifts, f.gateway, f.pub, f.metrics, &MockLogger{})
	f.contribs = NewContributionService(s.bags, s.contributions, f.gateway, "https://jes.example/", &MockLogger{})
	return f
}

func TestStartContribution(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()

	checkout, err := f.contribs.StartContribution(ctx, f.vaca.Bag.ID, f.member.ID, decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, "https://mp.example/checkout/pref-1", checkout.InitPoint)
	assert.True(t, checkout.Contribution.Amount.Equal(decimal.NewFromInt(50000)), "amount was %s", checkout.Contribution.Amount)
	assert.Equal(t, payment.VacaReference(f.vaca.Bag.ID, f.member.ID), checkout.Contribution.ExternalReference)

	require.Len(t, f.gateway.preferences, 1)
	pref := f.gateway.preferences[0]
	assert.Equal(t, "https://jes.example/api/webhooks/mercadopago", pref.NotificationURL)
	assert.Equal(t, "Vaca: Reloj", pref.Title)
	assert.Equal(t, "COP", pref.Currency)

	// Starting again reuses the pending row
	again, err := f.contribs.StartContribution(ctx, f.vaca.Bag.ID, f.member.ID, decimal.NewFromInt(20000))
	require.NoError(t, err)
	assert.Equal(t, checkout.Contribution.ID, again.Contribution.ID)
	assert.True(t, again.Contribution.Amount.Equal(decimal.NewFromInt(20000)))
}

func TestStartContributionRefusesOutsiders(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()
	outsider := f.s.register(t, "cuatro", 0)

	_, err := f.contribs.StartContribution(ctx, f.vaca.Bag.ID, outsider.ID, decimal.Zero)
	assert.ErrorIs(t, err, apperr.ErrNotParticipant)
	_, err = f.contribs.StartContribution(ctx, f.vaca.Bag.ID, f.member.ID, decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, apperr.ErrInvalidAmount)
	_, err = f.contribs.StartContribution(ctx, "missing", f.member.ID, decimal.Zero)
	assert.ErrorIs(t, err, apperr.ErrBagNotFound)
}

func TestSettleContributionOnce(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()

	checkout, err := f.contribs.StartContribution(ctx, f.vaca.Bag.ID, f.member.ID, decimal.Zero)
	require.NoError(t, err)
	ref := checkout.Contribution.ExternalReference

	require.NoError(t, f.settle.Settle(ctx, ref, "mp-1", decimal.Zero, entity.MethodMercadoPago))
	err = f.settle.Settle(ctx, ref, "mp-1", decimal.Zero, entity.MethodMercadoPago)
	assert.ErrorIs(t, err, apperr.ErrAlreadySettled)

	total, err := f.s.bags.SettledTotal(ctx, f.vaca.Bag.ID)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(50000)), "total was %s", total)

	assert.Equal(t, 1, f.pub.count("contribution.settled"))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.settlements.WithLabelValues("vaca", OutcomeSettled)))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.settlements.WithLabelValues("vaca", OutcomeReplayed)))
}

func TestSettleGifts(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()

	vacaGifts, err := f.s.gifts.ListBySender(ctx, f.creator.ID)
	require.NoError(t, err)
	require.Len(t, vacaGifts, 1)
	require.NoError(t, f.settle.Settle(ctx, vacaGifts[0].ExternalReference, "mp-7", decimal.Zero, entity.MethodMercadoPago))

	paid, err := f.s.gifts.GetByID(ctx, vacaGifts[0].ID)
	require.NoError(t, err)
	assert.Equal(t, entity.GiftPaid, paid.Status)
	assert.Equal(t, "mp-7", paid.PaymentID)

	gifts := NewGiftService(f.s.gifts, f.gateway, "", &MockLogger{})
	checkout, err := gifts.CreateGift(ctx, GiftRequest{
		SenderID: f.member.ID, RecipientID: f.creator.ID, ProductHandle: "taza", Amount: decimal.NewFromInt(15000),
	})
	require.NoError(t, err)
	require.NoError(t, f.settle.Settle(ctx, payment.GiftReference(checkout.Gift.ID), "mp-8", decimal.Zero, entity.MethodMercadoPago))
	assert.ErrorIs(t, f.settle.Settle(ctx, payment.GiftReference(checkout.Gift.ID), "mp-8", decimal.Zero, entity.MethodMercadoPago), apperr.ErrAlreadySettled)
	assert.Equal(t, 2, f.pub.count("gift.paid"))

	assert.ErrorIs(t, f.settle.Settle(ctx, "gift:missing", "mp-9", decimal.Zero, entity.MethodMercadoPago), apperr.ErrGiftNotFound)
	assert.ErrorIs(t, f.settle.Settle(ctx, "order-12", "mp-9", decimal.Zero, entity.MethodMercadoPago), apperr.ErrUnknownReference)
}

func TestHandlePaymentNotification(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()

	checkout, err := f.contribs.StartContribution(ctx, f.vaca.Bag.ID, f.creator.ID, decimal.NewFromInt(10000))
	require.NoError(t, err)

	f.gateway.payments["100"] = &payment.Payment{ID: "100", Status: "pending", ExternalReference: checkout.Contribution.ExternalReference}
	require.NoError(t, f.settle.HandlePaymentNotification(ctx, "100"))
	total, err := f.s.bags.SettledTotal(ctx, f.vaca.Bag.ID)
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	f.gateway.payments["101"] = &payment.Payment{ID: "101", Status: payment.StatusApproved, ExternalReference: checkout.Contribution.ExternalReference}
	require.NoError(t, f.settle.HandlePaymentNotification(ctx, "101"))
	// Duplicate delivery
	require.NoError(t, f.settle.HandlePaymentNotification(ctx, "101"))

	total, err = f.s.bags.SettledTotal(ctx, f.vaca.Bag.ID)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(10000)))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.settlements.WithLabelValues("payment", OutcomeIgnored)))

	assert.Error(t, f.settle.HandlePaymentNotification(ctx, "404"))
}

func TestHandlePaymentNotificationRecordsAmountPaid(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()

	first, err := f.contribs.StartContribution(ctx, f.vaca.Bag.ID, f.member.ID, decimal.Zero)
	require.NoError(t, err)
	require.True(t, first.Contribution.Amount.Equal(decimal.NewFromInt(50000)))
	_, err = f.contribs.StartContribution(ctx, f.vaca.Bag.ID, f.member.ID, decimal.NewFromInt(20000))
	require.NoError(t, err)
	ref := first.Contribution.ExternalReference

	// Both checkout links end up paid
	f.gateway.payments["200"] = &payment.Payment{ID: "200", Status: payment.StatusApproved, ExternalReference: ref, Amount: decimal.NewFromInt(50000)}
	f.gateway.payments["201"] = &payment.Payment{ID: "201", Status: payment.StatusApproved, ExternalReference: ref, Amount: decimal.NewFromInt(20000)}

	require.NoError(t, f.settle.HandlePaymentNotification(ctx, "200"))
	total, err := f.s.bags.SettledTotal(ctx, f.vaca.Bag.ID)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(50000)), "total was %s", total)

	require.NoError(t, f.settle.HandlePaymentNotification(ctx, "201"))
	require.NoError(t, f.settle.HandlePaymentNotification(ctx, "201"))
	total, err = f.s.bags.SettledTotal(ctx, f.vaca.Bag.ID)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(70000)), "total was %s", total)

	assert.Equal(t, 2, f.pub.count("contribution.settled"))
	assert.Equal(t, float64(2), testutil.ToFloat64(f.metrics.settlements.WithLabelValues("vaca", OutcomeSettled)))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.settlements.WithLabelValues("vaca", OutcomeReplayed)))
}

func TestHandlePaymentNotificationForeignReference(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()

	f.gateway.payments["300"] = &payment.Payment{ID: "300", Status: payment.StatusApproved, ExternalReference: "order-12", Amount: decimal.NewFromInt(1000)}
	err := f.settle.HandlePaymentNotification(ctx, "300")
	assert.ErrorIs(t, err, apperr.ErrUnknownReference)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.settlements.WithLabelValues("unknown", OutcomeIgnored)))

	// A user outside the bag
	stranger := payment.VacaReference(f.vaca.Bag.ID, "nobody")
	f.gateway.payments["301"] = &payment.Payment{ID: "301", Status: payment.StatusApproved, ExternalReference: stranger, Amount: decimal.NewFromInt(1000)}
	err = f.settle.HandlePaymentNotification(ctx, "301")
	assert.ErrorIs(t, err, apperr.ErrUnknownReference)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.settlements.WithLabelValues("vaca", OutcomeIgnored)))
	assert.Zero(t, testutil.ToFloat64(f.metrics.settlements.WithLabelValues("vaca", OutcomeFailed)))
}
