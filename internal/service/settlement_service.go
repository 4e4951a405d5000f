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

	"jesstore/internal/apperr"
	"jesstore/internal/entity"
	"jesstore/internal/events"
	"jesstore/internal/nlog"
	"jesstore/internal/payment"
	"jesstore/internal/repository"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Service used to apply gateway payments to the contributions and gifts they pay for.
// A payment id is applied once: a replayed notification returns apperr.ErrAlreadySettled and changes nothing.
type SettlementService interface {
	Settle(ctx context.Context, reference, paymentID string, amount decimal.Decimal, method entity.PaymentMethod) error // Settles the record the reference points to, amount is what was paid (zero for the priced amount)
	HandlePaymentNotification(ctx context.Context, paymentID string) error                                              // Fetches the payment and settles it when approved
}

type localSettlementService struct {
	contributions repository.ContributionRepository
	gifts         repository.GiftRepository
	gateway       payment.Gateway
	publisher     events.Publisher
	metrics       *SettlementMetrics
	logger        nlog.Logger
}

func NewSettlementService(contributions repository.ContributionRepository, gifts repository.GiftRepository, gateway payment.Gateway, publisher events.Publisher, metrics *SettlementMetrics, logger nlog.Logger) SettlementService {
	return &localSettlementService{
		contributions: contributions,
		gifts:         gifts,
		gateway:       gateway,
		publisher:     publisher,
		metrics:       metrics,
		logger:        logger,
	}
}

func (s *localSettlementService) Logf(format string, a ...any) {
	s.logger.Logf(format, a...)
}

func (s *localSettlementService) Settle(ctx context.Context, reference, paymentID string, amount decimal.Decimal, method entity.PaymentMethod) error {
	ref, err := payment.ParseReference(reference)
	if err != nil {
		s.metrics.observe("unknown", OutcomeIgnored)
		s.Logf("Payment %s carries a reference that is not ours {%v}", paymentID, err)
		return err
	}

	err = s.settle(ctx, ref, paymentID, amount, method)
	switch {
	case err == nil:
		s.metrics.observe(string(ref.Kind), OutcomeSettled)
		s.Logf("Settled %s with payment %s", ref.Raw, paymentID)
	case errors.Is(err, apperr.ErrAlreadySettled):
		s.metrics.observe(string(ref.Kind), OutcomeReplayed)
		s.Logf("Payment %s for %s was already settled", paymentID, ref.Raw)
	case errors.Is(err, apperr.ErrUnknownReference):
		s.metrics.observe(string(ref.Kind), OutcomeIgnored)
		s.Logf("Payment %s points to %s, which matches nothing", paymentID, ref.Raw)
	default:
		s.metrics.observe(string(ref.Kind), OutcomeFailed)
		s.Logf("Could not settle %s {%v}", ref.Raw, err)
	}
	return err
}

func (s *localSettlementService) settle(ctx context.Context, ref payment.Reference, paymentID string, amount decimal.Decimal, method entity.PaymentMethod) error {
	switch ref.Kind {
	case payment.KindVaca:
		status := entity.ContributionCompleted
		if method == entity.MethodCoins {
			status = entity.ContributionPaid
		}
		c, err := s.contributions.Settle(ctx, repository.ContributionPayment{
			BagID:     ref.BagID,
			UserID:    ref.UserID,
			Reference: ref.Raw,
			PaymentID: paymentID,
			Amount:    amount,
			Method:    method,
			Status:    status,
		})
		if err != nil {
			return err
		}
		s.publish(ctx, events.ContributionSettled, map[string]any{
			"bagId": c.BagID, "userId": c.UserID, "amount": c.Amount, "paymentId": paymentID, "method": method,
		})
		return nil

	case payment.KindGift:
		return s.markGiftPaid(ctx, ref.GiftID, paymentID, method)

	case payment.KindVacaGift:
		gift, err := s.gifts.GetByReference(ctx, ref.Raw)
		if err != nil {
			return err
		}
		return s.markGiftPaid(ctx, gift.ID, paymentID, method)
	}
	return apperr.ErrUnknownReference
}

func (s *localSettlementService) markGiftPaid(ctx context.Context, giftID, paymentID string, method entity.PaymentMethod) error {
	if err := s.gifts.MarkPaid(ctx, giftID, paymentID); err != nil {
		return err
	}
	s.publish(ctx, events.GiftPaid, map[string]any{"giftId": giftID, "paymentId": paymentID, "method": method})
	return nil
}

func (s *localSettlementService) HandlePaymentNotification(ctx context.Context, paymentID string) error {
	p, err := s.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		s.Logf("Could not fetch payment %s {%v}", paymentID, err)
		return err
	}
	if p.Status != payment.StatusApproved {
		s.metrics.observe("payment", OutcomeIgnored)
		s.Logf("Ignoring payment %s with status %s", p.ID, p.Status)
		return nil
	}

	err = s.Settle(ctx, p.ExternalReference, p.ID, p.Amount, entity.MethodMercadoPago)
	if errors.Is(err, apperr.ErrAlreadySettled) {
		return nil
	}
	return err
}

func (s *localSettlementService) publish(ctx context.Context, subject string, payload any) {
	if err := s.publisher.Publish(ctx, subject, payload); err != nil {
		s.Logf("Could not publish %s {%v}", subject, err)
	}
}
