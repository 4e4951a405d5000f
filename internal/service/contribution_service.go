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
	"strings"
	"time"

	"jesstore/internal/apperr"
	"jesstore/internal/entity"
	"jesstore/internal/nlog"
	"jesstore/internal/payment"
	"jesstore/internal/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ContributionCheckout is a pending contribution and where to pay it
type ContributionCheckout struct {
	Contribution *entity.BagContribution `json:"contribution"`
	InitPoint    string                  `json:"initPoint"`
}

// Service used to start paying a share of a vaca through the payment gateway
type ContributionService interface {
	StartContribution(ctx context.Context, bagID, userID string, amount decimal.Decimal) (*ContributionCheckout, error) // Amount zero means the user's share
}

type localContributionService struct {
	bags          repository.BagRepository
	contributions repository.ContributionRepository
	gateway       payment.Gateway
	publicBaseURL string
	logger        nlog.Logger
}

func NewContributionService(bags repository.BagRepository, contributions repository.ContributionRepository, gateway payment.Gateway, publicBaseURL string, logger nlog.Logger) ContributionService {
	return &localContributionService{
		bags:          bags,
		contributions: contributions,
		gateway:       gateway,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		logger:        logger,
	}
}

func (c *localContributionService) Logf(format string, a ...any) {
	c.logger.Logf(format, a...)
}

func (c *localContributionService) StartContribution(ctx context.Context, bagID, userID string, amount decimal.Decimal) (*ContributionCheckout, error) {
	bag, amount, err := contributionAmount(ctx, c.bags, bagID, userID, amount)
	if err != nil {
		return nil, err
	}

	contribution := &entity.BagContribution{
		ID:                uuid.New().String(),
		BagID:             bag.ID,
		UserID:            userID,
		Amount:            amount,
		Status:            entity.ContributionPending,
		PaymentMethod:     entity.MethodMercadoPago,
		ExternalReference: payment.VacaReference(bag.ID, userID),
		CreatedAt:         time.Now(),
	}
	if err := c.contributions.UpsertPending(ctx, contribution); err != nil {
		return nil, err
	}

	link, err := c.gateway.CreatePreference(ctx, payment.Preference{
		Title:           bag.Name,
		Amount:          amount,
		Currency:        bag.Currency,
		Reference:       contribution.ExternalReference,
		NotificationURL: webhookURL(c.publicBaseURL),
		BackURL:         c.publicBaseURL + "/vaca/" + bag.ID,
	})
	if err != nil {
		c.Logf("Preference for %s could not be created {%v}", contribution.ExternalReference, err)
		return nil, errors.Wrap(err, "payment gateway")
	}

	c.Logf("Contribution %s of %s started on bag %s", contribution.ID, amount, bag.ID)
	return &ContributionCheckout{Contribution: contribution, InitPoint: link.InitPoint}, nil
}

// contributionAmount loads the bag, checks that userID contributes to it and resolves a zero amount to the share
func contributionAmount(ctx context.Context, bags repository.BagRepository, bagID, userID string, amount decimal.Decimal) (*entity.Bag, decimal.Decimal, error) {
	if amount.IsNegative() {
		return nil, amount, apperr.ErrInvalidAmount
	}
	bag, err := bags.GetByID(ctx, bagID)
	if err != nil {
		return nil, amount, err
	}
	ok, err := bags.IsParticipant(ctx, bagID, userID)
	if err != nil {
		return nil, amount, err
	}
	if !ok {
		return nil, amount, apperr.ErrNotParticipant
	}
	if amount.IsZero() {
		amount = ShareFor(bag)
	}
	return bag, amount, nil
}

func webhookURL(base string) string {
	if base == "" {
		return ""
	}
	return base + "/api/webhooks/mercadopago"
}
