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

// GiftRequest is the body of a direct gift
type GiftRequest struct {
	SenderID      string               `json:"senderId"`
	RecipientID   string               `json:"recipientId"`
	ProductHandle string               `json:"productHandle"`
	ProductTitle  string               `json:"productTitle"`
	ProductImage  string               `json:"productImage"`
	Amount        decimal.Decimal      `json:"amount"`
	Currency      string               `json:"currency"`
	Message       string               `json:"message,omitempty"`
	Method        entity.PaymentMethod `json:"method"` // mercadopago (default) or coins
}

// GiftCheckout is a pending gift and, when paid through the gateway, where to pay it
type GiftCheckout struct {
	Gift      *entity.Gift `json:"gift"`
	InitPoint string       `json:"initPoint,omitempty"`
}

// Service used for direct gifts, from one user to another
type GiftService interface {
	CreateGift(ctx context.Context, req GiftRequest) (*GiftCheckout, error) // Creates a pending gift and its checkout
	GetGift(ctx context.Context, giftID, viewerID string) (*entity.Gift, error)
	ListReceived(ctx context.Context, userID string) ([]*entity.Gift, error)
	ListSent(ctx context.Context, userID string) ([]*entity.Gift, error)
}

type localGiftService struct {
	gifts         repository.GiftRepository
	gateway       payment.Gateway
	publicBaseURL string
	logger        nlog.Logger
}

func NewGiftService(gifts repository.GiftRepository, gateway payment.Gateway, publicBaseURL string, logger nlog.Logger) GiftService {
	return &localGiftService{
		gifts:         gifts,
		gateway:       gateway,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		logger:        logger,
	}
}

func (g *localGiftService) Logf(format string, a ...any) {
	g.logger.Logf(format, a...)
}

func (g *localGiftService) CreateGift(ctx context.Context, req GiftRequest) (*GiftCheckout, error) {
	req.SenderID = strings.TrimSpace(req.SenderID)
	req.RecipientID = strings.TrimSpace(req.RecipientID)
	req.ProductHandle = strings.TrimSpace(req.ProductHandle)
	if req.SenderID == "" || req.RecipientID == "" || req.ProductHandle == "" {
		return nil, apperr.InvalidArg("senderId, recipientId and productHandle are required")
	}
	if req.SenderID == req.RecipientID {
		return nil, apperr.ErrSelfGift
	}
	if !req.Amount.IsPositive() {
		return nil, apperr.ErrInvalidAmount
	}
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	if req.Currency == "" {
		req.Currency = DefaultCurrency
	}
	if len(req.Currency) != 3 {
		return nil, apperr.ErrInvalidCurrency
	}
	if req.Method == "" {
		req.Method = entity.MethodMercadoPago
	}
	if req.Method != entity.MethodMercadoPago && req.Method != entity.MethodCoins {
		return nil, apperr.InvalidArg("method must be mercadopago or coins")
	}

	id := uuid.New().String()
	gift := &entity.Gift{
		ID:                id,
		SenderID:          req.SenderID,
		RecipientID:       req.RecipientID,
		ProductHandle:     req.ProductHandle,
		ProductTitle:      req.ProductTitle,
		ProductImage:      req.ProductImage,
		Amount:            req.Amount,
		Currency:          req.Currency,
		Message:           req.Message,
		ExternalReference: payment.GiftReference(id),
		Status:            entity.GiftPending,
		CreatedAt:         time.Now(),
	}
	if err := g.gifts.Create(ctx, gift); err != nil {
		return nil, err
	}
	g.Logf("Gift %s from %s to %s created", gift.ID, gift.SenderID, gift.RecipientID)

	checkout := &GiftCheckout{Gift: gift}
	if req.Method == entity.MethodCoins {
		return checkout, nil
	}

	title := req.ProductTitle
	if title == "" {
		title = req.ProductHandle
	}
	link, err := g.gateway.CreatePreference(ctx, payment.Preference{
		Title:           title,
		Amount:          gift.Amount,
		Currency:        gift.Currency,
		Reference:       gift.ExternalReference,
		NotificationURL: webhookURL(g.publicBaseURL),
		BackURL:         g.publicBaseURL + "/gifts/" + gift.ID,
	})
	if err != nil {
		g.Logf("Preference for gift %s could not be created {%v}", gift.ID, err)
		return nil, errors.Wrap(err, "payment gateway")
	}
	checkout.InitPoint = link.InitPoint
	return checkout, nil
}

func (g *localGiftService) GetGift(ctx context.Context, giftID, viewerID string) (*entity.Gift, error) {
	gift, err := g.gifts.GetByID(ctx, giftID)
	if err != nil {
		return nil, err
	}
	if gift.SenderID != viewerID && gift.RecipientID != viewerID {
		return nil, apperr.ErrGiftNotYourOwn
	}
	return gift, nil
}

func (g *localGiftService) ListReceived(ctx context.Context, userID string) ([]*entity.Gift, error) {
	return g.gifts.ListByRecipient(ctx, userID)
}

func (g *localGiftService) ListSent(ctx context.Context, userID string) ([]*entity.Gift, error) {
	return g.gifts.ListBySender(ctx, userID)
}
