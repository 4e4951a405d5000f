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
	"jesstore/internal/events"
	"jesstore/internal/nlog"
	"jesstore/internal/payment"
	"jesstore/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PooledGiftRequest is the body of a new vaca
type PooledGiftRequest struct {
	CreatorID      string          `json:"creatorId"`
	RecipientID    string          `json:"recipientId"`
	ParticipantIDs []string        `json:"participantIds"`
	ProductHandle  string          `json:"productHandle"`
	ProductTitle   string          `json:"productTitle"`
	ProductImage   string          `json:"productImage"`
	GoalAmount     decimal.Decimal `json:"goalAmount"`
	Currency       string          `json:"currency"`
	Message        string          `json:"message,omitempty"`
}

// PooledGift is what a new vaca answers with
type PooledGift struct {
	Bag          *entity.Bag          `json:"bag"`
	Conversation *entity.Conversation `json:"conversation"`
}

// BagSummary is a bag with its progress
type BagSummary struct {
	*entity.Bag
	Remaining decimal.Decimal `json:"remaining"`
	Share     decimal.Decimal `json:"share"`
}

// Service used to create vacas (pooled gifts) and follow their progress
type VacaService interface {
	CreatePooledGift(ctx context.Context, req PooledGiftRequest) (*PooledGift, error) // Creates the bag, its gift and its group chat in one go
	GetBag(ctx context.Context, bagID string) (*BagSummary, error)                   // Retrieves the bag with its settled total
	ListUserBags(ctx context.Context, userID string) ([]*entity.Bag, error)          // Retrieves the bags the user contributes to
}

type localVacaService struct {
	bags      repository.BagRepository
	publisher events.Publisher
	logger    nlog.Logger
	now       func() time.Time
}

func NewVacaService(bags repository.BagRepository, publisher events.Publisher, logger nlog.Logger) VacaService {
	return &localVacaService{
		bags:      bags,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (v *localVacaService) Logf(format string, a ...any) {
	v.logger.Logf(format, a...)
}

func (v *localVacaService) CreatePooledGift(ctx context.Context, req PooledGiftRequest) (*PooledGift, error) {
	if err := validatePooledGift(&req); err != nil {
		return nil, err
	}

	contributors := Contributors(req.CreatorID, req.RecipientID, req.ParticipantIDs)
	// Blank ids, the recipient and the creator do not count as participants
	if len(contributors) < 2 {
		return nil, apperr.ErrMissingFields
	}

	title := req.ProductTitle
	if title == "" {
		title = req.ProductHandle
	}
	now := v.now()
	bagID := uuid.New().String()

	rec := &repository.PooledGiftRecord{
		Bag: &entity.Bag{
			ID:            bagID,
			Name:          "Vaca: " + title,
			Description:   req.Message,
			Image:         req.ProductImage,
			GoalAmount:    req.GoalAmount,
			Currency:      req.Currency,
			ProductHandle: req.ProductHandle,
			CreatorID:     req.CreatorID,
			CreatedAt:     now,
		},
		Gift: &entity.Gift{
			ID:                uuid.New().String(),
			SenderID:          req.CreatorID,
			RecipientID:       req.RecipientID,
			ProductHandle:     req.ProductHandle,
			ProductTitle:      req.ProductTitle,
			ProductImage:      req.ProductImage,
			Amount:            req.GoalAmount,
			Currency:          req.Currency,
			Message:           req.Message,
			ExternalReference: payment.VacaGiftReference(now),
			BagID:             &bagID,
			Status:            entity.GiftPending,
			CreatedAt:         now,
		},
		Conversation: &entity.Conversation{
			ID:        uuid.New().String(),
			Type:      entity.ConversationVaca,
			Name:      "Vaca: " + title,
			BagID:     &bagID,
			CreatedAt: now,
		},
		Contributors:           contributors,
		GoalMessage:            spanish.Sprintf(goalMessageFormat, FormatAmount(req.GoalAmount, req.Currency)),
		RecipientMessageFormat: recipientMessageFormat,
		RecipientFallbackName:  recipientFallbackName,
		SystemMessageTimestamps: func() time.Time {
			return now
		},
	}

	bag, conv, err := v.bags.CreatePooledGift(ctx, rec)
	if err != nil {
		v.Logf("Vaca could not be created {%v}", err)
		return nil, err
	}
	v.Logf("Vaca %s created by %s with %d contributors", bag.ID, bag.CreatorID, len(contributors))

	if err := v.publisher.Publish(ctx, events.VacaCreated, map[string]any{
		"bagId":          bag.ID,
		"conversationId": conv.ID,
		"creatorId":      bag.CreatorID,
		"recipientId":    req.RecipientID,
		"goalAmount":     bag.GoalAmount,
		"currency":       bag.Currency,
		"contributors":   contributors,
	}); err != nil {
		v.Logf("Could not publish %s {%v}", events.VacaCreated, err)
	}

	return &PooledGift{Bag: bag, Conversation: conv}, nil
}

func (v *localVacaService) GetBag(ctx context.Context, bagID string) (*BagSummary, error) {
	bag, err := v.bags.GetByID(ctx, bagID)
	if err != nil {
		return nil, err
	}
	total, err := v.bags.SettledTotal(ctx, bagID)
	if err != nil {
		return nil, err
	}
	bag.Total = total

	remaining := bag.GoalAmount.Sub(total)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return &BagSummary{Bag: bag, Remaining: remaining, Share: ShareFor(bag)}, nil
}

func (v *localVacaService) ListUserBags(ctx context.Context, userID string) ([]*entity.Bag, error) {
	return v.bags.ListByUser(ctx, userID)
}

// ShareFor computes the share of a stored bag: every participant but the creator counts
func ShareFor(bag *entity.Bag) decimal.Decimal {
	return ContributionShare(bag.GoalAmount, len(bag.Participants)-1)
}

// Contributors is creator ∪ participants without duplicates and without the recipient.
// The creator comes first, the others keep their order.
func Contributors(creatorID, recipientID string, participantIDs []string) []string {
	seen := map[string]struct{}{recipientID: {}}
	out := make([]string, 0, len(participantIDs)+1)
	for _, id := range append([]string{creatorID}, participantIDs...) {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func validatePooledGift(req *PooledGiftRequest) error {
	req.CreatorID = strings.TrimSpace(req.CreatorID)
	req.RecipientID = strings.TrimSpace(req.RecipientID)
	req.ProductHandle = strings.TrimSpace(req.ProductHandle)

	if req.CreatorID == "" || req.RecipientID == "" || req.ProductHandle == "" || len(req.ParticipantIDs) == 0 {
		return apperr.ErrMissingFields
	}
	if !req.GoalAmount.IsPositive() {
		return apperr.ErrInvalidGoal
	}
	if req.CreatorID == req.RecipientID {
		return apperr.ErrSelfGift
	}
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	if req.Currency == "" {
		req.Currency = DefaultCurrency
	}
	if len(req.Currency) != 3 {
		return apperr.ErrInvalidCurrency
	}
	return nil
}
