/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type GiftStatus string

const (
	GiftPending GiftStatus = "pending"
	GiftPaid    GiftStatus = "paid"
)

// Gift is a product bought by one user for another, either directly or through a vaca (BagID set).
// It goes from pending to paid exactly once, through the payment webhook or a JES Coins debit.
type Gift struct {
	ID                string          `gorm:"primaryKey" json:"id"`
	SenderID          string          `gorm:"not null;index" json:"senderId"`
	RecipientID       string          `gorm:"not null;index" json:"recipientId"`
	ProductHandle     string          `gorm:"not null" json:"productHandle"`
	ProductTitle      string          `json:"productTitle"`
	ProductImage      string          `json:"productImage"`
	Amount            decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Currency          string          `gorm:"size:3;not null" json:"currency"`
	Message           string          `json:"message,omitempty"`
	ExternalReference string          `gorm:"not null;uniqueIndex" json:"externalReference"`
	BagID             *string         `gorm:"index" json:"bagId,omitempty"`
	Status            GiftStatus      `gorm:"size:16;not null;default:pending;index" json:"status"`
	PaymentID         string          `json:"paymentId,omitempty"`
	CreatedAt         time.Time       `gorm:"not null" json:"createdAt"`
	PaidAt            *time.Time      `json:"paidAt,omitempty"`
}
