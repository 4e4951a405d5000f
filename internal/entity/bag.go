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

type ParticipantRole string

const (
	RoleCreator ParticipantRole = "creator"
	RoleMember  ParticipantRole = "member"
)

// Bag is the funding pool behind a vaca: a group of users putting money together for one gift.
type Bag struct {
	ID            string          `gorm:"primaryKey" json:"id"`
	Name          string          `gorm:"not null" json:"name"`
	Description   string          `json:"description"`
	Image         string          `json:"image"`
	GoalAmount    decimal.Decimal `gorm:"type:decimal(20,2);not null;check:goal_amount > 0" json:"goalAmount"`
	Currency      string          `gorm:"size:3;not null" json:"currency"`
	ProductHandle string          `gorm:"not null" json:"productHandle"`
	CreatorID     string          `gorm:"not null;index" json:"creatorId"`
	CreatedAt     time.Time       `gorm:"not null;index" json:"createdAt"`

	Participants []BagParticipant `gorm:"foreignKey:BagID;constraint:OnDelete:CASCADE" json:"participants,omitempty"`

	Total decimal.Decimal `gorm:"-" json:"total"` // Sum of the settled contributions, computed on read
}

// BagParticipant is one contributor of a bag. The gift recipient is never one.
type BagParticipant struct {
	BagID    string          `gorm:"primaryKey" json:"bagId"`
	UserID   string          `gorm:"primaryKey;index" json:"userId"`
	Role     ParticipantRole `gorm:"size:16;not null;default:member" json:"role"`
	JoinedAt time.Time       `gorm:"not null" json:"joinedAt"`
}

type ContributionStatus string

const (
	ContributionPending   ContributionStatus = "pending"
	ContributionCompleted ContributionStatus = "completed" // settled by the payment gateway
	ContributionPaid      ContributionStatus = "paid"      // settled with JES Coins
)

type PaymentMethod string

const (
	MethodMercadoPago PaymentMethod = "mercadopago"
	MethodCoins       PaymentMethod = "coins"
)

// BagContribution is the money one participant puts in a bag
type BagContribution struct {
	ID                string             `gorm:"primaryKey" json:"id"`
	BagID             string             `gorm:"not null;index" json:"bagId"`
	UserID            string             `gorm:"not null;index" json:"userId"`
	Amount            decimal.Decimal    `gorm:"type:decimal(20,2);not null" json:"amount"`
	Status            ContributionStatus `gorm:"size:16;not null;default:pending;index" json:"status"`
	PaymentMethod     PaymentMethod      `gorm:"size:16;not null" json:"paymentMethod"`
	ExternalReference string             `gorm:"not null;index" json:"externalReference"`
	PaymentID         string             `json:"paymentId,omitempty"`
	CreatedAt         time.Time          `gorm:"not null" json:"createdAt"`
	SettledAt         *time.Time         `json:"settledAt,omitempty"`
}

// IsSettled tells whether the contribution counts towards the bag total
func (c *BagContribution) IsSettled() bool {
	return c.Status == ContributionCompleted || c.Status == ContributionPaid
}
