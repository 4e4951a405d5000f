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

// Wallet holds the JES Coins balance of a user
type Wallet struct {
	UserID    string          `gorm:"primaryKey" json:"userId"`
	Balance   decimal.Decimal `gorm:"type:decimal(20,2);not null;check:balance >= 0" json:"balance"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// CoinTransaction is one movement of a wallet; debits are negative
type CoinTransaction struct {
	ID        string          `gorm:"primaryKey" json:"id"`
	UserID    string          `gorm:"not null;index" json:"userId"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Reference string          `gorm:"not null;index" json:"reference"`
	CreatedAt time.Time       `gorm:"not null" json:"createdAt"`
}
