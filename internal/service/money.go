/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package service

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const DefaultCurrency = "COP"

// ContributionShare is what each contributor pays: ceil(goal / (participantCount + 1)), where participantCount
// does not include the creator. Rounding up keeps the sum of the shares at or above the goal.
func ContributionShare(goal decimal.Decimal, participantCount int) decimal.Decimal {
	if !goal.IsPositive() {
		return decimal.Zero
	}
	if participantCount < 0 {
		participantCount = 0
	}
	return goal.Div(decimal.NewFromInt(int64(participantCount + 1))).Ceil()
}

var spanish = message.NewPrinter(language.Spanish)

// FormatAmount renders an amount the way the storefront shows prices: "$100.000 COP", cents only when present
func FormatAmount(amount decimal.Decimal, currency string) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	if amount.Equal(amount.Truncate(0)) {
		return spanish.Sprintf("$%d %s", amount.IntPart(), currency)
	}
	return spanish.Sprintf("$%.2f %s", amount.InexactFloat64(), currency)
}

const (
	goalMessageFormat      = "🎯 Meta de la vaca: %s"
	recipientMessageFormat = "🎁 Regalo para: %s"
	recipientFallbackName  = "alguien especial"
)
