/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package payment

import (
	"strconv"
	"strings"
	"time"

	"jesstore/internal/apperr"

	"github.com/pkg/errors"
)

// Kind tells which record a payment reference settles
type Kind string

const (
	KindVaca     Kind = "vaca"      // A contribution of one user to a bag
	KindGift     Kind = "gift"      // A gift bought directly
	KindVacaGift Kind = "vaca_gift" // The gift created together with a bag
)

const vacaGiftPrefix = "vaca_gift_"

// Reference is a parsed external reference
type Reference struct {
	Kind   Kind
	Raw    string
	BagID  string
	UserID string
	GiftID string
}

// VacaReference correlates a payment with the contribution of userID to bagID
func VacaReference(bagID, userID string) string {
	return "vaca:" + bagID + ":" + userID
}

// GiftReference correlates a payment with a direct gift
func GiftReference(giftID string) string {
	return "gift:" + giftID
}

// VacaGiftReference is stamped on the gift of a new vaca
func VacaGiftReference(at time.Time) string {
	return vacaGiftPrefix + strconv.FormatInt(at.UnixNano(), 10)
}

// ParseReference recognises the three reference layouts. Anything else is apperr.ErrUnknownReference.
func ParseReference(s string) (Reference, error) {
	s = strings.TrimSpace(s)
	ref := Reference{Raw: s}

	switch {
	case strings.HasPrefix(s, vacaGiftPrefix):
		if len(s) == len(vacaGiftPrefix) {
			break
		}
		ref.Kind = KindVacaGift
		return ref, nil

	case strings.HasPrefix(s, "vaca:"):
		parts := strings.Split(s, ":")
		if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
			break
		}
		ref.Kind, ref.BagID, ref.UserID = KindVaca, parts[1], parts[2]
		return ref, nil

	case strings.HasPrefix(s, "gift:"):
		id := strings.TrimPrefix(s, "gift:")
		if id == "" || strings.Contains(id, ":") {
			break
		}
		ref.Kind, ref.GiftID = KindGift, id
		return ref, nil
	}
	return ref, errors.Wrapf(apperr.ErrUnknownReference, "reference %q", s)
}
