/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package input

import (
	"jesstore/internal/data"
	"jesstore/internal/events"
	"jesstore/internal/nlog"
	"jesstore/internal/payment"
	"jesstore/internal/service"

	"github.com/shopspring/decimal"
)

// ServiceDeps are the collaborators the services need besides the storage
type ServiceDeps struct {
	Gateway       payment.Gateway
	Publisher     events.Publisher
	Sealer        service.Sealer
	Metrics       *service.SettlementMetrics
	PublicBaseURL string
	SignupCoins   decimal.Decimal
	Logger        nlog.Logger
	PaymentLogger nlog.Logger // Settlements and checkouts, Logger when nil
	ChatLogger    nlog.Logger // Messaging, Logger when nil
}

// BuildServices wires every service on top of the storage repositories
func BuildServices(storage *data.StorageManager, deps ServiceDeps) Services {
	if deps.Publisher == nil {
		deps.Publisher = events.NopPublisher{}
	}
	if deps.Logger == nil {
		deps.Logger = nlog.Discard
	}
	if deps.PaymentLogger == nil {
		deps.PaymentLogger = deps.Logger
	}
	if deps.ChatLogger == nil {
		deps.ChatLogger = deps.Logger
	}

	users := storage.GetUserRepository()
	bags := storage.GetBagRepository()
	contributions := storage.GetContributionRepository()
	gifts := storage.GetGiftRepository()
	wallets := storage.GetWalletRepository()

	return Services{
		Auth:         service.NewAuthService(users, deps.SignupCoins, deps.Logger),
		User:         service.NewUserService(users, deps.Logger),
		Vaca:         service.NewVacaService(bags, deps.Publisher, deps.Logger),
		Contribution: service.NewContributionService(bags, contributions, deps.Gateway, deps.PublicBaseURL, deps.PaymentLogger),
		Gift:         service.NewGiftService(gifts, deps.Gateway, deps.PublicBaseURL, deps.Logger),
		Wallet:       service.NewWalletService(wallets, gifts, bags, deps.Publisher, deps.Metrics, deps.Logger),
		Message: service.NewMessageService(storage.GetConversationRepository(), storage.GetMessageRepository(),
			users, deps.Sealer, deps.Publisher, deps.ChatLogger),
		Settlement: service.NewSettlementService(contributions, gifts, deps.Gateway, deps.Publisher, deps.Metrics, deps.PaymentLogger),
	}
}
