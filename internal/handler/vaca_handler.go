/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package handler

import (
	"net/http"

	"jesstore/internal/apperr"
	"jesstore/internal/service"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type amountReqFields struct {
	Amount decimal.Decimal `json:"amount"` // Zero or absent means the share
}

// VacaHandler serves pooled gifts and the contributions to them
type VacaHandler struct {
	vacaService         service.VacaService
	contributionService service.ContributionService
	walletService       service.WalletService
}

func NewVacaHandler(vacaService service.VacaService, contributionService service.ContributionService, walletService service.WalletService) *VacaHandler {
	return &VacaHandler{
		vacaService:         vacaService,
		contributionService: contributionService,
		walletService:       walletService,
	}
}

// Creates a vaca: bag, gift and group chat. The creator must be the logged user.
func (h *VacaHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var request service.PooledGiftRequest
	if err := decodeJSON(w, r, &request); err != nil {
		writeError(w, err)
		return
	}
	if request.CreatorID != "" && request.CreatorID != user.ID {
		writeError(w, apperr.ErrWrongCreator)
		return
	}

	created, err := h.vacaService.CreatePooledGift(r.Context(), request)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *VacaHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}

	bag, err := h.vacaService.GetBag(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bag)
}

// Lists the vacas of the logged user
func (h *VacaHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	bags, err := h.vacaService.ListUserBags(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bags)
}

// Starts a Mercado Pago contribution, answering with where to pay it
func (h *VacaHandler) Contribute(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	request, err := decodeAmount(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	checkout, err := h.contributionService.StartContribution(r.Context(), mux.Vars(r)["id"], user.ID, request.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, checkout)
}

// Contributes with JES Coins, settled at once
func (h *VacaHandler) ContributeCoins(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	request, err := decodeAmount(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	contribution, err := h.walletService.PayContribution(r.Context(), mux.Vars(r)["id"], user.ID, request.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, contribution)
}

// The amount body is optional
func decodeAmount(w http.ResponseWriter, r *http.Request) (amountReqFields, error) {
	var request amountReqFields
	if r.ContentLength == 0 {
		return request, nil
	}
	err := decodeJSON(w, r, &request)
	return request, err
}
