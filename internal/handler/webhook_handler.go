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

	"github.com/pkg/errors"
)

type notificationFields struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// WebhookHandler receives the Mercado Pago payment notifications
type WebhookHandler struct {
	settlementService service.SettlementService
}

func NewWebhookHandler(settlementService service.SettlementService) *WebhookHandler {
	return &WebhookHandler{settlementService}
}

// Settles the payment the notification is about. Replays, foreign references and topics other than payment answer 200.
func (h *WebhookHandler) MercadoPago(w http.ResponseWriter, r *http.Request) {
	topic, paymentID, err := parseNotification(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	if topic != "payment" {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}
	if paymentID == "" {
		writeError(w, apperr.InvalidArg("payment id is required"))
		return
	}

	err = h.settlementService.HandlePaymentNotification(r.Context(), paymentID)
	switch {
	case errors.Is(err, apperr.ErrUnknownReference):
		// Not one of ours: any other answer makes the gateway redeliver it forever
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	case err != nil:
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// The legacy IPN format carries everything in the query, the current one in the body
func parseNotification(w http.ResponseWriter, r *http.Request) (string, string, error) {
	query := r.URL.Query()
	if topic := query.Get("topic"); topic != "" {
		return topic, query.Get("id"), nil
	}

	var body notificationFields
	if err := decodeJSON(w, r, &body); err != nil {
		return "", "", err
	}
	if body.Data.ID == "" {
		body.Data.ID = query.Get("data.id")
	}
	return body.Type, body.Data.ID, nil
}
