/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	DefaultBaseURL = "https://api.mercadopago.com"

	StatusApproved = "approved"
)

// Preference is the checkout the user is redirected to
type Preference struct {
	Title           string
	Amount          decimal.Decimal
	Currency        string
	Reference       string
	NotificationURL string
	BackURL         string
}

// CheckoutLink is what the gateway answers to a new preference
type CheckoutLink struct {
	PreferenceID string `json:"preferenceId"`
	InitPoint    string `json:"initPoint"`
}

// Payment is the subset of a gateway payment the settlement needs
type Payment struct {
	ID                string
	Status            string
	ExternalReference string
	Amount            decimal.Decimal
}

// Gateway is the payment provider. Services depend on this, tests replace it.
type Gateway interface {
	CreatePreference(ctx context.Context, pref Preference) (*CheckoutLink, error)
	GetPayment(ctx context.Context, paymentID string) (*Payment, error)
}

// MercadoPagoClient talks to the Mercado Pago REST API with an access token
type MercadoPagoClient struct {
	token   string
	baseURL string
	client  *http.Client
}

type mpItem struct {
	Title      string      `json:"title"`
	Quantity   int         `json:"quantity"`
	UnitPrice  json.Number `json:"unit_price"` // decimal would marshal as a string
	CurrencyID string      `json:"currency_id"`
}

type mpPreferenceRequest struct {
	Items             []mpItem          `json:"items"`
	ExternalReference string            `json:"external_reference"`
	NotificationURL   string            `json:"notification_url,omitempty"`
	BackURLs          map[string]string `json:"back_urls,omitempty"`
}

type mpPreferenceResponse struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}

type mpPaymentResponse struct {
	ID                json.Number     `json:"id"`
	Status            string          `json:"status"`
	ExternalReference string          `json:"external_reference"`
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
}

type mpError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// NewMercadoPagoClient creates a client, baseURL defaults to the public API
func NewMercadoPagoClient(token, baseURL string) *MercadoPagoClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &MercadoPagoClient{
		token:   token,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *MercadoPagoClient) CreatePreference(ctx context.Context, pref Preference) (*CheckoutLink, error) {
	body := mpPreferenceRequest{
		Items: []mpItem{{
			Title:      pref.Title,
			Quantity:   1,
			UnitPrice:  json.Number(pref.Amount.StringFixed(2)),
			CurrencyID: pref.Currency,
		}},
		ExternalReference: pref.Reference,
		NotificationURL:   pref.NotificationURL,
	}
	if pref.BackURL != "" {
		body.BackURLs = map[string]string{"success": pref.BackURL, "pending": pref.BackURL, "failure": pref.BackURL}
	}

	var resp mpPreferenceResponse
	if err := c.do(ctx, http.MethodPost, "/checkout/preferences", body, &resp); err != nil {
		return nil, errors.Wrap(err, "creating preference")
	}
	return &CheckoutLink{PreferenceID: resp.ID, InitPoint: resp.InitPoint}, nil
}

func (c *MercadoPagoClient) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	var resp mpPaymentResponse
	if err := c.do(ctx, http.MethodGet, "/v1/payments/"+url.PathEscape(paymentID), nil, &resp); err != nil {
		return nil, errors.Wrapf(err, "fetching payment %s", paymentID)
	}
	return &Payment{
		ID:                resp.ID.String(),
		Status:            resp.Status,
		ExternalReference: resp.ExternalReference,
		Amount:            resp.TransactionAmount,
	}, nil
}

func (c *MercadoPagoClient) do(ctx context.Context, method, path string, in, out any) error {
	if c.token == "" {
		return errors.New("mercado pago access token not set")
	}

	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "marshal request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr mpError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
			return errors.Errorf("mercado pago: %s (status %d)", apiErr.Message, resp.StatusCode)
		}
		return errors.Errorf("mercado pago: status %d", resp.StatusCode)
	}
	return errors.Wrap(json.Unmarshal(data, out), "decode response")
}
