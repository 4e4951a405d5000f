/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package input

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"jesstore/internal/chatcrypt"
	"jesstore/internal/data"
	"jesstore/internal/entity"
	"jesstore/internal/payment"
	"jesstore/internal/service"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockLogger struct{}

func (m *MockLogger) Logf(format string, v ...any) {
	fmt.Printf(format+"\n", v...)
}

type fakeGateway struct {
	mu       sync.Mutex
	prefs    int
	payments map[string]*payment.Payment
}

func (g *fakeGateway) CreatePreference(context.Context, payment.Preference) (*payment.CheckoutLink, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prefs++
	id := fmt.Sprintf("pref-%d", g.prefs)
	return &payment.CheckoutLink{PreferenceID: id, InitPoint: "https://mp.example/" + id}, nil
}

func (g *fakeGateway) GetPayment(_ context.Context, id string) (*payment.Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if p, ok := g.payments[id]; ok {
		return p, nil
	}
	return nil, errors.Errorf("payment %s not found", id)
}

func TestPauseMiddlewareOn(t *testing.T) {
	i := NewInputManager()

	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Called despite being paused!")
	})

	toTest := i.PauseMiddleware(nextHandler)

	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()

	i.SetPause(true)

	toTest.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", rr.Code)
	}
}

func TestPauseMiddlewareOff(t *testing.T) {
	i := NewInputManager()

	called := false
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	toTest := i.PauseMiddleware(nextHandler)

	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()

	toTest.ServeHTTP(rr, req)

	if rr.Code == http.StatusServiceUnavailable {
		t.Errorf("Got 503, expected 200")
	}
	if !called {
		t.Errorf("Pause middleware blocked the request despite not being paused")
	}
}

func TestHandlerNeedsComponents(t *testing.T) {
	i := NewInputManager()
	_, err := i.Handler(&IptConfig{SecretKey: "k"})
	assert.Error(t, err)
	assert.False(t, i.IsReady())
}

// testAPI is a running API over an in-memory database
type testAPI struct {
	server  *httptest.Server
	manager *InputManager
	gateway *fakeGateway
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	dsn := fmt.Sprintf("file:api_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := data.OpenDatabase(data.DriverSQLite, dsn, nil)
	require.NoError(t, err)
	require.NoError(t, data.Migrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	storage := data.NewStorageManager(db)
	t.Cleanup(func() { storage.Close() })

	gateway := &fakeGateway{payments: map[string]*payment.Payment{}}
	manager := NewInputManager()
	manager.SetLogger(&MockLogger{})
	manager.SetHealthCheck(storage)
	manager.SetServices(BuildServices(storage, ServiceDeps{
		Gateway:       gateway,
		Sealer:        chatcrypt.NewCipher(""),
		Metrics:       service.NewSettlementMetrics(manager.Registry()),
		PublicBaseURL: "https://jes.example",
		SignupCoins:   decimal.NewFromInt(1000),
	}))

	h, err := manager.Handler(&IptConfig{SecretKey: "test-secret-key-32-bytes-long!!!"})
	require.NoError(t, err)
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	return &testAPI{server: server, manager: manager, gateway: gateway}
}

// client is one browser: its own cookie jar, so its own session
type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func (a *testAPI) client(t *testing.T) *client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, base: a.server.URL, http: &http.Client{Jar: jar}}
}

// do sends body as JSON and decodes the answer into out when given, returning the status code
func (c *client) do(method, path string, body, out any) int {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// signup registers and logs in a new user
func (c *client) signup(username string) entity.User {
	c.t.Helper()
	creds := map[string]string{"username": username, "password": "secret", "displayName": strings.ToUpper(username)}
	var user entity.User
	require.Equal(c.t, http.StatusCreated, c.do("POST", "/api/auth/register", creds, &user))
	require.Equal(c.t, http.StatusOK, c.do("POST", "/api/auth/login", creds, nil))
	return user
}

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t)
	ana := api.client(t)

	assert.Equal(t, http.StatusUnauthorized, ana.do("GET", "/api/wallet", nil, nil))

	user := ana.signup("ana")
	var wallet entity.Wallet
	require.Equal(t, http.StatusOK, ana.do("GET", "/api/wallet", nil, &wallet))
	assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(1000)))

	assert.Equal(t, http.StatusConflict, ana.do("POST", "/api/auth/register", map[string]string{"username": "ana", "password": "x"}, nil))
	assert.Equal(t, http.StatusUnauthorized, api.client(t).do("POST", "/api/auth/login", map[string]string{"username": "ana", "password": "nope"}, nil))

	var profile entity.User
	require.Equal(t, http.StatusOK, ana.do("GET", "/api/users/"+user.ID, nil, &profile))
	assert.Equal(t, "ana", profile.Username)

	assert.Equal(t, http.StatusNoContent, ana.do("POST", "/api/auth/logout", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, ana.do("GET", "/api/wallet", nil, nil))
}

func TestVacaFlow(t *testing.T) {
	api := newTestAPI(t)
	anaC, betoC, carlaC := api.client(t), api.client(t), api.client(t)
	ana, beto, carla := anaC.signup("ana"), betoC.signup("beto"), carlaC.signup("carla")

	body := map[string]any{
		"creatorId": beto.ID, "recipientId": beto.ID, "participantIds": []string{carla.ID},
		"productHandle": "reloj", "productTitle": "Reloj", "goalAmount": 1000, "currency": "COP",
	}
	assert.Equal(t, http.StatusForbidden, anaC.do("POST", "/api/vaca", body, nil))

	body["creatorId"] = ana.ID
	var created service.PooledGift
	require.Equal(t, http.StatusCreated, anaC.do("POST", "/api/vaca", body, &created))
	require.NotNil(t, created.Bag)
	require.NotNil(t, created.Conversation)

	delete(body, "productHandle")
	assert.Equal(t, http.StatusBadRequest, anaC.do("POST", "/api/vaca", body, nil))

	var summary service.BagSummary
	require.Equal(t, http.StatusOK, carlaC.do("GET", "/api/vaca/"+created.Bag.ID, nil, &summary))
	assert.True(t, summary.Share.Equal(decimal.NewFromInt(500)))
	assert.True(t, summary.Remaining.Equal(decimal.NewFromInt(1000)))

	// Carla pays her share through the gateway
	var checkout service.ContributionCheckout
	require.Equal(t, http.StatusCreated, carlaC.do("POST", "/api/vaca/"+created.Bag.ID+"/contributions", nil, &checkout))
	assert.NotEmpty(t, checkout.InitPoint)
	assert.Equal(t, payment.VacaReference(created.Bag.ID, carla.ID), checkout.Contribution.ExternalReference)

	api.gateway.payments["p-1"] = &payment.Payment{
		ID: "p-1", Status: payment.StatusApproved, ExternalReference: checkout.Contribution.ExternalReference,
		Amount: decimal.NewFromInt(500),
	}
	notification := map[string]any{"type": "payment", "data": map[string]string{"id": "p-1"}}
	webhook := api.client(t)
	assert.Equal(t, http.StatusOK, webhook.do("POST", "/api/webhooks/mercadopago", notification, nil))
	assert.Equal(t, http.StatusOK, webhook.do("POST", "/api/webhooks/mercadopago", notification, nil))
	assert.Equal(t, http.StatusOK, webhook.do("POST", "/api/webhooks/mercadopago?topic=merchant_order&id=9", nil, nil))

	// A payment for another integration of the same account
	api.gateway.payments["p-2"] = &payment.Payment{
		ID: "p-2", Status: payment.StatusApproved, ExternalReference: "order-77", Amount: decimal.NewFromInt(10),
	}
	assert.Equal(t, http.StatusOK, webhook.do("POST", "/api/webhooks/mercadopago?topic=payment&id=p-2", nil, nil))

	// Ana pays part of hers with coins
	var paid entity.BagContribution
	require.Equal(t, http.StatusCreated, anaC.do("POST", "/api/vaca/"+created.Bag.ID+"/contributions/coins", map[string]any{"amount": 300}, &paid))
	assert.Equal(t, entity.ContributionPaid, paid.Status)

	// The recipient is not a contributor
	assert.Equal(t, http.StatusForbidden, betoC.do("POST", "/api/vaca/"+created.Bag.ID+"/contributions", nil, nil))

	require.Equal(t, http.StatusOK, anaC.do("GET", "/api/vaca/"+created.Bag.ID, nil, &summary))
	assert.True(t, summary.Total.Equal(decimal.NewFromInt(800)))
	assert.True(t, summary.Remaining.Equal(decimal.NewFromInt(200)))

	var bags []entity.Bag
	require.Equal(t, http.StatusOK, carlaC.do("GET", "/api/vaca", nil, &bags))
	assert.Len(t, bags, 1)
	require.Equal(t, http.StatusOK, betoC.do("GET", "/api/vaca", nil, &bags))
	assert.Empty(t, bags)

	// Settlements show up in the metrics
	resp, err := http.Get(api.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `jesstore_settlements_total{kind="vaca",outcome="settled"} 2`)
	assert.Contains(t, string(raw), `jesstore_settlements_total{kind="vaca",outcome="replayed"} 1`)
	assert.Contains(t, string(raw), `jesstore_settlements_total{kind="unknown",outcome="ignored"} 1`)
	assert.Contains(t, string(raw), `jesstore_http_requests_total{code="201",method="POST",route="/api/vaca"} 1`)
}

func TestGiftAndChatFlow(t *testing.T) {
	api := newTestAPI(t)
	anaC, betoC, carlaC := api.client(t), api.client(t), api.client(t)
	_, beto, _ := anaC.signup("ana"), betoC.signup("beto"), carlaC.signup("carla")

	var checkout service.GiftCheckout
	require.Equal(t, http.StatusCreated, anaC.do("POST", "/api/gifts", map[string]any{
		"recipientId": beto.ID, "productHandle": "taza", "amount": 400, "method": "coins",
	}, &checkout))
	assert.Empty(t, checkout.InitPoint)

	giftPath := "/api/gifts/" + checkout.Gift.ID
	assert.Equal(t, http.StatusForbidden, carlaC.do("GET", giftPath, nil, nil))
	assert.Equal(t, http.StatusForbidden, betoC.do("POST", giftPath+"/pay/coins", nil, nil))

	var gift entity.Gift
	require.Equal(t, http.StatusOK, anaC.do("POST", giftPath+"/pay/coins", nil, &gift))
	assert.Equal(t, entity.GiftPaid, gift.Status)
	assert.Equal(t, http.StatusConflict, anaC.do("POST", giftPath+"/pay/coins", nil, nil))

	var wallet entity.Wallet
	require.Equal(t, http.StatusOK, anaC.do("GET", "/api/wallet", nil, &wallet))
	assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(600)))

	// Direct chat, sealed at rest and opened for the reader
	var conv entity.Conversation
	require.Equal(t, http.StatusOK, anaC.do("POST", "/api/conversations/direct/"+beto.ID, nil, &conv))
	msgPath := "/api/conversations/" + conv.ID + "/messages"

	var sent entity.Message
	require.Equal(t, http.StatusCreated, anaC.do("POST", msgPath, map[string]any{"content": "gracias!", "encrypt": true}, &sent))
	assert.True(t, sent.IsEncrypted)
	assert.NotEqual(t, "gracias!", sent.Content)

	var thread []entity.Message
	require.Equal(t, http.StatusOK, betoC.do("GET", msgPath, nil, &thread))
	require.Len(t, thread, 1)
	assert.Equal(t, "gracias!", thread[0].Content)

	assert.Equal(t, http.StatusForbidden, carlaC.do("GET", msgPath, nil, nil))
	assert.Equal(t, http.StatusBadRequest, anaC.do("POST", msgPath, map[string]any{"content": "  "}, nil))

	var views []service.ConversationView
	require.Equal(t, http.StatusOK, betoC.do("GET", "/api/conversations", nil, &views))
	assert.Len(t, views, 1)
}

func TestHealthAndPause(t *testing.T) {
	api := newTestAPI(t)
	c := api.client(t)
	c.signup("ana")

	assert.Equal(t, http.StatusOK, c.do("GET", "/healthz", nil, nil))

	api.manager.SetPause(true)
	assert.Equal(t, http.StatusServiceUnavailable, c.do("GET", "/api/wallet", nil, nil))
	assert.Equal(t, http.StatusOK, c.do("GET", "/healthz", nil, nil))

	api.manager.SetPause(false)
	assert.Equal(t, http.StatusOK, c.do("GET", "/api/wallet", nil, nil))
}
