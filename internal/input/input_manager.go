/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package input

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"jesstore/internal/handler"
	"jesstore/internal/middleware"
	"jesstore/internal/nlog"
	"jesstore/internal/service"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type IptConfig struct {
	ServerPort    uint16
	ReadTimeout   int64
	WriteTimeout  int64
	SecretKey     string
	SecureCookies bool
}

// Services are the ones the HTTP API is served by
type Services struct {
	Auth         service.AuthService
	User         service.UserService
	Vaca         service.VacaService
	Contribution service.ContributionService
	Gift         service.GiftService
	Wallet       service.WalletService
	Message      service.MessageService
	Settlement   service.SettlementService
}

func (s *Services) complete() bool {
	return s.Auth != nil && s.User != nil && s.Vaca != nil && s.Contribution != nil &&
		s.Gift != nil && s.Wallet != nil && s.Message != nil && s.Settlement != nil
}

// Pinger tells whether the storage is reachable
type Pinger interface {
	Ping() error
}

type InputManager struct { // Manages HTTP input
	running atomic.Bool
	paused  atomic.Bool

	logger   nlog.Logger
	server   *http.Server
	registry *prometheus.Registry

	stopFromOutsideChan chan struct{}
	doneFromInsideChan  chan struct{}

	services Services
	health   Pinger
}

func NewInputManager() *InputManager {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &InputManager{
		running:             atomic.Bool{},
		paused:              atomic.Bool{},
		registry:            registry,
		stopFromOutsideChan: make(chan struct{}),
		doneFromInsideChan:  make(chan struct{}),
	}
}

func (i *InputManager) IsReady() bool {
	return i.logger != nil && i.health != nil && i.services.complete()
}

func (i *InputManager) IsRunning() bool {
	return i.running.Load()
}

func (i *InputManager) SetLogger(l nlog.Logger) {
	i.logger = l
}

func (i *InputManager) SetServices(s Services) {
	i.services = s
}

func (i *InputManager) SetHealthCheck(p Pinger) {
	i.health = p
}

// Registry is where every metric of the process goes, served on /metrics
func (i *InputManager) Registry() *prometheus.Registry {
	return i.registry
}

func (i *InputManager) Logf(format string, a ...any) {
	i.logger.Logf(format, a...)
}

func (i *InputManager) SetPause(paused bool) {
	i.paused.Store(paused)
}

func (i *InputManager) IsPaused() bool {
	return i.paused.Load()
}

// PauseMiddleware answers 503 while the manager is paused
func (i *InputManager) PauseMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if i.IsPaused() {
			w.Header().Set("Retry-After", "5")
			http.Error(w, "Service temporarily unavailable", http.StatusServiceUnavailable)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func newCookieStore(cfg *IptConfig) *sessions.CookieStore {
	cookieStore := sessions.NewCookieStore([]byte(cfg.SecretKey))
	cookieStore.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(7 * 24 * time.Hour.Seconds()),
	}
	return cookieStore
}

// Handler builds the router with every route of the API. It registers the HTTP metrics, so it is meant to be called once.
func (i *InputManager) Handler(cfg *IptConfig) (http.Handler, error) {
	if !i.IsReady() {
		return nil, errors.New("The Input manager is not ready... Missing components")
	}

	cookieStore := newCookieStore(cfg)
	metrics := middleware.NewMetrics(i.registry)
	s := i.services

	// Handlers
	authHandler := handler.NewAuthHandler(s.Auth, cookieStore)
	userHandler := handler.NewUserHandler(s.User)
	vacaHandler := handler.NewVacaHandler(s.Vaca, s.Contribution, s.Wallet)
	giftHandler := handler.NewGiftHandler(s.Gift, s.Wallet)
	walletHandler := handler.NewWalletHandler(s.Wallet)
	messageHandler := handler.NewMessageHandler(s.Message)
	webhookHandler := handler.NewWebhookHandler(s.Settlement)

	protected := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.AuthMiddleware(cookieStore, h)
	}

	// Router
	r := mux.NewRouter()
	r.Use(metrics.Middleware)

	r.Handle("/metrics", promhttp.HandlerFor(i.registry, promhttp.HandlerOpts{})).Methods("GET")
	r.HandleFunc("/healthz", i.healthz).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(i.PauseMiddleware)

	// Authentication routes
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	api.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST")

	// User routes
	api.HandleFunc("/users/{id}", protected(userHandler.GetUser)).Methods("GET")
	api.HandleFunc("/users/{id}", protected(userHandler.DeleteUser)).Methods("DELETE")

	// Vaca routes
	api.HandleFunc("/vaca", protected(vacaHandler.Create)).Methods("POST")
	api.HandleFunc("/vaca", protected(vacaHandler.List)).Methods("GET")
	api.HandleFunc("/vaca/{id}", protected(vacaHandler.Get)).Methods("GET")
	api.HandleFunc("/vaca/{id}/contributions", protected(vacaHandler.Contribute)).Methods("POST")
	api.HandleFunc("/vaca/{id}/contributions/coins", protected(vacaHandler.ContributeCoins)).Methods("POST")

	// Gift and wallet routes
	api.HandleFunc("/gifts", protected(giftHandler.Create)).Methods("POST")
	api.HandleFunc("/gifts/{id}", protected(giftHandler.Get)).Methods("GET")
	api.HandleFunc("/gifts/{id}/pay/coins", protected(giftHandler.PayCoins)).Methods("POST")
	api.HandleFunc("/wallet", protected(walletHandler.Balance)).Methods("GET")

	// Conversation routes
	api.HandleFunc("/conversations", protected(messageHandler.ListConversations)).Methods("GET")
	api.HandleFunc("/conversations/direct/{userId}", protected(messageHandler.OpenDirect)).Methods("POST")
	api.HandleFunc("/conversations/{id}/messages", protected(messageHandler.GetMessages)).Methods("GET")
	api.HandleFunc("/conversations/{id}/messages", protected(messageHandler.SendMessage)).Methods("POST")

	// Payment notifications
	api.HandleFunc("/webhooks/mercadopago", webhookHandler.MercadoPago).Methods("POST")

	return r, nil
}

func (i *InputManager) healthz(w http.ResponseWriter, _ *http.Request) {
	if err := i.health.Ping(); err != nil {
		i.Logf("Health check failed {%v}", err)
		http.Error(w, "database unreachable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (i *InputManager) Run(ctx context.Context, cfg *IptConfig) error {
	i.Logf("Input service started...")

	h, err := i.Handler(cfg)
	if err != nil {
		return err
	}

	i.server = &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:        h,
		ReadTimeout:    time.Duration(cfg.ReadTimeout * int64(time.Second)),
		WriteTimeout:   time.Duration(cfg.WriteTimeout * int64(time.Second)),
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		select {
		case <-ctx.Done():
			i.Logf("Received stop signal. Shutting down...")
		case <-i.stopFromOutsideChan:
			i.Logf("Server was asked to stop. Shutting down...")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := i.server.Shutdown(shutdownCtx); err != nil {
			i.Logf("Error during shutdown... %v", err)
		}
		close(i.doneFromInsideChan)
	}()

	i.Logf("Http server starting on port {%d}", cfg.ServerPort)
	i.running.Store(true)

	if err := i.server.ListenAndServe(); err != http.ErrServerClosed {
		i.running.Store(false)
		i.Logf("FATAL: HTTP Server error{%v}", err)
		return err
	}
	<-i.doneFromInsideChan
	i.running.Store(false)
	return nil
}

// Stop asks the server to shut down and waits for it
func (i *InputManager) Stop() {
	close(i.stopFromOutsideChan)
	<-i.doneFromInsideChan
	i.running.Store(false)
}
