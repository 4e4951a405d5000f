/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

// Package node assembles the store backend: logger, storage, payment gateway, event publisher, services and the HTTP input.
package node

import (
	"context"
	"path/filepath"
	"strings"
	"sync/atomic"

	"jesstore/internal"
	"jesstore/internal/chatcrypt"
	"jesstore/internal/data"
	"jesstore/internal/events"
	"jesstore/internal/input"
	"jesstore/internal/nlog"
	"jesstore/internal/payment"
	"jesstore/internal/service"

	"github.com/pkg/errors"
)

// Subsystems, each one logging to its own file
const (
	LogMain     = "main"
	LogStorage  = "storage"
	LogInput    = "input"
	LogPayments = "payments"
	LogVaca     = "vaca"
	LogChat     = "chat"
)

// StoreNode holds the components of one running backend together
type StoreNode struct {
	ready  atomic.Bool      // Is node ready?
	config *internal.Config // Config struct

	ctx    context.Context    // Context
	cancel context.CancelFunc // Cancel function
	logger *nlog.ServiceLogger
	main   nlog.Logger

	inputMan   *input.InputManager  // Input manager
	storageMan *data.StorageManager // Storage manager
	publisher  events.Publisher     // NATS publisher, or the no-op one
	cipher     *chatcrypt.Cipher    // Chat cipher, owns the key cache
}

// NewStoreNode opens every component described by cfg. Nothing is started until Start.
func NewStoreNode(cfg *internal.Config) (*StoreNode, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	signupCoins, err := cfg.SignupCoinsAmount()
	if err != nil {
		return nil, err
	}

	logger, err := nlog.NewServiceLogger(filepath.Join(cfg.FolderPath, "logs"), cfg.EnableLogging, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	loggers := make(map[string]nlog.Logger)
	for _, name := range []string{LogMain, LogStorage, LogInput, LogPayments, LogVaca, LogChat} {
		l, err := logger.RegisterSubsystem(name)
		if err != nil {
			logger.CloseAll()
			return nil, err
		}
		loggers[name] = l
	}
	mainLogger := loggers[LogMain]

	db, err := data.OpenDatabase(cfg.DBDriver, cfg.DBDSN, loggers[LogStorage])
	if err != nil {
		logger.CloseAll()
		return nil, err
	}
	if err := data.Migrate(db); err != nil {
		logger.CloseAll()
		return nil, err
	}
	storage := data.NewStorageManager(db)
	mainLogger.Logf("Storage ready: driver{%s}", cfg.DBDriver)

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATSURL != "" {
		nats, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			storage.Close()
			logger.CloseAll()
			return nil, errors.Wrap(err, "connecting to NATS")
		}
		publisher = nats
		mainLogger.Logf("Publishing events on %s", cfg.NATSURL)
	}

	inputMan := input.NewInputManager()
	inputMan.SetLogger(loggers[LogInput])
	inputMan.SetHealthCheck(storage)

	metrics := service.NewSettlementMetrics(inputMan.Registry())
	gateway := payment.NewMercadoPagoClient(cfg.MercadoPagoAccessToken, cfg.MercadoPagoBaseURL)
	cipher := chatcrypt.NewCipher(cfg.ChatSalt)

	services := input.BuildServices(storage, input.ServiceDeps{
		Gateway:       gateway,
		Publisher:     publisher,
		Sealer:        cipher,
		Metrics:       metrics,
		PublicBaseURL: cfg.PublicBaseURL,
		SignupCoins:   signupCoins,
		Logger:        loggers[LogVaca],
		PaymentLogger: loggers[LogPayments],
		ChatLogger:    loggers[LogChat],
	})
	inputMan.SetServices(services)

	mainLogger.Logf("Node is all set")

	return &StoreNode{
		config:     cfg,
		logger:     logger,
		main:       mainLogger,
		inputMan:   inputMan,
		storageMan: storage,
		publisher:  publisher,
		cipher:     cipher,
	}, nil
}

// SetContextCancelFunc sets the context the node runs in, making it ready
func (n *StoreNode) SetContextCancelFunc(ctx context.Context, cancel context.CancelFunc) {
	n.ctx = ctx
	n.cancel = cancel
	n.ready.Store(true)
}

// Start runs the logger and serves HTTP until the context is cancelled, then releases everything
func (n *StoreNode) Start() error {
	if !n.ready.Load() {
		return errors.New("Node is not ready. A context must be set.")
	}

	// The logger outlives the node context, so the shutdown itself still gets logged
	logCtx, stopLogs := context.WithCancel(context.Background())
	go n.logger.Run(logCtx)
	n.main.Logf("Node booting up...")

	err := n.inputMan.Run(n.ctx, n.getInputManagerConfig())
	if err != nil && n.cancel != nil {
		n.cancel()
	}
	n.close()
	stopLogs()
	<-n.logger.Done()
	return err
}

func (n *StoreNode) close() {
	if closer, ok := n.publisher.(*events.NATSPublisher); ok {
		if err := closer.Close(); err != nil {
			n.main.Logf("Could not drain NATS connection {%v}", err)
		}
	}
	if err := n.storageMan.Close(); err != nil {
		n.main.Logf("Could not close storage {%v}", err)
	}
	n.cipher.Close()
	n.main.Logf("Node stopped")
}

// getInputManagerConfig returns a struct with input manager configuration
func (n *StoreNode) getInputManagerConfig() *input.IptConfig {
	return &input.IptConfig{
		ServerPort:    n.config.HTTPServerPort,
		ReadTimeout:   n.config.ReadTimeout,
		WriteTimeout:  n.config.WriteTimeout,
		SecretKey:     n.config.SecretKey,
		SecureCookies: strings.HasPrefix(n.config.PublicBaseURL, "https://"),
	}
}
