/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

// Package events announces what happened in the store (a vaca was created, a gift was paid, ...)
// to whoever listens on NATS. Publishing is best-effort: callers log failures and move on.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
)

const SubjectPrefix = "jes."

// Subjects published by the services
const (
	VacaCreated         = "vaca.created"
	GiftPaid            = "gift.paid"
	ContributionSettled = "contribution.settled"
	MessageSent         = "message.sent"
)

// Publisher sends one event on subject
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// Envelope is the JSON body of every event
type Envelope struct {
	Subject    string    `json:"subject"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

// publishConn is the part of *nats.Conn the publisher uses
type publishConn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSPublisher publishes on jes.<subject>
type NATSPublisher struct {
	conn publishConn
}

// NewNATSPublisher connects to url. The connection reconnects on its own, events published while it is down are lost.
func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("jesstore"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, errors.Wrap(err, "connect to NATS")
	}
	return &NATSPublisher{conn: conn}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(Envelope{Subject: subject, OccurredAt: time.Now().UTC(), Data: payload})
	if err != nil {
		return errors.Wrapf(err, "marshal %s event", subject)
	}
	return errors.Wrapf(p.conn.Publish(SubjectPrefix+subject, data), "publish %s", subject)
}

// Close flushes pending events and closes the connection
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

// NopPublisher drops every event, used when no NATS url is configured
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
