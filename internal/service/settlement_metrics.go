/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package service

import "github.com/prometheus/client_golang/prometheus"

// Outcomes of a settlement attempt
const (
	OutcomeSettled  = "settled"
	OutcomeReplayed = "replayed"
	OutcomeIgnored  = "ignored"
	OutcomeFailed   = "failed"
)

// SettlementMetrics counts settlement attempts by kind (vaca, gift, vaca_gift) and outcome
type SettlementMetrics struct {
	settlements *prometheus.CounterVec
}

// NewSettlementMetrics registers the counters on reg. A nil reg keeps them unregistered (tests).
func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	m := &SettlementMetrics{
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jesstore_settlements_total",
			Help: "Payment settlements by reference kind and outcome.",
		}, []string{"kind", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.settlements)
	}
	return m
}

func (m *SettlementMetrics) observe(kind, outcome string) {
	if m == nil {
		return
	}
	m.settlements.WithLabelValues(kind, outcome).Inc()
}
