// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package gateway

import (
	"github.com/prometheus/client_golang/prometheus"

	"mellium.im/jingle/internal/metrics"
)

var (
	statsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metrics.Namespace,
		Subsystem: "gateway",
		Name:      "requests_in_flight",
		Help:      "The current number of IQ requests awaiting a response",
	})
	statsRoundTripSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metrics.Namespace,
		Subsystem: "gateway",
		Name:      "roundtrip_seconds",
		Help:      "The time until an IQ request was answered",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"action", "result"})
	statsInboundTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: "gateway",
		Name:      "inbound_total",
		Help:      "The total number of inbound stanzas handled",
	}, []string{"stanza", "result"})
	statsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: "gateway",
		Name:      "published_total",
		Help:      "The total number of channel events published",
	}, []string{"event"})

	gatewayStats = []prometheus.Collector{
		statsInFlight,
		statsRoundTripSeconds,
		statsInboundTotal,
		statsPublishedTotal,
	}
)

// RegisterStats registers the gateway collectors with the default prometheus
// registerer.
func RegisterStats() {
	metrics.RegisterAll(gatewayStats...)
}

// UnregisterStats removes the gateway collectors.
func UnregisterStats() {
	metrics.UnregisterAll(gatewayStats...)
}
