// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jingle

import (
	"github.com/prometheus/client_golang/prometheus"

	"mellium.im/jingle/internal/metrics"
)

var (
	statsSessionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: "session",
		Name:      "created_total",
		Help:      "The total number of sessions created",
	}, []string{"dialect", "direction"})
	statsSessionsCurrent = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metrics.Namespace,
		Subsystem: "session",
		Name:      "sessions",
		Help:      "The current number of sessions tracked by managers",
	})
	statsStateTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: "session",
		Name:      "state_transitions_total",
		Help:      "The total number of session state transitions",
	}, []string{"state"})
	statsMessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: "session",
		Name:      "messages_total",
		Help:      "The total number of signaling messages",
	}, []string{"action", "direction"})
	statsRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: "session",
		Name:      "rejected_total",
		Help:      "The total number of inbound messages rejected",
	}, []string{"condition"})
	statsNoReplyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: "session",
		Name:      "no_reply_total",
		Help:      "The total number of requests released without a reply",
	}, []string{"action"})

	sessionStats = []prometheus.Collector{
		statsSessionsTotal,
		statsSessionsCurrent,
		statsStateTransitionsTotal,
		statsMessagesTotal,
		statsRejectedTotal,
		statsNoReplyTotal,
	}
)

// RegisterStats registers the session collectors with the default prometheus
// registerer.
func RegisterStats() {
	metrics.RegisterAll(sessionStats...)
}

// UnregisterStats removes the session collectors.
func UnregisterStats() {
	metrics.UnregisterAll(sessionStats...)
}
