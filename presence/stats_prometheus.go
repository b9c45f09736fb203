// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package presence

import (
	"github.com/prometheus/client_golang/prometheus"

	"mellium.im/jingle/internal/metrics"
)

var (
	statsUpdatesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: "presence",
		Name:      "updates_total",
		Help:      "The total number of presence updates applied",
	}, []string{"result"})
	statsContactsCurrent = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metrics.Namespace,
		Subsystem: "presence",
		Name:      "contacts",
		Help:      "The current number of contacts with cached presence",
	})

	presenceStats = []prometheus.Collector{
		statsUpdatesTotal,
		statsContactsCurrent,
	}
)

// RegisterStats registers the presence collectors with the default prometheus
// registerer.
func RegisterStats() {
	metrics.RegisterAll(presenceStats...)
}

// UnregisterStats removes the presence collectors.
func UnregisterStats() {
	metrics.UnregisterAll(presenceStats...)
}
