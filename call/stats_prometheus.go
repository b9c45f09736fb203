// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package call

import (
	"github.com/prometheus/client_golang/prometheus"

	"mellium.im/jingle/internal/metrics"
)

var (
	statsChannelsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: "call",
		Name:      "channels_total",
		Help:      "The total number of call channels created",
	}, []string{"direction"})
	statsChannelsCurrent = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metrics.Namespace,
		Subsystem: "call",
		Name:      "channels",
		Help:      "The current number of open call channels",
	})
	statsContentsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: "call",
		Name:      "contents_total",
		Help:      "The total number of contents added to call channels after setup",
	}, []string{"media", "disposition"})

	callStats = []prometheus.Collector{
		statsChannelsTotal,
		statsChannelsCurrent,
		statsContentsTotal,
	}
)

// RegisterStats registers the call collectors with the default prometheus
// registerer.
func RegisterStats() {
	metrics.RegisterAll(callStats...)
}

// UnregisterStats removes the call collectors.
func UnregisterStats() {
	metrics.UnregisterAll(callStats...)
}
