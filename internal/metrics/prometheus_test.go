// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"mellium.im/jingle/internal/metrics"
)

func TestRegistration(t *testing.T) {
	collectors := []prometheus.Collector{
		prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "test",
			Name:      "value_total",
			Help:      "Total value.",
		}),
		prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metrics.Namespace,
			Subsystem: "test",
			Name:      "value",
			Help:      "Current value.",
		}, []string{"foo"}),
	}
	metrics.UnregisterAll(collectors...)
	metrics.RegisterAll(collectors...)
	metrics.RegisterAll(collectors...)
	metrics.UnregisterAll(collectors...)
}

func TestRegistrationError(t *testing.T) {
	defer func() {
		value := recover()
		if err, ok := value.(error); assert.True(t, ok) {
			assert.ErrorContains(t, err, "is not a valid metric name")
		}
	}()

	metrics.RegisterAll(prometheus.NewCounter(prometheus.CounterOpts{}))
}
