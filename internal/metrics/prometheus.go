// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package metrics contains helpers shared by the stats of all packages.
package metrics // import "mellium.im/jingle/internal/metrics"

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace is the prometheus namespace of every collector in the module.
const Namespace = "jingle"

// RegisterAll registers cs with the default registerer.
// Collectors that are already registered are skipped, any other error panics.
func RegisterAll(cs ...prometheus.Collector) {
	for _, c := range cs {
		if err := prometheus.DefaultRegisterer.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				panic(err)
			}
		}
	}
}

// UnregisterAll removes cs from the default registerer.
func UnregisterAll(cs ...prometheus.Collector) {
	for _, c := range cs {
		prometheus.Unregister(c)
	}
}
