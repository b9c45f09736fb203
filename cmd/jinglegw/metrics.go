// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"mellium.im/jingle"
	"mellium.im/jingle/call"
	"mellium.im/jingle/gateway"
	"mellium.im/jingle/presence"
)

func registerStats() {
	jingle.RegisterStats()
	presence.RegisterStats()
	call.RegisterStats()
	gateway.RegisterStats()
}

func newMetricsRouter() *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}

// serveMetrics starts the metrics endpoint in the background.
// It returns nil if addr is empty.
func serveMetrics(addr string, logger zerolog.Logger) *http.Server {
	registerStats()
	if addr == "" {
		return nil
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           newMetricsRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", addr).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server error")
		}
	}()
	return srv
}
