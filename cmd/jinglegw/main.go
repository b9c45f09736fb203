// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// The jinglegw command signs in to an XMPP account and handles Jingle and
// Google Talk call signaling for it.
// Channel events are published to NATS and metrics are served over HTTP.
//
// For more information try running:
//
//	jinglegw -help
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"mellium.im/jingle/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	var configPath string
	flags := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flags.Usage = func() {
		fmt.Fprintf(flags.Output(), "Usage of %s:\n", flags.Name())
		fmt.Fprintf(flags.Output(), "\n  Settings may be overridden with $%s_<KEY> environment variables.\n\n", config.EnvPrefix)
		flags.PrintDefaults()
	}
	flags.StringVar(&configPath, "config", configPath, "path to the YAML configuration file")
	switch err := flags.Parse(os.Args[1:]); err {
	case flag.ErrHelp:
		return
	case nil:
	default:
		log.Fatal().Err(err).Msg("bad flags")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if !cfg.Log.Console {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	lvl, err := cfg.LogLevel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set log level")
	}
	zerolog.SetGlobalLevel(lvl)

	metrics := serveMetrics(cfg.Metrics.Listen, log.Logger)

	if err := run(ctx, cfg, log.Logger); err != nil {
		log.Error().Err(err).Msg("gateway stopped")
	}

	if metrics != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metrics.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server forced to shutdown")
		}
	}
	log.Info().Msg("exited")
}
