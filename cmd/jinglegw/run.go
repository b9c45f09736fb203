// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"crypto/tls"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"mellium.im/sasl"
	"mellium.im/xmlstream"
	"mellium.im/xmpp"
	"mellium.im/xmpp/stanza"

	"mellium.im/jingle/call"
	"mellium.im/jingle/gateway"
	"mellium.im/jingle/handle"
	"mellium.im/jingle/internal/config"
	"mellium.im/jingle/internal/loop"
	"mellium.im/jingle/internal/ns"
	"mellium.im/jingle/presence"
)

const capsNode = "https://mellium.im/jingle"

// capsExt are the legacy capability bundles advertised in our presence.
const capsExt = "voice-v1 video-v1 jingle-audio jingle-video"

func initialPresence() xml.TokenReader {
	return stanza.Presence{Type: stanza.AvailablePresence}.Wrap(xmlstream.Wrap(nil, xml.StartElement{
		Name: xml.Name{Space: ns.Caps, Local: "c"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "node"}, Value: capsNode},
			{Name: xml.Name{Local: "ver"}, Value: "1.0"},
			{Name: xml.Name{Local: "ext"}, Value: capsExt},
		},
	}))
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	addr, err := cfg.Address()
	if err != nil {
		return err
	}
	langs, err := cfg.LanguageTags()
	if err != nil {
		return err
	}

	dialCtx, dialCancel := context.WithTimeout(ctx, 30*time.Second)
	session, err := xmpp.DialClientSession(dialCtx, addr,
		xmpp.BindResource(),
		xmpp.StartTLS(&tls.Config{
			ServerName: addr.Domain().String(),
			MinVersion: tls.VersionTLS12,
		}),
		xmpp.SASL("", cfg.Password, sasl.ScramSha1Plus, sasl.ScramSha1, sasl.Plain),
	)
	dialCancel()
	if err != nil {
		return fmt.Errorf("error establishing a session: %w", err)
	}
	logger = logger.With().Str("local", session.LocalAddr().String()).Logger()
	defer func() {
		if err := session.Close(); err != nil {
			logger.Debug().Err(err).Msg("error closing session")
		}
		if err := session.Conn().Close(); err != nil {
			logger.Debug().Err(err).Msg("error closing connection")
		}
	}()

	l := loop.New(cfg.QueueSize, logger)
	defer l.Close()

	handles := handle.NewRepo()
	cache := presence.NewCache(logger)
	gw := gateway.New(gateway.Config{
		Sender:       session,
		Local:        session.LocalAddr(),
		Loop:         l,
		Handles:      handles,
		Presence:     cache,
		Languages:    langs,
		ReplyTimeout: cfg.ReplyTimeout,
		Logger:       logger,
	})

	var observer call.Observer
	if cfg.NATS.URL != "" {
		nc, err := gateway.Connect(cfg.NATS.URL, logger)
		if err != nil {
			return fmt.Errorf("error connecting to NATS: %w", err)
		}
		defer func() {
			if err := nc.Drain(); err != nil {
				logger.Debug().Err(err).Msg("error draining NATS connection")
			}
		}()
		observer = gateway.NewNATSObserver(nc, cfg.NATS.Subject, logger)
	}

	var factory *call.Factory
	err = l.Call(func() error {
		factory = call.NewFactory(call.FactoryConfig{
			Manager:  gw.Manager(),
			Handles:  handles,
			Presence: cache,
			Observer: observer,
			Logger:   logger,
		})
		return nil
	})
	if err != nil {
		return err
	}

	if err := session.Send(ctx, initialPresence()); err != nil {
		return fmt.Errorf("error sending initial presence: %w", err)
	}

	served := make(chan error, 1)
	go func() {
		served <- session.Serve(gw)
	}()
	logger.Info().Msg("gateway ready")

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	case err = <-served:
		logger.Warn().Err(err).Msg("session ended")
	}

	// Channels hang up on the loop, then outstanding requests are resolved
	// before the loop stops.
	if cerr := l.Call(func() error {
		factory.Close()
		return nil
	}); cerr != nil {
		logger.Debug().Err(cerr).Msg("error closing channels")
	}
	gw.Close()
	return err
}
