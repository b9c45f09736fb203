// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package gateway connects the signaling core to a live XMPP session.
//
// Outbound Jingle and Google Talk messages are sent as IQs, inbound ones are
// parsed and handed to a jingle.Manager on the loop that owns all session
// state, and inbound presence feeds the presence cache.
package gateway // import "mellium.im/jingle/gateway"

import (
	"encoding/xml"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"
	"mellium.im/xmlstream"
	"mellium.im/xmpp/jid"
	"mellium.im/xmpp/mux"
	"mellium.im/xmpp/stanza"

	"mellium.im/jingle"
	"mellium.im/jingle/handle"
	"mellium.im/jingle/internal/loop"
	"mellium.im/jingle/internal/ns"
	"mellium.im/jingle/presence"
)

// Config holds the collaborators of a Gateway.
type Config struct {
	// Sender carries outbound IQs, usually an *xmpp.Session.
	Sender IQSender

	// Local is the address sessions are created for.
	Local jid.JID

	// Loop owns the manager and all session state.
	Loop *loop.Loop

	Handles  *handle.Repo
	Presence *presence.Cache

	// Languages orders the status messages picked from inbound presence.
	Languages []language.Tag

	// ReplyTimeout bounds every outbound request.
	// The default is 30 seconds.
	ReplyTimeout time.Duration

	Logger zerolog.Logger
}

// Gateway routes stanzas between an XMPP session and the signaling core.
type Gateway struct {
	local     jid.JID
	loop      *loop.Loop
	handles   *handle.Repo
	presence  *presence.Cache
	languages []language.Tag
	logger    zerolog.Logger
	transport *Transport
	manager   *jingle.Manager
	mux       *mux.ServeMux

	mu      sync.Mutex
	present map[string]handle.Handle
}

// New creates a gateway and the manager that its sessions are tracked by.
func New(cfg Config) *Gateway {
	timeout := cfg.ReplyTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	g := &Gateway{
		local:     cfg.Local,
		loop:      cfg.Loop,
		handles:   cfg.Handles,
		presence:  cfg.Presence,
		languages: cfg.Languages,
		logger:    cfg.Logger,
		present:   make(map[string]handle.Handle),
	}
	g.transport = NewTransport(cfg.Sender, cfg.Loop, g.deliver, timeout, cfg.Logger)
	g.manager = jingle.NewManager(g.transport, cfg.Local, cfg.Logger)
	g.mux = mux.New(stanza.NSClient,
		mux.IQFunc(stanza.SetIQ, xml.Name{Space: ns.Jingle, Local: "jingle"}, mux.IQHandlerFunc(g.handleIQ)),
		mux.IQFunc(stanza.SetIQ, xml.Name{Space: ns.GoogleSession, Local: "session"}, mux.IQHandlerFunc(g.handleIQ)),
	)
	return g
}

// Manager returns the session manager.
// It must only be used on the gateway loop.
func (g *Gateway) Manager() *jingle.Manager {
	return g.manager
}

// Transport returns the transport used by the manager's sessions.
func (g *Gateway) Transport() *Transport {
	return g.transport
}

func (g *Gateway) deliver(peer jid.JID, sid, id string, r jingle.Reply) {
	g.manager.Deliver(peer, sid, id, r)
}

// HandleXMPP satisfies xmpp.Handler.
// Presence is applied to the presence cache and all other stanzas are passed
// to the IQ multiplexer.
func (g *Gateway) HandleXMPP(t xmlstream.TokenReadEncoder, start *xml.StartElement) error {
	if start.Name.Local == "presence" {
		return g.handlePresence(t, start)
	}
	return g.mux.HandleXMPP(t, start)
}

func (g *Gateway) handlePresence(r xml.TokenReader, start *xml.StartElement) error {
	p, err := stanza.NewPresence(*start)
	if err != nil {
		statsInboundTotal.WithLabelValues("presence", "malformed").Inc()
		g.logger.Debug().Err(err).Msg("malformed presence")
		return nil
	}
	if p.From.Equal(jid.JID{}) || p.From.Bare().Equal(g.local.Bare()) {
		statsInboundTotal.WithLabelValues("presence", "ignored").Inc()
		return nil
	}
	rep, err := presence.Parse(p, r, start, g.languages)
	switch {
	case errors.Is(err, presence.ErrNotStatus):
		statsInboundTotal.WithLabelValues("presence", "ignored").Inc()
		return nil
	case err != nil:
		statsInboundTotal.WithLabelValues("presence", "malformed").Inc()
		g.logger.Debug().Err(err).Str("from", p.From.String()).Msg("malformed presence")
		return nil
	}

	h := g.contact(p.From)
	if g.presence.Apply(h, rep) {
		status := g.presence.Status(h)
		g.logger.Debug().
			Stringer("handle", h).
			Str("from", p.From.String()).
			Stringer("status", status).
			Msg("aggregate presence changed")
		if status == presence.StatusOffline {
			g.release(p.From, h)
		}
	}
	statsInboundTotal.WithLabelValues("presence", "ok").Inc()
	return nil
}

// contact returns the handle of j.
// The presence cache holds one reference to it while the contact is online.
func (g *Gateway) contact(j jid.JID) handle.Handle {
	key := j.Bare().String()
	g.mu.Lock()
	defer g.mu.Unlock()
	if h, ok := g.present[key]; ok {
		return h
	}
	h := g.handles.Ensure(j)
	g.present[key] = h
	return h
}

func (g *Gateway) release(j jid.JID, h handle.Handle) {
	key := j.Bare().String()
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.present[key] != h {
		return
	}
	delete(g.present, key)
	g.presence.Forget(h)
	if err := g.handles.Unref(h); err != nil {
		g.logger.Debug().Err(err).Stringer("handle", h).Msg("releasing contact")
	}
}

func (g *Gateway) handleIQ(iq stanza.IQ, t xmlstream.TokenReadEncoder, start *xml.StartElement) error {
	msg, err := jingle.ParseMessage(iq, t, start)
	if err == nil {
		err = g.loop.Call(func() error {
			return g.manager.HandleMessage(msg)
		})
	}
	if err != nil {
		statsInboundTotal.WithLabelValues("iq", "error").Inc()
		se := jingle.StanzaError(err)
		if errors.Is(err, loop.ErrClosed) {
			se = stanza.Error{Type: stanza.Wait, Condition: stanza.ServiceUnavailable}
		}
		g.logger.Debug().
			Err(err).
			Str("from", iq.From.String()).
			Str("id", iq.ID).
			Msg("rejecting signaling message")
		_, err = xmlstream.Copy(t, iq.Error(se))
		return err
	}
	statsInboundTotal.WithLabelValues("iq", "ok").Inc()
	_, err = xmlstream.Copy(t, iq.Result(nil))
	return err
}

// Close stops sending and waits until outstanding requests have been
// resolved.
func (g *Gateway) Close() {
	g.transport.Close()
}
