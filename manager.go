// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jingle

import (
	"github.com/rs/zerolog"
	"mellium.im/xmpp/jid"

	"mellium.im/jingle/internal/event"
)

type sessionKey struct {
	peer string
	sid  string
}

// Manager tracks the sessions of one local entity and routes inbound messages
// and replies to them.
// Sessions are forgotten as soon as they end.
//
// Like sessions, a Manager must only be used from a single goroutine.
type Manager struct {
	tr       Transport
	local    jid.JID
	logger   zerolog.Logger
	sessions map[sessionKey]*Session
	watches  map[*Session]event.Subscription
	incoming event.Emitter[*Session]
}

// NewManager creates a manager whose sessions send through tr.
func NewManager(tr Transport, local jid.JID, logger zerolog.Logger) *Manager {
	return &Manager{
		tr:       tr,
		local:    local,
		logger:   logger,
		sessions: make(map[sessionKey]*Session),
		watches:  make(map[*Session]event.Subscription),
	}
}

// Local returns the address sessions are created for.
func (m *Manager) Local() jid.JID { return m.local }

// NewSession creates and tracks a locally initiated session with peer.
func (m *Manager) NewSession(peer jid.JID, d Dialect) *Session {
	s := NewSession(m.tr, m.local, peer, WithDialect(d), WithLogger(m.logger))
	m.track(s)
	return s
}

func (m *Manager) track(s *Session) {
	m.sessions[sessionKey{peer: s.peer.String(), sid: s.sid}] = s
	statsSessionsCurrent.Inc()
	m.watches[s] = s.OnStateChanged(func(st State) {
		if st == StateEnded {
			m.forget(s)
		}
	})
}

func (m *Manager) forget(s *Session) {
	key := sessionKey{peer: s.peer.String(), sid: s.sid}
	if m.sessions[key] != s {
		return
	}
	delete(m.sessions, key)
	statsSessionsCurrent.Dec()
	if sub, ok := m.watches[s]; ok {
		sub.Close()
		delete(m.watches, s)
	}
}

// Lookup returns the live session with peer identified by sid.
// If no session exists for the full address, one with the bare address is
// tried.
func (m *Manager) Lookup(peer jid.JID, sid string) (*Session, bool) {
	if s, ok := m.sessions[sessionKey{peer: peer.String(), sid: sid}]; ok {
		return s, true
	}
	s, ok := m.sessions[sessionKey{peer: peer.Bare().String(), sid: sid}]
	return s, ok
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	return len(m.sessions)
}

// OnIncoming calls f for every session created by a peer, after the contents
// of its session-initiate were parsed.
func (m *Manager) OnIncoming(f func(*Session)) event.Subscription {
	return m.incoming.Subscribe(f)
}

// HandleMessage routes an inbound message to its session.
// A session-initiate for an unknown session creates one.
// The returned error should be reported back to the peer (see StanzaError).
func (m *Manager) HandleMessage(msg *Message) error {
	if s, ok := m.Lookup(msg.From, msg.SID); ok {
		return s.Handle(msg)
	}
	if msg.Action != ActionSessionInitiate {
		m.logger.Debug().
			Str("sid", msg.SID).
			Str("peer", msg.From.String()).
			Stringer("action", msg.Action).
			Msg("message for unknown session")
		statsRejectedTotal.WithLabelValues(string(errUnknownSess.Condition)).Inc()
		return errUnknownSess
	}

	s := NewSession(m.tr, m.local, msg.From,
		WithDialect(msg.Dialect),
		WithSID(msg.SID),
		AsResponder(),
		WithLogger(m.logger),
	)
	if err := s.Handle(msg); err != nil {
		return err
	}
	m.track(s)
	m.incoming.Emit(s)
	return nil
}

// Deliver hands the reply for request id to the session identified by peer
// and sid.
// Replies for sessions that no longer exist are dropped.
func (m *Manager) Deliver(peer jid.JID, sid, id string, r Reply) {
	s, ok := m.Lookup(peer, sid)
	if !ok {
		m.logger.Debug().Str("sid", sid).Str("id", id).Msg("dropping reply for unknown session")
		return
	}
	s.Reply(id, r)
}

// TerminateAll ends every live session with reason.
func (m *Manager) TerminateAll(reason Reason) {
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	for _, s := range all {
		if err := s.Terminate(reason); err != nil {
			m.logger.Warn().Err(err).Str("sid", s.sid).Msg("could not terminate session")
		}
	}
}
