// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jingle

import (
	"mellium.im/xmpp/stanza"
)

// Transport transmits outbound signaling messages.
//
// Send must not block waiting for the peer.
// For every message it accepts (returns nil for) the transport must later
// deliver exactly one Reply for msg.ID to the owning session with
// Session.Reply (or Manager.Deliver), on the same goroutine that drives the
// session.
// Replies that never arrive are reported as ErrNoReply.
type Transport interface {
	Send(msg *Message) error
}

// Reply is the outcome of an outbound request.
type Reply struct {
	// IQ is the header of the result or error stanza.
	// It is the zero value when no stanza was received.
	IQ stanza.IQ

	// Err is nil when the peer acknowledged the request.
	// It is a stanza.Error when the peer returned an IQ error and ErrNoReply
	// (possibly wrapped) when no answer arrived.
	Err error
}

// OK reports whether the request was acknowledged.
func (r Reply) OK() bool {
	return r.Err == nil
}

// ReplyHandler is called exactly once with the outcome of a request.
type ReplyHandler func(s *Session, r Reply)

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(msg *Message) error

// Send calls f(msg).
func (f TransportFunc) Send(msg *Message) error {
	return f(msg)
}
