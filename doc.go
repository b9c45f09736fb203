// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package jingle implements the signaling side of multimedia sessions
// negotiated over XMPP.
//
// A Session is the negotiation state machine for one exchange with one peer.
// It owns the set of contents (media streams) that the two sides proposed and
// moves through the states
//
//	PendingCreated → PendingInitiateSent → PendingInitiated →
//	PendingAcceptSent → Active → Ended
//
// only ever forwards, with Ended reachable from every other state.
// Two wire dialects are supported: XEP-0166 Jingle and the older Google Talk
// session protocol.
//
// Sessions are not safe for concurrent use.
// Inbound messages, replies and local calls must all be delivered from a
// single goroutine; the gateway package does this with an ordered executor.
package jingle // import "mellium.im/jingle"
