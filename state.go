// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jingle

import (
	"strconv"
)

// State is the negotiation state of a session.
type State int

// A list of session states in the order a session moves through them.
const (
	StateInvalid State = iota - 1
	StatePendingCreated
	StatePendingInitiateSent
	StatePendingInitiated
	StatePendingAcceptSent
	StateActive
	StateEnded
)

var stateNames = [...]string{
	StatePendingCreated:      "pending-created",
	StatePendingInitiateSent: "pending-initiate-sent",
	StatePendingInitiated:    "pending-initiated",
	StatePendingAcceptSent:   "pending-accept-sent",
	StateActive:              "active",
	StateEnded:               "ended",
}

func (s State) String() string {
	if s < StatePendingCreated || int(s) >= len(stateNames) {
		if s == StateInvalid {
			return "invalid"
		}
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
	return stateNames[s]
}

// Dialect selects the wire variant used by a session.
type Dialect int

// A list of supported dialects.
const (
	// DialectJingle is XEP-0166 Jingle (urn:xmpp:jingle:1).
	DialectJingle Dialect = iota

	// DialectGTalk is the Google Talk session protocol.
	// It carries a single implicit content and cannot add or remove contents
	// once the session exists.
	DialectGTalk
)

func (d Dialect) String() string {
	switch d {
	case DialectJingle:
		return "jingle"
	case DialectGTalk:
		return "gtalk"
	}
	return "Dialect(" + strconv.Itoa(int(d)) + ")"
}
