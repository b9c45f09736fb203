// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package call exposes negotiated sessions as call channels.
//
// A Channel talks to one remote Member, which owns at most one session.
// Contents proposed on the session are mirrored into the channel and the
// channel's call state follows the session state, one way and forward only.
//
// Like the sessions they wrap, channels, members and factories must only be
// used from a single goroutine.
package call // import "mellium.im/jingle/call"

import (
	"strconv"

	"mellium.im/jingle"
)

// State is the overall state of a call.
type State int

// A list of call states in the order a call moves through them.
const (
	StateUnknown State = iota
	StatePending
	StateAccepted
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StatePending:
		return "pending"
	case StateAccepted:
		return "accepted"
	case StateEnded:
		return "ended"
	}
	return "State(" + strconv.Itoa(int(s)) + ")"
}

// project returns the call state implied by a session state.
func project(s jingle.State) State {
	switch s {
	case jingle.StateActive:
		return StateAccepted
	case jingle.StateEnded:
		return StateEnded
	case jingle.StateInvalid:
		return StateUnknown
	}
	return StatePending
}

// Disposition records whether a content existed when the call was set up.
type Disposition int

// A list of dispositions.
const (
	DispositionNone Disposition = iota
	DispositionInitial
)

func (d Disposition) String() string {
	if d == DispositionInitial {
		return "initial"
	}
	return "none"
}
