// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jingle

import (
	"errors"

	"mellium.im/xmpp/stanza"
)

// Errors returned by session operations.
var (
	// ErrInvalidTransition is returned when an operation is not permitted in
	// the current session state. The state is left unchanged.
	ErrInvalidTransition = errors.New("jingle: operation not permitted in current state")

	// ErrNoReply is passed to reply handlers when the peer never answered or
	// the session ended before it did.
	ErrNoReply = errors.New("jingle: no reply received")

	// ErrEnded is returned when sending on a session that has ended.
	ErrEnded = errors.New("jingle: session ended")

	// ErrUnsupportedAction is returned when an action cannot be expressed in
	// the session dialect.
	ErrUnsupportedAction = errors.New("jingle: action not supported by dialect")

	// ErrCapabilityMismatch is returned when no usable content type could be
	// proposed.
	ErrCapabilityMismatch = errors.New("jingle: no usable content type")
)

// ParseError is returned for inbound messages that are malformed, unknown or
// addressed to another session.
// Parse errors never change session state.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "jingle: parse error: " + e.Reason
}

func parseErrorf(reason string) *ParseError {
	return &ParseError{Reason: reason}
}

// StanzaError converts an error returned from handling an inbound message into
// the stanza error that should be returned to the peer.
func StanzaError(err error) stanza.Error {
	var se stanza.Error
	if errors.As(err, &se) {
		return se
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		return stanza.Error{Type: stanza.Modify, Condition: stanza.BadRequest}
	}
	if errors.Is(err, ErrUnsupportedAction) {
		return stanza.Error{Type: stanza.Cancel, Condition: stanza.FeatureNotImplemented}
	}
	if errors.Is(err, ErrEnded) {
		return stanza.Error{Type: stanza.Cancel, Condition: stanza.ItemNotFound}
	}
	return stanza.Error{Type: stanza.Cancel, Condition: stanza.UndefinedCondition}
}

var (
	errOutOfOrder   = stanza.Error{Type: stanza.Cancel, Condition: stanza.UnexpectedRequest}
	errConflict     = stanza.Error{Type: stanza.Cancel, Condition: stanza.Conflict}
	errNoContent    = stanza.Error{Type: stanza.Cancel, Condition: stanza.ItemNotFound}
	errUnknownSess  = stanza.Error{Type: stanza.Cancel, Condition: stanza.ItemNotFound}
	errNotSupported = stanza.Error{Type: stanza.Cancel, Condition: stanza.FeatureNotImplemented}
)
