// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package jingletest provides utilities for testing signaling code without a
// network.
package jingletest // import "mellium.im/jingle/internal/jingletest"

import (
	"encoding/xml"
	"errors"
	"strings"
	"testing"

	"mellium.im/xmlstream"
	"mellium.im/xmpp/jid"
	"mellium.im/xmpp/stanza"

	"mellium.im/jingle"
	"mellium.im/jingle/internal/ns"
)

// Addresses used throughout the tests.
var (
	Local = jid.MustParse("romeo@montague.lit/orchard")
	Peer  = jid.MustParse("juliet@capulet.lit/balcony")
)

// Transport records every message it is asked to send.
// Replies are never produced on their own; use Ack or Fail.
type Transport struct {
	Sent []*jingle.Message

	// Err, if set, is returned from Send and the message is not recorded.
	Err error
}

// Send satisfies jingle.Transport.
func (t *Transport) Send(msg *jingle.Message) error {
	if t.Err != nil {
		return t.Err
	}
	t.Sent = append(t.Sent, msg)
	return nil
}

// Last returns the most recently sent message or nil.
func (t *Transport) Last() *jingle.Message {
	if len(t.Sent) == 0 {
		return nil
	}
	return t.Sent[len(t.Sent)-1]
}

// Actions returns the actions of all sent messages in order.
func (t *Transport) Actions() []jingle.Action {
	actions := make([]jingle.Action, 0, len(t.Sent))
	for _, m := range t.Sent {
		actions = append(actions, m.Action)
	}
	return actions
}

// Reset forgets all recorded messages.
func (t *Transport) Reset() {
	t.Sent = nil
}

// Ack delivers a successful reply for msg to s.
func Ack(s *jingle.Session, msg *jingle.Message) {
	s.Reply(msg.ID, jingle.Reply{IQ: stanza.IQ{ID: msg.ID, Type: stanza.ResultIQ, From: msg.To, To: msg.From}})
}

// Fail delivers an error reply for msg to s.
func Fail(s *jingle.Session, msg *jingle.Message, err error) {
	s.Reply(msg.ID, jingle.Reply{IQ: stanza.IQ{ID: msg.ID, Type: stanza.ErrorIQ, From: msg.To, To: msg.From}, Err: err})
}

// Audio returns an RTP audio content description.
func Audio(name string) jingle.ContentDesc {
	return jingle.ContentDesc{Name: name, Media: jingle.MediaAudio, ContentNS: ns.JingleRTP, TransportNS: ns.ICEUDP}
}

// Video returns an RTP video content description.
func Video(name string) jingle.ContentDesc {
	return jingle.ContentDesc{Name: name, Media: jingle.MediaVideo, ContentNS: ns.JingleRTP, TransportNS: ns.ICEUDP}
}

// Incoming builds a Jingle message as if Peer had sent it to Local.
func Incoming(a jingle.Action, sid string, contents ...jingle.ContentDesc) *jingle.Message {
	return &jingle.Message{
		IQ:        stanza.IQ{ID: "in-" + a.String(), Type: stanza.SetIQ, From: Peer, To: Local},
		Dialect:   jingle.DialectJingle,
		Action:    a,
		SID:       sid,
		Initiator: Peer,
		Contents:  contents,
	}
}

// Decode parses payload, a session element, as if it arrived in iq.
// It fails the test if the payload cannot be decoded.
func Decode(t testing.TB, iq stanza.IQ, payload string) *jingle.Message {
	t.Helper()
	msg, err := DecodeErr(iq, payload)
	if err != nil {
		t.Fatalf("error decoding %q: %v", payload, err)
	}
	return msg
}

// DecodeErr is like Decode except that it returns the error.
// The payload is read through a wrapping reader, as it is when a stanza
// handler receives it.
func DecodeErr(iq stanza.IQ, payload string) (*jingle.Message, error) {
	d := xml.NewDecoder(strings.NewReader(payload))
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}
		if start, ok := tok.(xml.StartElement); ok {
			r := xmlstream.MultiReader(xmlstream.Inner(d), xmlstream.Token(start.End()))
			return jingle.ParseMessage(iq, r, &start)
		}
	}
}

// ErrRefused is a transport error used by tests.
var ErrRefused = errors.New("jingletest: refused")
