// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jingle_test

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"testing"

	"mellium.im/xmlstream"
	"mellium.im/xmpp/stanza"

	"mellium.im/jingle"
	"mellium.im/jingle/internal/jingletest"
	"mellium.im/jingle/internal/ns"
)

var (
	_ xmlstream.WriterTo  = jingle.Message{}
	_ xmlstream.Marshaler = jingle.Message{}
	_ xml.Marshaler       = jingle.Message{}
)

func encodePayload(t *testing.T, m jingle.Message) string {
	t.Helper()
	var buf bytes.Buffer
	e := xml.NewEncoder(&buf)
	if _, err := xmlstream.Copy(e, m.Payload()); err != nil {
		t.Fatalf("error encoding payload: %v", err)
	}
	if err := e.Flush(); err != nil {
		t.Fatalf("error flushing: %v", err)
	}
	return buf.String()
}

var roundTripTests = [...]jingle.Message{
	0: {
		Dialect:   jingle.DialectJingle,
		Action:    jingle.ActionSessionInitiate,
		SID:       "a73sjjvkla37jfea",
		Initiator: jingletest.Local,
		Contents: []jingle.ContentDesc{
			jingletest.Audio("voice"),
			{
				Name:        "cam",
				Creator:     jingle.CreatorInitiator,
				Senders:     jingle.SendersInitiator,
				Media:       jingle.MediaVideo,
				ContentNS:   ns.JingleRTP,
				TransportNS: ns.RawUDP,
			},
		},
	},
	1: {
		Dialect: jingle.DialectJingle,
		Action:  jingle.ActionSessionTerminate,
		SID:     "a73sjjvkla37jfea",
		Reason:  jingle.ReasonBusy,
	},
	2: {
		Dialect:   jingle.DialectJingle,
		Action:    jingle.ActionContentRemove,
		SID:       "a73sjjvkla37jfea",
		Responder: jingletest.Peer,
		Contents: []jingle.ContentDesc{{
			Name:    "cam",
			Creator: jingle.CreatorResponder,
			Senders: jingle.SendersNone,
		}},
	},
	3: {
		Dialect:   jingle.DialectGTalk,
		Action:    jingle.ActionSessionInitiate,
		SID:       "1234",
		Initiator: jingletest.Local,
		Contents: []jingle.ContentDesc{{
			Name:        "video",
			Media:       jingle.MediaVideo,
			ContentNS:   ns.GoogleVideo,
			TransportNS: ns.GoogleP2P,
		}},
	},
	4: {
		Dialect:   jingle.DialectGTalk,
		Action:    jingle.ActionSessionTerminate,
		SID:       "1234",
		Initiator: jingletest.Peer,
	},
}

func TestRoundTrip(t *testing.T) {
	for i, tc := range roundTripTests {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			out := encodePayload(t, tc)
			got := jingletest.Decode(t, stanza.IQ{}, out)
			if got.Dialect != tc.Dialect || got.Action != tc.Action || got.SID != tc.SID || got.Reason != tc.Reason {
				t.Errorf("header mismatch:\nwant=%+v,\n got=%+v", tc, *got)
			}
			if !got.Initiator.Equal(tc.Initiator) || !got.Responder.Equal(tc.Responder) {
				t.Errorf("addresses mismatch: want=%v/%v, got=%v/%v", tc.Initiator, tc.Responder, got.Initiator, got.Responder)
			}
			if len(got.Contents) != len(tc.Contents) {
				t.Fatalf("wrong number of contents: want=%d, got=%d (%s)", len(tc.Contents), len(got.Contents), out)
			}
			for j := range tc.Contents {
				if got.Contents[j] != tc.Contents[j] {
					t.Errorf("content %d mismatch:\nwant=%+v,\n got=%+v", j, tc.Contents[j], got.Contents[j])
				}
			}
		})
	}
}

func TestMarshalWrapsIQ(t *testing.T) {
	m := jingle.Message{
		IQ:      stanza.IQ{ID: "123", To: jingletest.Peer, Type: stanza.GetIQ},
		Action:  jingle.ActionSessionInfo,
		SID:     "abc",
		Dialect: jingle.DialectJingle,
	}
	out, err := xml.Marshal(m)
	if err != nil {
		t.Fatalf("error marshaling: %v", err)
	}
	for _, want := range []string{`<iq`, `type="set"`, `id="123"`, `action="session-info"`, `sid="abc"`, `xmlns="urn:xmpp:jingle:1"`} {
		if !strings.Contains(string(out), want) {
			t.Errorf("expected %s in output %s", want, out)
		}
	}
}

func TestValidate(t *testing.T) {
	m := jingle.Message{Dialect: jingle.DialectGTalk, Action: jingle.ActionContentAdd, SID: "x"}
	if err := m.Validate(); !errors.Is(err, jingle.ErrUnsupportedAction) {
		t.Errorf("unexpected error: want=%v, got=%v", jingle.ErrUnsupportedAction, err)
	}
	m = jingle.Message{Dialect: jingle.DialectJingle, Action: jingle.ActionContentAdd}
	var pe *jingle.ParseError
	if err := m.Validate(); !errors.As(err, &pe) {
		t.Errorf("expected parse error for missing sid, got %v", err)
	}
}

var parseErrorTests = [...]string{
	0: `<jingle xmlns="urn:xmpp:jingle:1" action="session-initiate"><content name="a" creator="initiator"><description xmlns="urn:xmpp:jingle:apps:rtp:1" media="audio"/></content></jingle>`,
	1: `<jingle xmlns="urn:xmpp:jingle:1" action="dance" sid="1"/>`,
	2: `<jingle xmlns="urn:xmpp:jingle:1" action="session-initiate" sid="1"><content name="a"><description xmlns="urn:xmpp:jingle:apps:rtp:1"/></content><content name="a"><description xmlns="urn:xmpp:jingle:apps:rtp:1"/></content></jingle>`,
	3: `<jingle xmlns="urn:xmpp:jingle:1" action="content-add" sid="1"><content name="a"/></jingle>`,
	4: `<jingle xmlns="urn:xmpp:jingle:1" action="content-remove" sid="1"><content name="a" creator="nobody"/></jingle>`,
	5: `<jingle xmlns="urn:xmpp:jingle:1" action="content-remove" sid="1"><content name="a" senders="everyone"/></jingle>`,
	6: `<jingle xmlns="urn:xmpp:jingle:1" action="content-remove" sid="1"/>`,
	7: `<jingle xmlns="urn:xmpp:jingle:1" action="session-initiate" sid="1"><content name="a"><description xmlns="urn:example:other"/></content></jingle>`,
	8: `<jingle xmlns="urn:xmpp:jingle:1" action="session-initiate" sid="1" initiator="@@"><content name="a"><description xmlns="urn:xmpp:jingle:apps:rtp:1"/></content></jingle>`,
	9: `<session xmlns="http://www.google.com/session" type="dance" id="1"/>`,
	10: `<session xmlns="http://www.google.com/session" type="initiate" id="1"/>`,
	11: `<session xmlns="http://www.google.com/session" type="initiate"><description xmlns="http://www.google.com/session/phone"/></session>`,
	12: `<ping xmlns="urn:xmpp:ping"/>`,
}

func TestParseErrors(t *testing.T) {
	for i, tc := range parseErrorTests {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			_, err := jingletest.DecodeErr(stanza.IQ{}, tc)
			var pe *jingle.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected parse error, got %v", err)
			}
			if se := jingle.StanzaError(err); se.Condition != stanza.BadRequest {
				t.Errorf("wrong condition: want=%s, got=%s", stanza.BadRequest, se.Condition)
			}
		})
	}
}

func TestParseWrappedReader(t *testing.T) {
	const payload = `<jingle xmlns="urn:xmpp:jingle:1" action="session-initiate" sid="s1" initiator="juliet@capulet.lit/balcony">` +
		`<content name="voice" creator="initiator"><description xmlns="urn:xmpp:jingle:apps:rtp:1" media="audio"/>` +
		`<transport xmlns="urn:xmpp:jingle:transports:ice-udp:1"/></content></jingle>`
	for i, wrap := range []func(*xml.Decoder, xml.StartElement) xml.TokenReader{
		0: func(d *xml.Decoder, _ xml.StartElement) xml.TokenReader { return xmlstream.MultiReader(d) },
		1: func(d *xml.Decoder, start xml.StartElement) xml.TokenReader {
			return xmlstream.MultiReader(xmlstream.Inner(d), xmlstream.Token(start.End()))
		},
	} {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			d := xml.NewDecoder(strings.NewReader(payload))
			tok, err := d.Token()
			if err != nil {
				t.Fatalf("bad test input: %v", err)
			}
			start := tok.(xml.StartElement)
			m, err := jingle.ParseMessage(stanza.IQ{}, wrap(d, start), &start)
			if err != nil {
				t.Fatalf("error parsing through wrapped reader: %v", err)
			}
			if m.Action != jingle.ActionSessionInitiate || m.SID != "s1" || len(m.Contents) != 1 {
				t.Fatalf("wrong message: %+v", *m)
			}
			if c := m.Contents[0]; c.Name != "voice" || c.Media != jingle.MediaAudio || c.TransportNS != ns.ICEUDP {
				t.Errorf("wrong content: %+v", c)
			}
		})
	}
}

func TestParseGTalkReject(t *testing.T) {
	iq := stanza.IQ{ID: "1", From: jingletest.Peer, To: jingletest.Local, Type: stanza.SetIQ}
	m := jingletest.Decode(t, iq, `<session xmlns="http://www.google.com/session" type="reject" id="s1" initiator="romeo@montague.lit/orchard"/>`)
	if m.Action != jingle.ActionSessionTerminate {
		t.Errorf("reject should parse as terminate, got %v", m.Action)
	}
	if m.Reason != jingle.ReasonDecline {
		t.Errorf("reject should carry the decline reason, got %q", m.Reason)
	}
	if !m.From.Equal(jingletest.Peer) || m.ID != "1" {
		t.Errorf("IQ header not copied: %+v", m.IQ)
	}
}

func TestIsPayload(t *testing.T) {
	if !jingle.IsPayload(xml.Name{Space: ns.Jingle, Local: "jingle"}) {
		t.Errorf("jingle element not recognized")
	}
	if !jingle.IsPayload(xml.Name{Space: ns.GoogleSession, Local: "session"}) {
		t.Errorf("gtalk element not recognized")
	}
	if jingle.IsPayload(xml.Name{Space: ns.Jingle, Local: "session"}) {
		t.Errorf("mixed names should not be recognized")
	}
}
