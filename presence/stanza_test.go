// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package presence_test

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"testing"

	"golang.org/x/text/language"
	"mellium.im/xmlstream"
	"mellium.im/xmpp/jid"
	"mellium.im/xmpp/stanza"

	"mellium.im/jingle/presence"
)

func encode(t *testing.T, r xml.TokenReader) string {
	t.Helper()
	var buf bytes.Buffer
	e := xml.NewEncoder(&buf)
	if _, err := xmlstream.Copy(e, r); err != nil {
		t.Fatalf("error encoding: %v", err)
	}
	if err := e.Flush(); err != nil {
		t.Fatalf("error flushing: %v", err)
	}
	return buf.String()
}

var stanzaTests = [...]struct {
	status  presence.Status
	msg     *string
	prio    int8
	body    string
	offline bool
}{
	0: {status: presence.StatusAvailable, body: `></presence>`},
	1: {status: presence.StatusAway, msg: str("lunch"), prio: 5, body: `><show>away</show><status>lunch</status><priority>5</priority></presence>`},
	2: {status: presence.StatusChat, prio: -1, body: `><show>chat</show><priority>-1</priority></presence>`},
	3: {status: presence.StatusHidden, body: `></presence>`},
	4: {status: presence.StatusOffline, msg: str("bye"), body: `><status>bye</status></presence>`, offline: true},
}

func TestStanza(t *testing.T) {
	for i, tc := range stanzaTests {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			var p presence.Presence
			p.Update("res", tc.status, tc.msg, tc.prio)
			r, err := p.Stanza("res")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			out := encode(t, r)
			if !strings.HasPrefix(out, "<presence") || !strings.HasSuffix(out, tc.body) {
				t.Errorf("wrong output: want suffix %s, got %s", tc.body, out)
			}
			if unavailable := strings.Contains(out, `type="unavailable"`); unavailable != tc.offline {
				t.Errorf("wrong type in %s", out)
			}
		})
	}
}

func TestStanzaUnknownResource(t *testing.T) {
	var p presence.Presence
	if _, err := p.Stanza("nope"); !errors.Is(err, presence.ErrUnknownResource) {
		t.Errorf("unexpected error: want=%v, got=%v", presence.ErrUnknownResource, err)
	}
}

func parse(t *testing.T, typ stanza.PresenceType, body string, prefs ...language.Tag) (presence.Report, error) {
	t.Helper()
	d := xml.NewDecoder(strings.NewReader(body))
	tok, err := d.Token()
	if err != nil {
		t.Fatalf("bad test input: %v", err)
	}
	start := tok.(xml.StartElement)
	p := stanza.Presence{Type: typ, From: jid.MustParse("juliet@capulet.lit/balcony")}
	// Handlers never see the raw decoder, only a reader over the rest of the
	// stanza.
	r := xmlstream.MultiReader(xmlstream.Inner(d), xmlstream.Token(start.End()))
	return presence.Parse(p, r, &start, prefs)
}

func TestParse(t *testing.T) {
	rep, err := parse(t, stanza.AvailablePresence, `<presence><show>dnd</show><status>busy</status><priority>7</priority><c xmlns="http://jabber.org/protocol/caps" node="http://www.google.com/xmpp/client/caps" ver="1.0" ext="voice-v1 video-v1 pmuc-v1"/></presence>`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Resource != "balcony" || rep.Status != presence.StatusDND || rep.Priority != 7 {
		t.Errorf("unexpected report: %+v", rep)
	}
	if rep.Message == nil || *rep.Message != "busy" {
		t.Errorf("wrong message: %v", rep.Message)
	}
	if !rep.Caps.Has(presence.CapGoogleVoice | presence.CapGoogleVideo | presence.CapGoogleTransportP2P) {
		t.Errorf("legacy caps not decoded: %b", rep.Caps)
	}
}

func TestParseUnavailable(t *testing.T) {
	rep, err := parse(t, stanza.UnavailablePresence, `<presence type="unavailable"/>`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Status != presence.StatusOffline || rep.Message != nil {
		t.Errorf("unexpected report: %+v", rep)
	}
}

func TestParseClampsPriority(t *testing.T) {
	rep, err := parse(t, stanza.AvailablePresence, `<presence><priority>300</priority></presence>`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Priority != 127 {
		t.Errorf("priority not clamped: %d", rep.Priority)
	}
	if _, err = parse(t, stanza.AvailablePresence, `<presence><priority>high</priority></presence>`); err == nil {
		t.Errorf("expected error for non-numeric priority")
	}
}

func TestParseNotStatus(t *testing.T) {
	_, err := parse(t, stanza.SubscribePresence, `<presence type="subscribe"/>`)
	if !errors.Is(err, presence.ErrNotStatus) {
		t.Errorf("unexpected error: want=%v, got=%v", presence.ErrNotStatus, err)
	}
}

func TestParseStatusLanguage(t *testing.T) {
	body := `<presence><status>away</status><status xml:lang="de">abwesend</status><status xml:lang="fr">absent</status></presence>`
	for _, tc := range []struct {
		prefs []language.Tag
		want  string
	}{
		{prefs: []language.Tag{language.German}, want: "abwesend"},
		{prefs: []language.Tag{language.MustParse("fr-CA")}, want: "absent"},
		{prefs: []language.Tag{language.Japanese}, want: "away"},
		{want: "away"},
	} {
		rep, err := parse(t, stanza.AvailablePresence, body, tc.prefs...)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rep.Message == nil || *rep.Message != tc.want {
			t.Errorf("prefs %v: want=%q, got=%v", tc.prefs, tc.want, rep.Message)
		}
	}
}
