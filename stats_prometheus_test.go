// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jingle

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"mellium.im/xmpp/jid"
	"mellium.im/xmpp/stanza"
)

func TestStats(t *testing.T) {
	RegisterStats()
	defer UnregisterStats()

	local := jid.MustParse("romeo@montague.lit/orchard")
	peer := jid.MustParse("juliet@capulet.lit/balcony")
	tr := TransportFunc(func(*Message) error { return nil })
	m := NewManager(tr, local, zerolog.Nop())

	conflicts := testutil.ToFloat64(statsRejectedTotal.WithLabelValues(string(stanza.Conflict)))
	current := testutil.ToFloat64(statsSessionsCurrent)

	initiate := &Message{
		IQ:       stanza.IQ{From: peer, To: local, Type: stanza.SetIQ},
		Dialect:  DialectJingle,
		Action:   ActionSessionInitiate,
		SID:      "stats",
		Contents: []ContentDesc{{Name: "a", Media: MediaAudio, ContentNS: "urn:xmpp:jingle:apps:rtp:1"}},
	}
	if err := m.HandleMessage(initiate); err != nil {
		t.Fatalf("error handling initiate: %v", err)
	}
	if got := testutil.ToFloat64(statsSessionsCurrent); got != current+1 {
		t.Errorf("wrong current sessions: want=%v, got=%v", current+1, got)
	}

	add := *initiate
	add.Action = ActionContentAdd
	if err := m.HandleMessage(&add); err == nil {
		t.Errorf("expected content-add with a duplicate name to fail")
	}
	if got := testutil.ToFloat64(statsRejectedTotal.WithLabelValues(string(stanza.Conflict))); got != conflicts+1 {
		t.Errorf("wrong conflict count: want=%v, got=%v", conflicts+1, got)
	}

	m.TerminateAll(ReasonSuccess)
	if got := testutil.ToFloat64(statsSessionsCurrent); got != current {
		t.Errorf("wrong current sessions: want=%v, got=%v", current, got)
	}
}
