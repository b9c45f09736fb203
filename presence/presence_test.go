// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package presence_test

import (
	"fmt"
	"testing"

	"mellium.im/jingle/presence"
)

func str(s string) *string { return &s }

func TestAggregateStatusBeatsPriority(t *testing.T) {
	var p presence.Presence
	p.Update("A", presence.StatusAvailable, str("at home"), 1)
	p.Update("B", presence.StatusAway, str("out"), 10)

	if s := p.Status(); s != presence.StatusAvailable {
		t.Errorf("wrong status: want=%v, got=%v", presence.StatusAvailable, s)
	}
	if msg, ok := p.StatusMessage(); !ok || msg != "at home" {
		t.Errorf("wrong message: want=%q, got=%q", "at home", msg)
	}
}

func TestAggregateTieBreaks(t *testing.T) {
	var p presence.Presence
	p.Update("A", presence.StatusAway, str("a"), 5)
	p.Update("B", presence.StatusAway, str("b"), 7)
	if msg, _ := p.StatusMessage(); msg != "b" {
		t.Errorf("higher priority should win equal status, got message %q", msg)
	}

	p.Update("B", presence.StatusAway, str("b"), 5)
	if msg, _ := p.StatusMessage(); msg != "a" {
		t.Errorf("first seen resource should win exact ties, got message %q", msg)
	}
}

func TestMinimumPriorityStillWins(t *testing.T) {
	var p presence.Presence
	p.Update("A", presence.StatusXA, str("zzz"), -128)
	if s := p.Status(); s != presence.StatusXA {
		t.Errorf("sole resource should set the status, got %v", s)
	}
}

var changeTests = [...]struct {
	resource string
	status   presence.Status
	msg      *string
	prio     int8
	changed  bool
}{
	0: {resource: "A", status: presence.StatusAvailable, changed: true},
	1: {resource: "A", status: presence.StatusAvailable, changed: false},
	2: {resource: "A", status: presence.StatusAvailable, msg: str("hi"), changed: true},
	3: {resource: "A", status: presence.StatusAvailable, msg: str("hi"), prio: 3, changed: false},
	4: {resource: "A", status: presence.StatusAvailable, msg: str("bye"), changed: true},
	5: {resource: "B", status: presence.StatusAway, msg: str("other"), changed: false},
	6: {resource: "A", status: presence.StatusAvailable, changed: true},
	7: {resource: "A", status: presence.StatusOffline, changed: true},
	8: {resource: "B", status: presence.StatusOffline, msg: str("gone"), changed: true},
	9: {resource: "B", status: presence.StatusOffline, changed: true},
}

func TestUpdateReportsChanges(t *testing.T) {
	var p presence.Presence
	for i, tc := range changeTests {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			if changed := p.Update(tc.resource, tc.status, tc.msg, tc.prio); changed != tc.changed {
				t.Errorf("wrong change report: want=%t, got=%t (status=%v)", tc.changed, changed, p.Status())
			}
		})
	}
	if n := len(p.Resources()); n != 0 {
		t.Errorf("expected all resources to be gone, got %d", n)
	}
}

func TestOfflineWithMessageKeepsResource(t *testing.T) {
	var p presence.Presence
	p.Update("A", presence.StatusOffline, str("brb"), 0)
	res := p.Resources()
	if len(res) != 1 || res[0].Name != "A" {
		t.Fatalf("unexpected resources: %+v", res)
	}
	if msg, ok := p.StatusMessage(); !ok || msg != "brb" {
		t.Errorf("offline message lost: %q", msg)
	}
}

func TestPickResource(t *testing.T) {
	var p presence.Presence
	p.Update("phone", presence.StatusAvailable, nil, 5)
	p.Update("laptop", presence.StatusAvailable, nil, 10)
	p.Update("tablet", presence.StatusAvailable, nil, 10)
	p.Update("dnd", presence.StatusAvailable, nil, -1)
	p.SetCapabilities("phone", presence.CapJingleAudio)
	p.SetCapabilities("laptop", presence.CapJingleAudio|presence.CapJingleVideo)
	p.SetCapabilities("tablet", presence.CapJingleAudio)
	p.SetCapabilities("dnd", presence.CapGoogleVoice)

	if r, ok := p.PickResource(presence.CapsAudio); !ok || r != "laptop" {
		t.Errorf("wrong audio resource: got %q", r)
	}
	if r, ok := p.PickResource(presence.CapJingleVideo); !ok || r != "laptop" {
		t.Errorf("wrong video resource: got %q", r)
	}
	if r, ok := p.PickResource(presence.CapGoogleVoice); ok {
		t.Errorf("negative priority resource %q was picked", r)
	}
	if _, ok := p.PickResource(presence.CapRawUDP); ok {
		t.Errorf("picked a resource without the capability")
	}
}

func TestResource(t *testing.T) {
	var p presence.Presence
	msg := "on the balcony"
	p.Update("balcony", presence.StatusAway, &msg, 2)
	p.SetCapabilities("balcony", presence.CapJingleVideo)

	r, ok := p.Resource("balcony")
	if !ok {
		t.Fatalf("resource not found")
	}
	if r.Name != "balcony" || r.Status != presence.StatusAway || r.Priority != 2 || r.Caps != presence.CapJingleVideo {
		t.Errorf("wrong resource: %+v", r)
	}
	*r.Message = "changed"
	if m, _ := p.StatusMessage(); m != msg {
		t.Errorf("returned resource aliases the status message: %q", m)
	}
	if _, ok := p.Resource("kitchen"); ok {
		t.Errorf("unknown resource was found")
	}
}

func TestSetCapabilities(t *testing.T) {
	var p presence.Presence
	p.SetCapabilities("ghost", presence.CapJingleAudio)
	if c := p.Caps(); c != presence.CapsNone {
		t.Errorf("capabilities of unknown resource were recorded: %v", c)
	}

	p.Update("A", presence.StatusAvailable, nil, 0)
	p.Update("B", presence.StatusAvailable, nil, 0)
	p.SetCapabilities("A", presence.CapJingleAudio)
	p.SetCapabilities("A", presence.CapICEUDP)
	p.SetCapabilities("B", presence.CapGoogleVoice)
	if c := p.Caps(); !c.Has(presence.CapJingleAudio | presence.CapICEUDP | presence.CapGoogleVoice) {
		t.Errorf("aggregate missing bits: %b", c)
	}

	// Capabilities of removed resources leave the aggregate on the next update.
	p.Update("B", presence.StatusOffline, nil, 0)
	if c := p.Caps(); c.Has(presence.CapGoogleVoice) {
		t.Errorf("aggregate kept bits of a removed resource: %b", c)
	}
}

func TestResourcesAreCopies(t *testing.T) {
	var p presence.Presence
	p.Update("A", presence.StatusAvailable, str("x"), 0)
	res := p.Resources()
	*res[0].Message = "changed"
	if msg, _ := p.StatusMessage(); msg != "x" {
		t.Errorf("snapshot aliases internal state")
	}
}

func TestOfflineUnknownResourceIsNoop(t *testing.T) {
	var p presence.Presence
	p.Update("A", presence.StatusAway, str("lunch"), 2)
	before := p.Resources()
	if changed := p.Update("ghost", presence.StatusOffline, nil, 0); changed {
		t.Errorf("removing an unknown resource reported a change")
	}
	if after := p.Resources(); len(after) != len(before) || after[0].Name != "A" {
		t.Errorf("resources changed: %+v", after)
	}
	if msg, _ := p.StatusMessage(); p.Status() != presence.StatusAway || msg != "lunch" {
		t.Errorf("aggregate changed: %v %q", p.Status(), msg)
	}
}

func TestRepeatedUpdateUnchanged(t *testing.T) {
	var p presence.Presence
	if !p.Update("A", presence.StatusAvailable, str("brb"), 5) {
		t.Errorf("first update should report a change")
	}
	if p.Update("A", presence.StatusAvailable, str("brb"), 5) {
		t.Errorf("identical update should not report a change")
	}
}
