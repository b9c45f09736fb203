// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jingle

import (
	"errors"
	"testing"
)

func ids(reqs []*pendingRequest) []string {
	out := make([]string, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, r.id)
	}
	return out
}

func TestPendingOutOfOrder(t *testing.T) {
	var p pendingQueue
	p.push("a", ActionSessionInitiate, nil)
	p.push("b", ActionSessionInfo, nil)
	p.push("c", ActionSessionInfo, nil)

	ready, ok := p.complete("b", Reply{})
	if !ok {
		t.Fatalf("expected b to be pending")
	}
	if len(ready) != 0 {
		t.Fatalf("reply overtook earlier request: %v", ids(ready))
	}

	ready, ok = p.complete("a", Reply{})
	if !ok {
		t.Fatalf("expected a to be pending")
	}
	if got := ids(ready); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected release order: %v", got)
	}
	if p.Len() != 1 {
		t.Fatalf("expected one outstanding request, got %d", p.Len())
	}

	if _, ok = p.complete("a", Reply{}); ok {
		t.Errorf("completing a twice should fail")
	}
	if _, ok = p.complete("nope", Reply{}); ok {
		t.Errorf("completing an unknown request should fail")
	}
}

func TestPendingDrain(t *testing.T) {
	var p pendingQueue
	p.push("a", ActionSessionInitiate, nil)
	p.push("b", ActionSessionInfo, nil)
	errPeer := errors.New("peer said no")
	if ready, _ := p.complete("b", Reply{Err: errPeer}); len(ready) != 0 {
		t.Fatalf("b released before a")
	}

	all := p.drain()
	if got := ids(all); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected drain order: %v", got)
	}
	if !errors.Is(all[0].reply.Err, ErrNoReply) {
		t.Errorf("unanswered request got %v, want ErrNoReply", all[0].reply.Err)
	}
	if !errors.Is(all[1].reply.Err, errPeer) {
		t.Errorf("answered request lost its reply: %v", all[1].reply.Err)
	}
	if p.Len() != 0 {
		t.Errorf("queue not empty after drain")
	}
	if _, ok := p.complete("a", Reply{}); ok {
		t.Errorf("late reply accepted after drain")
	}
}
