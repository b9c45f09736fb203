// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jingle

import (
	"github.com/gammazero/deque"
)

type pendingRequest struct {
	id      string
	action  Action
	handler ReplyHandler
	done    bool
	reply   Reply
}

// pendingQueue holds outbound requests awaiting a reply in the order they were
// issued.
// Replies are released strictly in that order: a reply that overtakes an
// earlier request is held until every request before it has completed.
type pendingQueue struct {
	q    deque.Deque
	byID map[string]*pendingRequest
}

func (p *pendingQueue) push(id string, action Action, h ReplyHandler) {
	if p.byID == nil {
		p.byID = make(map[string]*pendingRequest)
	}
	req := &pendingRequest{id: id, action: action, handler: h}
	p.byID[id] = req
	p.q.PushBack(req)
}

// complete records r for the request with the given ID and returns the
// requests that are now ready to be released, oldest first.
// If no request with that ID is outstanding, ok is false.
func (p *pendingQueue) complete(id string, r Reply) (ready []*pendingRequest, ok bool) {
	req, ok := p.byID[id]
	if !ok {
		return nil, false
	}
	delete(p.byID, id)
	req.done = true
	req.reply = r

	for p.q.Len() > 0 {
		front := p.q.Front().(*pendingRequest)
		if !front.done {
			break
		}
		p.q.PopFront()
		ready = append(ready, front)
	}
	return ready, true
}

// drain removes every request.
// Requests that did not complete are given ErrNoReply.
func (p *pendingQueue) drain() []*pendingRequest {
	all := make([]*pendingRequest, 0, p.q.Len())
	for p.q.Len() > 0 {
		req := p.q.PopFront().(*pendingRequest)
		if !req.done {
			req.done = true
			req.reply = Reply{Err: ErrNoReply}
		}
		all = append(all, req)
	}
	p.byID = nil
	return all
}

func (p *pendingQueue) Len() int {
	return p.q.Len()
}
