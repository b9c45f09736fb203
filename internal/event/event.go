// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package event implements typed notifications with explicit subscription
// handles.
//
// Emitters are not safe for concurrent use; they are expected to be owned by a
// single component that mutates them from one goroutine.
package event // import "mellium.im/jingle/internal/event"

// Subscription is a registered handler.
// Close removes the handler and may be called more than once.
type Subscription interface {
	Close()
}

type handler[T any] struct {
	f      func(T)
	closed bool
	owner  *Emitter[T]
}

func (h *handler[T]) Close() {
	if h.closed {
		return
	}
	h.closed = true
	h.owner.remove(h)
}

// Emitter delivers values of type T to its subscribers in subscription order.
// The zero value is ready to use.
type Emitter[T any] struct {
	handlers []*handler[T]
}

// Subscribe registers f and returns the handle that removes it.
func (e *Emitter[T]) Subscribe(f func(T)) Subscription {
	h := &handler[T]{f: f, owner: e}
	e.handlers = append(e.handlers, h)
	return h
}

// Emit calls every live handler with v.
// Handlers that are closed while Emit is running are not called afterwards.
func (e *Emitter[T]) Emit(v T) {
	if len(e.handlers) == 0 {
		return
	}
	snapshot := make([]*handler[T], len(e.handlers))
	copy(snapshot, e.handlers)
	for _, h := range snapshot {
		if h.closed {
			continue
		}
		h.f(v)
	}
}

// Len returns the number of live handlers.
func (e *Emitter[T]) Len() int {
	return len(e.handlers)
}

// Clear closes every handler.
func (e *Emitter[T]) Clear() {
	for _, h := range e.handlers {
		h.closed = true
	}
	e.handlers = nil
}

func (e *Emitter[T]) remove(h *handler[T]) {
	for i, other := range e.handlers {
		if other == h {
			e.handlers = append(e.handlers[:i], e.handlers[i+1:]...)
			return
		}
	}
}

// Group collects subscriptions owned by one subscriber so that they can be
// released together during its teardown.
// The zero value is ready to use.
type Group struct {
	subs []Subscription
}

// Add records s in the group and returns it.
func (g *Group) Add(s Subscription) Subscription {
	g.subs = append(g.subs, s)
	return s
}

// Close releases every subscription in the group in reverse order.
func (g *Group) Close() {
	for i := len(g.subs) - 1; i >= 0; i-- {
		g.subs[i].Close()
	}
	g.subs = nil
}
