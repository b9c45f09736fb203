// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package handle maps contact addresses to stable numeric handles.
//
// Handles are reference counted: a handle stays valid for as long as at least
// one reference to it is held and is reused by nothing else while it does.
package handle // import "mellium.im/jingle/handle"

import (
	"errors"
	"strconv"
	"sync"

	"mellium.im/xmpp/jid"
)

// Handle identifies a contact by its bare address.
// The zero Handle is never issued.
type Handle uint32

func (h Handle) String() string {
	return strconv.FormatUint(uint64(h), 10)
}

// ErrUnknownHandle is returned when a handle is not (or no longer) in the
// repository.
var ErrUnknownHandle = errors.New("handle: unknown handle")

type entry struct {
	addr jid.JID
	refs int
}

// Repo is a handle repository.
// It is safe for concurrent use.
type Repo struct {
	mu     sync.Mutex
	next   Handle
	byAddr map[string]Handle
	byID   map[Handle]*entry
}

// NewRepo returns an empty repository.
func NewRepo() *Repo {
	return &Repo{
		byAddr: make(map[string]Handle),
		byID:   make(map[Handle]*entry),
	}
}

// Ensure returns the handle for the bare form of j, creating one if needed,
// and takes a reference to it.
func (r *Repo) Ensure(j jid.JID) Handle {
	bare := j.Bare()
	key := bare.String()

	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.byAddr[key]; ok {
		r.byID[h].refs++
		return h
	}
	r.next++
	h := r.next
	r.byAddr[key] = h
	r.byID[h] = &entry{addr: bare, refs: 1}
	return h
}

// Lookup returns the handle of j without taking a reference.
func (r *Repo) Lookup(j jid.JID) (Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.byAddr[j.Bare().String()]
	return h, ok
}

// JID returns the bare address behind h.
func (r *Repo) JID(h Handle) (jid.JID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[h]
	if !ok {
		return jid.JID{}, ErrUnknownHandle
	}
	return e.addr, nil
}

// Ref takes another reference to h.
func (r *Repo) Ref(h Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[h]
	if !ok {
		return ErrUnknownHandle
	}
	e.refs++
	return nil
}

// Unref releases a reference to h.
// When the last reference is released the handle is forgotten.
func (r *Repo) Unref(h Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[h]
	if !ok {
		return ErrUnknownHandle
	}
	e.refs--
	if e.refs <= 0 {
		delete(r.byID, h)
		delete(r.byAddr, e.addr.String())
	}
	return nil
}

// Len returns the number of live handles.
func (r *Repo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}
