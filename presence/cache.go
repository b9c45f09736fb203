// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package presence

import (
	"sync"

	"github.com/rs/zerolog"

	"mellium.im/jingle/handle"
)

type contact struct {
	mu sync.Mutex
	p  Presence
}

// Cache holds the aggregated presence of many contacts.
// It is safe for concurrent use: updates for one contact are serialized while
// different contacts never wait on each other beyond the map lookup.
type Cache struct {
	logger zerolog.Logger

	mu       sync.Mutex
	contacts map[handle.Handle]*contact
}

// NewCache returns an empty cache.
func NewCache(logger zerolog.Logger) *Cache {
	return &Cache{
		logger:   logger,
		contacts: make(map[handle.Handle]*contact),
	}
}

func (c *Cache) get(h handle.Handle, create bool) *contact {
	c.mu.Lock()
	defer c.mu.Unlock()
	ct, ok := c.contacts[h]
	if !ok && create {
		ct = &contact{}
		c.contacts[h] = ct
		statsContactsCurrent.Inc()
	}
	return ct
}

// Apply records a decoded presence for h and reports whether the contact's
// aggregate changed.
func (c *Cache) Apply(h handle.Handle, r Report) bool {
	ct := c.get(h, true)
	ct.mu.Lock()
	defer ct.mu.Unlock()

	changed := ct.p.Update(r.Resource, r.Status, r.Message, r.Priority)
	if r.Caps != CapsNone {
		ct.p.SetCapabilities(r.Resource, r.Caps)
	}
	if changed {
		statsUpdatesTotal.WithLabelValues("changed").Inc()
		c.logger.Debug().
			Stringer("handle", h).
			Str("resource", r.Resource).
			Stringer("status", ct.p.Status()).
			Msg("presence changed")
	} else {
		statsUpdatesTotal.WithLabelValues("unchanged").Inc()
	}
	return changed
}

// SetCapabilities adds caps to a resource of h that is already known.
func (c *Cache) SetCapabilities(h handle.Handle, resource string, caps Caps) {
	ct := c.get(h, false)
	if ct == nil {
		return
	}
	ct.mu.Lock()
	defer ct.mu.Unlock()
	ct.p.SetCapabilities(resource, caps)
}

// PickResource returns the resource of h to route a call needing caps to.
// The returned resource carries its own capabilities, which may differ from
// the aggregate reported by Caps.
func (c *Cache) PickResource(h handle.Handle, caps Caps) (Resource, bool) {
	ct := c.get(h, false)
	if ct == nil {
		return Resource{}, false
	}
	ct.mu.Lock()
	defer ct.mu.Unlock()
	name, ok := ct.p.PickResource(caps)
	if !ok {
		return Resource{}, false
	}
	return ct.p.Resource(name)
}

// Status returns the aggregate status of h.
// Unknown contacts are offline.
func (c *Cache) Status(h handle.Handle) Status {
	ct := c.get(h, false)
	if ct == nil {
		return StatusOffline
	}
	ct.mu.Lock()
	defer ct.mu.Unlock()
	return ct.p.Status()
}

// Caps returns the aggregate capabilities of h.
func (c *Cache) Caps(h handle.Handle) Caps {
	ct := c.get(h, false)
	if ct == nil {
		return CapsNone
	}
	ct.mu.Lock()
	defer ct.mu.Unlock()
	return ct.p.Caps()
}

// Forget drops everything known about h.
func (c *Cache) Forget(h handle.Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.contacts[h]; ok {
		delete(c.contacts, h)
		statsContactsCurrent.Dec()
	}
}
