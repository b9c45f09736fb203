// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package presence aggregates the presence of every resource of a contact
// into a single view.
//
// The aggregate is used to decide which device to ring and whether a change
// is worth telling anybody about.
package presence // import "mellium.im/jingle/presence"

import (
	"errors"
	"math"
)

// ErrUnknownResource is returned when an operation names a resource that has
// not been seen.
var ErrUnknownResource = errors.New("presence: unknown resource")

// Resource is a snapshot of one connected client of a contact.
type Resource struct {
	Name     string
	Caps     Caps
	Status   Status
	Message  *string
	Priority int8
}

// Presence is the aggregated presence of a single contact.
// The zero value is a contact with no resources.
//
// Presence is not safe for concurrent use; see Cache.
type Presence struct {
	resources []*Resource
	caps      Caps
	status    Status
	message   *string
}

// Status returns the status of the most present resource.
func (p *Presence) Status() Status { return p.status }

// StatusMessage returns the message that goes with Status.
func (p *Presence) StatusMessage() (msg string, ok bool) {
	if p.message == nil {
		return "", false
	}
	return *p.message, true
}

// Caps returns the union of the capabilities of all resources.
func (p *Presence) Caps() Caps { return p.caps }

// Resources returns a copy of every known resource in the order they were
// first seen.
func (p *Presence) Resources() []Resource {
	out := make([]Resource, 0, len(p.resources))
	for _, r := range p.resources {
		c := *r
		c.Message = copyString(r.Message)
		out = append(out, c)
	}
	return out
}

// Resource returns a copy of the named resource.
func (p *Presence) Resource(name string) (Resource, bool) {
	r := p.find(name)
	if r == nil {
		return Resource{}, false
	}
	c := *r
	c.Message = copyString(r.Message)
	return c, true
}

func (p *Presence) find(name string) *Resource {
	for _, r := range p.resources {
		if r.Name == name {
			return r
		}
	}
	return nil
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func sameMessage(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Update records a presence report for one resource and reports whether the
// aggregated status or status message changed.
//
// An offline report without a message removes the resource.
func (p *Presence) Update(resource string, status Status, msg *string, priority int8) bool {
	res := p.find(resource)
	if status == StatusOffline && msg == nil {
		if res != nil {
			for i, r := range p.resources {
				if r == res {
					p.resources = append(p.resources[:i], p.resources[i+1:]...)
					break
				}
			}
			res = nil
		}
	} else {
		if res == nil {
			res = &Resource{Name: resource}
			p.resources = append(p.resources, res)
		}
		res.Status = status
		res.Message = copyString(msg)
		res.Priority = priority
	}

	oldStatus := p.status
	oldMessage := p.message

	p.caps = CapsNone
	p.status = StatusOffline
	p.message = nil
	if res != nil {
		p.message = res.Message
	}
	var prio int8 = math.MinInt8
	for _, r := range p.resources {
		p.caps |= r.Caps
		if r.Status > p.status || (r.Status == p.status && r.Priority > prio) {
			p.status = r.Status
			p.message = r.Message
			prio = r.Priority
		}
	}

	if p.status != oldStatus {
		return true
	}
	return !sameMessage(p.message, oldMessage)
}

// PickResource returns the highest priority resource that advertises any of
// caps.
// Resources with a negative priority are never picked.
// On equal priority the resource seen first wins.
func (p *Presence) PickResource(caps Caps) (string, bool) {
	var chosen *Resource
	for _, r := range p.resources {
		if r.Priority >= 0 && r.Caps&caps != 0 && (chosen == nil || r.Priority > chosen.Priority) {
			chosen = r
		}
	}
	if chosen == nil {
		return "", false
	}
	return chosen.Name, true
}

// SetCapabilities adds caps to a known resource and to the aggregate.
// It does nothing if the resource is unknown.
func (p *Presence) SetCapabilities(resource string, caps Caps) {
	if r := p.find(resource); r != nil {
		r.Caps |= caps
		p.caps |= caps
	}
}
