// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package call

import (
	"mellium.im/jingle"
)

// Content is a media stream as seen by the users of a channel.
// It aggregates the member contents that carry it, which for a one to one
// call is exactly one.
type Content struct {
	name        string
	media       jingle.MediaType
	disposition Disposition
	members     []*MemberContent
}

func newContent(mc *MemberContent, d Disposition) *Content {
	return &Content{
		name:        mc.Name(),
		media:       mc.MediaType(),
		disposition: d,
		members:     []*MemberContent{mc},
	}
}

// Name returns the content name.
func (c *Content) Name() string { return c.name }

// MediaType returns the kind of media carried by the content.
func (c *Content) MediaType() jingle.MediaType { return c.media }

// Disposition reports whether the content existed when the call was set up.
func (c *Content) Disposition() Disposition { return c.disposition }

// MemberContents returns a copy of the member contents behind c.
func (c *Content) MemberContents() []*MemberContent {
	out := make([]*MemberContent, len(c.members))
	copy(out, c.members)
	return out
}

func (c *Content) has(mc *MemberContent) bool {
	for _, other := range c.members {
		if other == mc {
			return true
		}
	}
	return false
}

// drop removes mc and reports whether c has no member contents left.
func (c *Content) drop(mc *MemberContent) bool {
	for i, other := range c.members {
		if other == mc {
			c.members = append(c.members[:i], c.members[i+1:]...)
			break
		}
	}
	return len(c.members) == 0
}
