// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jingle

import (
	"strconv"
)

// MediaType is the kind of media carried by a content.
type MediaType int

// A list of media types.
const (
	MediaOther MediaType = iota
	MediaAudio
	MediaVideo
)

func (m MediaType) String() string {
	switch m {
	case MediaAudio:
		return "audio"
	case MediaVideo:
		return "video"
	}
	return "other"
}

// ParseMediaType returns the media type named by the RTP description media
// attribute.
func ParseMediaType(s string) MediaType {
	switch s {
	case "audio":
		return MediaAudio
	case "video":
		return MediaVideo
	}
	return MediaOther
}

// Creator is the party that proposed a content.
type Creator int

// A list of content creators.
const (
	CreatorInitiator Creator = iota
	CreatorResponder
)

func (c Creator) String() string {
	if c == CreatorResponder {
		return "responder"
	}
	return "initiator"
}

func parseCreator(s string) (Creator, bool) {
	switch s {
	case "initiator", "":
		return CreatorInitiator, true
	case "responder":
		return CreatorResponder, true
	}
	return CreatorInitiator, false
}

// Senders is the direction in which media flows for a content.
type Senders int

// A list of senders modes.
const (
	SendersBoth Senders = iota
	SendersInitiator
	SendersResponder
	SendersNone
)

func (s Senders) String() string {
	switch s {
	case SendersInitiator:
		return "initiator"
	case SendersResponder:
		return "responder"
	case SendersNone:
		return "none"
	}
	return "both"
}

func parseSenders(s string) (Senders, bool) {
	switch s {
	case "both", "":
		return SendersBoth, true
	case "initiator":
		return SendersInitiator, true
	case "responder":
		return SendersResponder, true
	case "none":
		return SendersNone, true
	}
	return SendersBoth, false
}

// TransportState tracks transport negotiation for a single content.
type TransportState int

// A list of transport states.
const (
	TransportNew TransportState = iota
	TransportGathering
	TransportConnected
)

func (t TransportState) String() string {
	switch t {
	case TransportNew:
		return "new"
	case TransportGathering:
		return "gathering"
	case TransportConnected:
		return "connected"
	}
	return "TransportState(" + strconv.Itoa(int(t)) + ")"
}

// Content is one media stream within a session.
// Contents are created and destroyed by their session; their name is unique
// within it.
type Content struct {
	session     *Session
	name        string
	media       MediaType
	creator     Creator
	senders     Senders
	contentNS   string
	transportNS string
	createdByUs bool
	transport   TransportState

	// announced is set once the peer has been told about the content, either
	// because it proposed it or because it was included in an outbound
	// initiate, accept or content-add.
	announced bool
}

// Name returns the content name.
func (c *Content) Name() string { return c.name }

// MediaType returns the kind of media carried by the content.
func (c *Content) MediaType() MediaType { return c.media }

// Creator returns the party that proposed the content.
func (c *Content) Creator() Creator { return c.creator }

// Senders returns the current senders mode.
func (c *Content) Senders() Senders { return c.senders }

// ContentNS returns the namespace of the application description.
func (c *Content) ContentNS() string { return c.contentNS }

// TransportNS returns the namespace of the transport.
func (c *Content) TransportNS() string { return c.transportNS }

// CreatedByUs reports whether the content was added locally.
func (c *Content) CreatedByUs() bool { return c.createdByUs }

// TransportState returns the transport negotiation state.
func (c *Content) TransportState() TransportState { return c.transport }

// Session returns the session that owns the content.
// It is nil once the content has been removed.
func (c *Content) Session() *Session { return c.session }

// SetTransportState records progress made by the media layer.
// The state only moves forward.
func (c *Content) SetTransportState(t TransportState) {
	if t > c.transport {
		c.transport = t
	}
}

func (c *Content) desc() ContentDesc {
	return ContentDesc{
		Name:        c.name,
		Creator:     c.creator,
		Senders:     c.senders,
		Media:       c.media,
		ContentNS:   c.contentNS,
		TransportNS: c.transportNS,
	}
}
