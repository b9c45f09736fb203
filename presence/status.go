// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package presence

import (
	"strconv"
	"strings"

	"mellium.im/xmpp/stanza"
)

// Status is how available a resource is.
// Higher values are "more present".
type Status int

// A list of statuses, from least to most present.
const (
	StatusOffline Status = iota
	StatusHidden
	StatusXA
	StatusAway
	StatusDND
	StatusAvailable
	StatusChat
)

var statusNames = [...]string{
	StatusOffline:   "offline",
	StatusHidden:    "hidden",
	StatusXA:        "xa",
	StatusAway:      "away",
	StatusDND:       "dnd",
	StatusAvailable: "available",
	StatusChat:      "chat",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "Status(" + strconv.Itoa(int(s)) + ")"
	}
	return statusNames[s]
}

// show returns the value of the show element for s.
// Statuses without a show element return the empty string.
func (s Status) show() string {
	switch s {
	case StatusAway, StatusXA, StatusDND, StatusChat:
		return s.String()
	}
	return ""
}

// ParseShow returns the status described by a show element and presence
// type.
// Unknown show values are treated as plain availability.
func ParseShow(show string, typ stanza.PresenceType) Status {
	if typ == stanza.UnavailablePresence {
		return StatusOffline
	}
	switch strings.TrimSpace(show) {
	case "away":
		return StatusAway
	case "xa":
		return StatusXA
	case "dnd":
		return StatusDND
	case "chat":
		return StatusChat
	}
	return StatusAvailable
}

// Caps is a set of signaling capabilities advertised by a resource.
type Caps uint32

// A list of capabilities.
const (
	CapGoogleTransportP2P Caps = 1 << iota
	CapGoogleVoice
	CapGoogleVideo
	CapJingleAudio
	CapJingleVideo
	CapICEUDP
	CapRawUDP

	// CapsNone is the empty set.
	CapsNone Caps = 0

	// CapsAudio is the set of capabilities that allow an audio call.
	CapsAudio = CapGoogleVoice | CapJingleAudio

	// CapsVideo is the set of capabilities that allow a video call.
	CapsVideo = CapGoogleVideo | CapJingleVideo
)

// Has reports whether c contains every bit of other.
func (c Caps) Has(other Caps) bool {
	return c&other == other
}

// extCaps maps legacy entity capability bundle names to capabilities.
var extCaps = map[string]Caps{
	"voice-v1":     CapGoogleVoice | CapGoogleTransportP2P,
	"video-v1":     CapGoogleVideo | CapGoogleTransportP2P,
	"jingle-audio": CapJingleAudio,
	"jingle-video": CapJingleVideo,
}

// ParseExt returns the capabilities named by a space separated list of legacy
// caps bundles.
// Unknown bundles are ignored.
func ParseExt(ext string) Caps {
	var c Caps
	for _, name := range strings.Fields(ext) {
		c |= extCaps[name]
	}
	return c
}
