// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package ns provides namespace constants that are used by the jingle package
// and other internal packages.
package ns // import "mellium.im/jingle/internal/ns"

// Session signaling namespaces for the two supported dialects.
const (
	Jingle        = "urn:xmpp:jingle:1"
	JingleErrors  = "urn:xmpp:jingle:errors:1"
	GoogleSession = "http://www.google.com/session"
)

// Application (content description) namespaces.
const (
	JingleRTP   = "urn:xmpp:jingle:apps:rtp:1"
	GooglePhone = "http://www.google.com/session/phone"
	GoogleVideo = "http://www.google.com/session/video"
)

// Transport namespaces.
const (
	ICEUDP     = "urn:xmpp:jingle:transports:ice-udp:1"
	RawUDP     = "urn:xmpp:jingle:transports:raw-udp:1"
	GoogleP2P  = "http://www.google.com/transport/p2p"
	GoogleTalk = "http://www.google.com/xmpp/protocol/session"
)

// Miscellaneous namespaces.
const (
	Caps   = "http://jabber.org/protocol/caps"
	Client = "jabber:client"
	XML    = "http://www.w3.org/XML/1998/namespace"
)
