// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jingle

import (
	"encoding/xml"

	"mellium.im/xmlstream"
	"mellium.im/xmpp/jid"
	"mellium.im/xmpp/stanza"

	"mellium.im/jingle/internal/ns"
)

// Reason is the condition carried by a session-terminate.
type Reason string

// A list of termination reasons.
const (
	ReasonNone              Reason = ""
	ReasonSuccess           Reason = "success"
	ReasonDecline           Reason = "decline"
	ReasonBusy              Reason = "busy"
	ReasonCancel            Reason = "cancel"
	ReasonGone              Reason = "gone"
	ReasonTimeout           Reason = "timeout"
	ReasonConnectivityError Reason = "connectivity-error"
	ReasonFailedApplication Reason = "failed-application"
	ReasonGeneralError      Reason = "general-error"
)

// ContentDesc is the wire description of one content.
type ContentDesc struct {
	Name        string
	Creator     Creator
	Senders     Senders
	Media       MediaType
	ContentNS   string
	TransportNS string
}

// Message is a single signaling message.
// It is sent as the payload of an IQ set and correlated with its session by
// the session ID.
type Message struct {
	stanza.IQ

	Dialect   Dialect
	Action    Action
	SID       string
	Initiator jid.JID
	Responder jid.JID
	Contents  []ContentDesc
	Reason    Reason
}

// TokenReader satisfies the xmlstream.Marshaler interface.
// Messages with actions that the dialect cannot express result in an empty
// payload; use Validate to detect this before sending.
func (m Message) TokenReader() xml.TokenReader {
	iq := m.IQ
	iq.Type = stanza.SetIQ
	return iq.Wrap(m.Payload())
}

// Payload returns the session element without the wrapping IQ.
func (m Message) Payload() xml.TokenReader {
	if m.Dialect == DialectGTalk {
		return m.gtalkPayload()
	}
	return m.jinglePayload()
}

// WriteXML satisfies the xmlstream.WriterTo interface.
// It is like MarshalXML except it writes tokens to w.
func (m Message) WriteXML(w xmlstream.TokenWriter) (n int, err error) {
	return xmlstream.Copy(w, m.TokenReader())
}

// MarshalXML satisfies the xml.Marshaler interface.
func (m Message) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	_, err := m.WriteXML(e)
	if err != nil {
		return err
	}
	return e.Flush()
}

// Validate reports whether m can be expressed in its dialect.
func (m Message) Validate() error {
	if _, ok := m.Action.Name(m.Dialect); !ok {
		return ErrUnsupportedAction
	}
	if m.SID == "" {
		return parseErrorf("missing session id")
	}
	return nil
}

func attr(local, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: local}, Value: value}
}

func (m Message) jinglePayload() xml.TokenReader {
	name, _ := m.Action.Name(DialectJingle)
	attrs := []xml.Attr{attr("action", name), attr("sid", m.SID)}
	if !m.Initiator.Equal(jid.JID{}) {
		attrs = append(attrs, attr("initiator", m.Initiator.String()))
	}
	if !m.Responder.Equal(jid.JID{}) {
		attrs = append(attrs, attr("responder", m.Responder.String()))
	}

	inner := make([]xml.TokenReader, 0, len(m.Contents)+1)
	for _, c := range m.Contents {
		inner = append(inner, c.tokenReader())
	}
	if m.Reason != ReasonNone {
		inner = append(inner, xmlstream.Wrap(
			xmlstream.Wrap(nil, xml.StartElement{Name: xml.Name{Local: string(m.Reason)}}),
			xml.StartElement{Name: xml.Name{Local: "reason"}},
		))
	}
	return xmlstream.Wrap(
		xmlstream.MultiReader(inner...),
		xml.StartElement{Name: xml.Name{Space: ns.Jingle, Local: "jingle"}, Attr: attrs},
	)
}

func (c ContentDesc) tokenReader() xml.TokenReader {
	attrs := []xml.Attr{
		attr("creator", c.Creator.String()),
		attr("name", c.Name),
	}
	if c.Senders != SendersBoth {
		attrs = append(attrs, attr("senders", c.Senders.String()))
	}

	var inner []xml.TokenReader
	if c.ContentNS != "" {
		var descAttrs []xml.Attr
		if c.ContentNS == ns.JingleRTP {
			descAttrs = append(descAttrs, attr("media", c.Media.String()))
		}
		inner = append(inner, xmlstream.Wrap(nil, xml.StartElement{
			Name: xml.Name{Space: c.ContentNS, Local: "description"},
			Attr: descAttrs,
		}))
	}
	if c.TransportNS != "" {
		inner = append(inner, xmlstream.Wrap(nil, xml.StartElement{
			Name: xml.Name{Space: c.TransportNS, Local: "transport"},
		}))
	}
	return xmlstream.Wrap(
		xmlstream.MultiReader(inner...),
		xml.StartElement{Name: xml.Name{Local: "content"}, Attr: attrs},
	)
}

func (m Message) gtalkPayload() xml.TokenReader {
	name, ok := m.Action.Name(DialectGTalk)
	if !ok {
		return nil
	}
	attrs := []xml.Attr{attr("type", name), attr("id", m.SID)}
	if !m.Initiator.Equal(jid.JID{}) {
		attrs = append(attrs, attr("initiator", m.Initiator.String()))
	}

	var inner xml.TokenReader
	switch m.Action {
	case ActionSessionInitiate, ActionSessionAccept:
		descNS := ns.GooglePhone
		for _, c := range m.Contents {
			if c.Media == MediaVideo {
				descNS = ns.GoogleVideo
			}
		}
		inner = xmlstream.Wrap(nil, xml.StartElement{
			Name: xml.Name{Space: descNS, Local: "description"},
		})
	}
	return xmlstream.Wrap(
		inner,
		xml.StartElement{Name: xml.Name{Space: ns.GoogleSession, Local: "session"}, Attr: attrs},
	)
}

type wireDescription struct {
	XMLName xml.Name
	Media   string `xml:"media,attr"`
}

type wireTransport struct {
	XMLName xml.Name
}

type wireContent struct {
	Creator     string           `xml:"creator,attr"`
	Name        string           `xml:"name,attr"`
	Senders     string           `xml:"senders,attr"`
	Description *wireDescription `xml:"description"`
	Transport   *wireTransport   `xml:"transport"`
}

type wireJingle struct {
	XMLName   xml.Name      `xml:"urn:xmpp:jingle:1 jingle"`
	Action    string        `xml:"action,attr"`
	SID       string        `xml:"sid,attr"`
	Initiator string        `xml:"initiator,attr"`
	Responder string        `xml:"responder,attr"`
	Contents  []wireContent `xml:"content"`
	Reason    *struct {
		Conditions []struct {
			XMLName xml.Name
		} `xml:",any"`
	} `xml:"reason"`
}

type wireGTalk struct {
	XMLName     xml.Name         `xml:"http://www.google.com/session session"`
	Type        string           `xml:"type,attr"`
	ID          string           `xml:"id,attr"`
	Initiator   string           `xml:"initiator,attr"`
	Description *wireDescription `xml:"description"`
}

// IsPayload reports whether name is the session element of a supported
// dialect.
func IsPayload(name xml.Name) bool {
	return (name.Space == ns.Jingle && name.Local == "jingle") ||
		(name.Space == ns.GoogleSession && name.Local == "session")
}

// ParseMessage decodes the session element that starts with start from r.
// The IQ header is copied into the returned message.
// Malformed or unknown payloads result in a *ParseError.
func ParseMessage(iq stanza.IQ, r xml.TokenReader, start *xml.StartElement) (*Message, error) {
	if start == nil || !IsPayload(start.Name) {
		return nil, parseErrorf("not a session payload")
	}
	d := xml.NewTokenDecoder(xmlstream.MultiReader(xmlstream.Token(*start), r))
	m := &Message{IQ: iq}
	var err error
	if start.Name.Space == ns.GoogleSession {
		var w wireGTalk
		if err = d.Decode(&w); err != nil {
			return nil, parseErrorf(err.Error())
		}
		err = m.fromGTalk(w)
	} else {
		var w wireJingle
		if err = d.Decode(&w); err != nil {
			return nil, parseErrorf(err.Error())
		}
		err = m.fromJingle(w)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func parseJID(s string) (jid.JID, error) {
	if s == "" {
		return jid.JID{}, nil
	}
	j, err := jid.Parse(s)
	if err != nil {
		return jid.JID{}, parseErrorf("bad address " + s)
	}
	return j, nil
}

func (m *Message) fromJingle(w wireJingle) error {
	m.Dialect = DialectJingle
	m.SID = w.SID
	m.Action = ParseAction(DialectJingle, w.Action)
	if m.Action == ActionUnknown {
		return parseErrorf("unknown action " + w.Action)
	}
	if m.SID == "" {
		return parseErrorf("missing session id")
	}
	var err error
	if m.Initiator, err = parseJID(w.Initiator); err != nil {
		return err
	}
	if m.Responder, err = parseJID(w.Responder); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(w.Contents))
	for _, wc := range w.Contents {
		if wc.Name == "" {
			return parseErrorf("content without name")
		}
		if _, dup := seen[wc.Name]; dup {
			return parseErrorf("duplicate content " + wc.Name)
		}
		seen[wc.Name] = struct{}{}

		c := ContentDesc{Name: wc.Name}
		var ok bool
		if c.Creator, ok = parseCreator(wc.Creator); !ok {
			return parseErrorf("bad creator " + wc.Creator)
		}
		if c.Senders, ok = parseSenders(wc.Senders); !ok {
			return parseErrorf("bad senders " + wc.Senders)
		}
		if wc.Description != nil {
			c.ContentNS = wc.Description.XMLName.Space
			switch c.ContentNS {
			case ns.JingleRTP:
				c.Media = ParseMediaType(wc.Description.Media)
			case ns.GooglePhone:
				c.Media = MediaAudio
			case ns.GoogleVideo:
				c.Media = MediaVideo
			default:
				return parseErrorf("unsupported application " + c.ContentNS)
			}
		}
		if wc.Transport != nil {
			c.TransportNS = wc.Transport.XMLName.Space
		}
		if (m.Action == ActionSessionInitiate || m.Action == ActionContentAdd) && c.ContentNS == "" {
			return parseErrorf("content " + wc.Name + " has no description")
		}
		m.Contents = append(m.Contents, c)
	}
	if m.Action.expectsContents() && len(m.Contents) == 0 {
		return parseErrorf(w.Action + " without contents")
	}

	if w.Reason != nil {
		for _, cond := range w.Reason.Conditions {
			if cond.XMLName.Local != "text" {
				m.Reason = Reason(cond.XMLName.Local)
				break
			}
		}
	}
	return nil
}

// gtalkContentName is the name given to the single implicit content of a
// Google Talk session.
func gtalkContentName(media MediaType) string {
	return media.String()
}

func (m *Message) fromGTalk(w wireGTalk) error {
	m.Dialect = DialectGTalk
	m.SID = w.ID
	m.Action = ParseAction(DialectGTalk, w.Type)
	if m.Action == ActionUnknown {
		return parseErrorf("unknown action " + w.Type)
	}
	if m.SID == "" {
		return parseErrorf("missing session id")
	}
	if w.Type == gtalkReject {
		m.Reason = ReasonDecline
	}
	var err error
	if m.Initiator, err = parseJID(w.Initiator); err != nil {
		return err
	}

	if w.Description != nil {
		c := ContentDesc{
			ContentNS:   w.Description.XMLName.Space,
			TransportNS: ns.GoogleP2P,
		}
		switch c.ContentNS {
		case ns.GooglePhone:
			c.Media = MediaAudio
		case ns.GoogleVideo:
			c.Media = MediaVideo
		default:
			return parseErrorf("unsupported application " + c.ContentNS)
		}
		c.Name = gtalkContentName(c.Media)
		m.Contents = append(m.Contents, c)
	}
	if m.Action == ActionSessionInitiate && len(m.Contents) == 0 {
		return parseErrorf("initiate without description")
	}
	return nil
}
