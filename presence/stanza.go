// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package presence

import (
	"encoding/xml"
	"errors"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"mellium.im/xmlstream"
	"mellium.im/xmpp/stanza"
)

// ErrNotStatus is returned by Parse for presence stanzas that do not carry
// availability, such as subscription requests.
var ErrNotStatus = errors.New("presence: not a status update")

// Stanza returns the presence that announces the aggregate status as
// resource.
// The stanza is unavailable if the contact is offline and carries the
// resource's priority if it is not zero.
func (p *Presence) Stanza(resource string) (xml.TokenReader, error) {
	r := p.find(resource)
	if r == nil {
		return nil, ErrUnknownResource
	}

	typ := stanza.AvailablePresence
	if p.status == StatusOffline {
		typ = stanza.UnavailablePresence
	}
	var inner []xml.TokenReader
	if show := p.status.show(); show != "" {
		inner = append(inner, textElement("show", show))
	}
	if p.message != nil {
		inner = append(inner, textElement("status", *p.message))
	}
	if r.Priority != 0 {
		inner = append(inner, textElement("priority", strconv.Itoa(int(r.Priority))))
	}
	return stanza.Presence{Type: typ}.Wrap(xmlstream.MultiReader(inner...)), nil
}

func textElement(local, text string) xml.TokenReader {
	return xmlstream.Wrap(
		xmlstream.Token(xml.CharData(text)),
		xml.StartElement{Name: xml.Name{Local: local}},
	)
}

// Report is a decoded presence stanza.
type Report struct {
	Resource string
	Status   Status
	Message  *string
	Priority int8

	// Caps holds the capabilities named by legacy entity caps bundles.
	Caps Caps
}

type wireStatus struct {
	Lang string `xml:"http://www.w3.org/XML/1998/namespace lang,attr"`
	Text string `xml:",chardata"`
}

type wirePresence struct {
	Show     string       `xml:"show"`
	Status   []wireStatus `xml:"status"`
	Priority string       `xml:"priority"`
	Caps     *struct {
		Node string `xml:"node,attr"`
		Ext  string `xml:"ext,attr"`
	} `xml:"http://jabber.org/protocol/caps c"`
}

// Parse decodes the presence element that starts with start from r.
//
// If the presence has several status elements the one whose language best
// matches prefs is used; when nothing matches the first one wins.
// Presence stanzas that are neither available nor unavailable result in
// ErrNotStatus.
func Parse(p stanza.Presence, r xml.TokenReader, start *xml.StartElement, prefs []language.Tag) (Report, error) {
	if p.Type != stanza.AvailablePresence && p.Type != stanza.UnavailablePresence {
		return Report{}, ErrNotStatus
	}
	var w wirePresence
	d := xml.NewTokenDecoder(xmlstream.MultiReader(xmlstream.Token(*start), r))
	if err := d.Decode(&w); err != nil {
		return Report{}, err
	}

	rep := Report{
		Resource: p.From.Resourcepart(),
		Status:   ParseShow(w.Show, p.Type),
	}
	if w.Priority != "" {
		// Out of range priorities are clamped.
		prio, err := strconv.ParseInt(strings.TrimSpace(w.Priority), 10, 8)
		var numErr *strconv.NumError
		if err != nil && (!errors.As(err, &numErr) || numErr.Err != strconv.ErrRange) {
			return Report{}, err
		}
		rep.Priority = int8(prio)
	}
	if len(w.Status) > 0 {
		msg := pickStatus(w.Status, prefs).Text
		rep.Message = &msg
	}
	if w.Caps != nil {
		rep.Caps = ParseExt(w.Caps.Ext)
	}
	return rep, nil
}

func pickStatus(statuses []wireStatus, prefs []language.Tag) wireStatus {
	if len(statuses) == 1 || len(prefs) == 0 {
		return statuses[0]
	}
	tags := make([]language.Tag, 0, len(statuses))
	for _, s := range statuses {
		tag, err := language.Parse(s.Lang)
		if err != nil {
			tag = language.Und
		}
		tags = append(tags, tag)
	}
	_, idx, conf := language.NewMatcher(tags).Match(prefs...)
	if conf == language.No {
		return statuses[0]
	}
	return statuses[idx]
}
