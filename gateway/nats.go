// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package gateway

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"mellium.im/jingle/call"
)

// Channel event names.
const (
	EventContentAdded   = "content-added"
	EventContentRemoved = "content-removed"
	EventStateChanged   = "state-changed"
	EventClosed         = "closed"
)

// Event is the JSON document published for every channel event.
type Event struct {
	Event       string `json:"event"`
	Handle      uint32 `json:"handle"`
	Peer        string `json:"peer"`
	SID         string `json:"sid,omitempty"`
	Content     string `json:"content,omitempty"`
	Media       string `json:"media,omitempty"`
	Disposition string `json:"disposition,omitempty"`
	State       string `json:"state,omitempty"`
}

// Publisher publishes raw messages.
// It is satisfied by *nats.Conn.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSObserver publishes channel events on "<subject>.<handle>".
type NATSObserver struct {
	pub     Publisher
	subject string
	logger  zerolog.Logger
}

var _ call.Observer = (*NATSObserver)(nil)

// NewNATSObserver returns an observer that publishes through pub.
func NewNATSObserver(pub Publisher, subject string, logger zerolog.Logger) *NATSObserver {
	return &NATSObserver{pub: pub, subject: subject, logger: logger}
}

// Connect dials the NATS server at url.
func Connect(url string, logger zerolog.Logger) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("jinglegw"),
		nats.ClosedHandler(func(conn *nats.Conn) {
			if err := conn.LastError(); err != nil {
				logger.Warn().Err(err).Msg("NATS client closed")
				return
			}
			logger.Info().Msg("NATS client closed")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn().Err(err).Msg("NATS client disconnected")
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			logger.Info().
				Str("url", conn.ConnectedUrl()).
				Str("server", conn.ConnectedServerId()).
				Msg("NATS client reconnected")
		}),
	)
}

// Subject returns the subject events for h are published on.
func (o *NATSObserver) Subject(ch *call.Channel) string {
	return o.subject + "." + ch.Handle().String()
}

func (o *NATSObserver) event(name string, ch *call.Channel) Event {
	ev := Event{
		Event:  name,
		Handle: uint32(ch.Handle()),
		Peer:   ch.Member().Peer().String(),
	}
	if s := ch.Session(); s != nil {
		ev.SID = s.SID()
	}
	return ev
}

func (o *NATSObserver) publish(ch *call.Channel, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		o.logger.Error().Err(err).Str("event", ev.Event).Msg("could not encode event")
		return
	}
	if err := o.pub.Publish(o.Subject(ch), data); err != nil {
		o.logger.Warn().Err(err).Str("event", ev.Event).Msg("could not publish event")
		return
	}
	statsPublishedTotal.WithLabelValues(ev.Event).Inc()
}

func (o *NATSObserver) contentEvent(name string, ch *call.Channel, c *call.Content) Event {
	ev := o.event(name, ch)
	ev.Content = c.Name()
	ev.Media = c.MediaType().String()
	ev.Disposition = c.Disposition().String()
	return ev
}

// ContentAdded satisfies call.Observer.
func (o *NATSObserver) ContentAdded(ch *call.Channel, c *call.Content) {
	o.publish(ch, o.contentEvent(EventContentAdded, ch, c))
}

// ContentRemoved satisfies call.Observer.
func (o *NATSObserver) ContentRemoved(ch *call.Channel, c *call.Content) {
	o.publish(ch, o.contentEvent(EventContentRemoved, ch, c))
}

// StateChanged satisfies call.Observer.
func (o *NATSObserver) StateChanged(ch *call.Channel, st call.State) {
	ev := o.event(EventStateChanged, ch)
	ev.State = st.String()
	o.publish(ch, ev)
}

// Closed satisfies call.Observer.
func (o *NATSObserver) Closed(ch *call.Channel) {
	o.publish(ch, o.event(EventClosed, ch))
}
