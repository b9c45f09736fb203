// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package gateway

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"mellium.im/xmlstream"
	"mellium.im/xmpp/jid"
	"mellium.im/xmpp/stanza"

	"mellium.im/jingle"
	"mellium.im/jingle/internal/loop"
)

// ErrClosed is returned when sending on a closed transport.
var ErrClosed = errors.New("gateway: transport closed")

// IQSender sends an IQ and blocks until the response arrives.
// It is satisfied by *xmpp.Session.
type IQSender interface {
	SendIQElement(ctx context.Context, payload xml.TokenReader, iq stanza.IQ) (xmlstream.TokenReadCloser, error)
}

// DeliverFunc hands a reply back to the session that sent request id.
type DeliverFunc func(peer jid.JID, sid, id string, r jingle.Reply)

// Transport sends signaling messages as IQs.
// Each request runs on its own goroutine and its outcome is posted back to the
// loop that owns the sessions.
type Transport struct {
	sender  IQSender
	loop    *loop.Loop
	deliver DeliverFunc
	timeout time.Duration
	logger  zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewTransport returns a transport that sends over s and delivers replies on l.
// Requests that are not answered within timeout fail with jingle.ErrNoReply.
func NewTransport(s IQSender, l *loop.Loop, deliver DeliverFunc, timeout time.Duration, logger zerolog.Logger) *Transport {
	ctx, cancel := context.WithCancel(context.Background())
	return &Transport{
		sender:  s,
		loop:    l,
		deliver: deliver,
		timeout: timeout,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Send satisfies jingle.Transport.
// It does not block.
func (t *Transport) Send(msg *jingle.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	t.wg.Add(1)
	statsInFlight.Inc()
	go t.roundTrip(*msg)
	return nil
}

func (t *Transport) roundTrip(m jingle.Message) {
	defer t.wg.Done()
	defer statsInFlight.Dec()

	ctx, cancel := context.WithTimeout(t.ctx, t.timeout)
	defer cancel()

	start := time.Now()
	reply := t.exchange(ctx, m)
	statsRoundTripSeconds.WithLabelValues(m.Action.String(), result(reply)).Observe(time.Since(start).Seconds())

	err := t.loop.Execute(func() {
		t.deliver(m.To, m.SID, m.ID, reply)
	})
	if err != nil {
		t.logger.Debug().
			Err(err).
			Str("sid", m.SID).
			Str("id", m.ID).
			Msg("could not deliver reply")
	}
}

func result(r jingle.Reply) string {
	switch {
	case r.Err == nil:
		return "result"
	case errors.Is(r.Err, jingle.ErrNoReply):
		return "timeout"
	default:
		return "error"
	}
}

func (t *Transport) exchange(ctx context.Context, m jingle.Message) jingle.Reply {
	resp, err := t.sender.SendIQElement(ctx, m.Payload(), m.IQ)
	if err != nil {
		return jingle.Reply{Err: fmt.Errorf("%w: %v", jingle.ErrNoReply, err)}
	}
	defer func() {
		if err := resp.Close(); err != nil {
			t.logger.Debug().Err(err).Str("id", m.ID).Msg("error closing response")
		}
	}()
	return readReply(resp)
}

// readReply decodes the header of an IQ response and, for error responses,
// its stanza error.
func readReply(r xml.TokenReader) jingle.Reply {
	var start xml.StartElement
	for {
		tok, err := r.Token()
		if err != nil {
			return jingle.Reply{Err: fmt.Errorf("%w: %v", jingle.ErrNoReply, err)}
		}
		if s, ok := tok.(xml.StartElement); ok {
			start = s
			break
		}
	}
	iq, err := stanza.NewIQ(start)
	if err != nil {
		return jingle.Reply{Err: fmt.Errorf("%w: %v", jingle.ErrNoReply, err)}
	}
	if iq.Type != stanza.ErrorIQ {
		return jingle.Reply{IQ: iq}
	}

	d := xml.NewTokenDecoder(xmlstream.Inner(r))
	for {
		tok, err := d.Token()
		if err != nil {
			break
		}
		child, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if child.Name.Local != "error" {
			if err := d.Skip(); err != nil {
				break
			}
			continue
		}
		var se stanza.Error
		if err := d.DecodeElement(&se, &child); err != nil {
			break
		}
		return jingle.Reply{IQ: iq, Err: se}
	}
	return jingle.Reply{IQ: iq, Err: stanza.Error{Type: stanza.Cancel, Condition: stanza.UndefinedCondition}}
}

// Close aborts outstanding requests and waits until their outcome has been
// posted.
func (t *Transport) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.mu.Unlock()

	t.cancel()
	t.wg.Wait()
}
