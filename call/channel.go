// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package call

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/tevino/abool"

	"mellium.im/jingle"
	"mellium.im/jingle/handle"
	"mellium.im/jingle/internal/event"
)

// Errors returned when constructing channels.
var (
	ErrNoMember = errors.New("call: channel needs a member")
	ErrNoOrigin = errors.New("call: unknown channel origin")
	ErrClosed   = errors.New("call: closed")
)

// Origin says where the session of a new channel comes from.
// It is either Fresh or FromExistingSession.
type Origin interface {
	origin()
}

// Fresh starts a new outgoing session with the requested media unless the
// member already has one.
type Fresh struct {
	WantsAudio bool
	WantsVideo bool
}

func (Fresh) origin() {}

// FromExistingSession wraps a session that already exists, typically one
// initiated by the peer.
type FromExistingSession struct {
	Session *jingle.Session
}

func (FromExistingSession) origin() {}

// Observer receives the externally visible events of a channel.
type Observer interface {
	ContentAdded(ch *Channel, c *Content)
	ContentRemoved(ch *Channel, c *Content)
	StateChanged(ch *Channel, st State)
	Closed(ch *Channel)
}

// Registrar publishes channels once their initial contents are known.
type Registrar interface {
	Register(ctx context.Context, ch *Channel) error
}

// RegistrarFunc adapts a function to the Registrar interface.
type RegistrarFunc func(ctx context.Context, ch *Channel) error

// Register calls f(ctx, ch).
func (f RegistrarFunc) Register(ctx context.Context, ch *Channel) error {
	return f(ctx, ch)
}

type nopObserver struct{}

func (nopObserver) ContentAdded(*Channel, *Content)   {}
func (nopObserver) ContentRemoved(*Channel, *Content) {}
func (nopObserver) StateChanged(*Channel, State)      {}
func (nopObserver) Closed(*Channel)                   {}

// Params configures a new channel.
type Params struct {
	// Member is the remote participant. It is required.
	Member *Member
	Origin Origin

	// Observer and Registrar are optional.
	Observer  Observer
	Registrar Registrar
	Logger    zerolog.Logger
}

// base is the call state and content list shared by every kind of channel.
type base struct {
	state    State
	contents []*Content
}

// State returns the call state.
func (b *base) State() State { return b.state }

// Contents returns a copy of the channel contents.
func (b *base) Contents() []*Content {
	out := make([]*Content, len(b.contents))
	copy(out, b.contents)
	return out
}

// Content returns the content with the given name.
func (b *base) Content(name string) (*Content, bool) {
	for _, c := range b.contents {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}

func (b *base) advance(next State) bool {
	if next <= b.state {
		return false
	}
	b.state = next
	return true
}

func (b *base) contentFor(mc *MemberContent) *Content {
	for _, c := range b.contents {
		if c.has(mc) {
			return c
		}
	}
	return nil
}

func (b *base) removeContent(c *Content) {
	for i, other := range b.contents {
		if other == c {
			b.contents = append(b.contents[:i], b.contents[i+1:]...)
			return
		}
	}
}

// Channel is a call with one remote member.
type Channel struct {
	base

	member       *Member
	initialAudio bool
	initialVideo bool
	observer     Observer
	logger       zerolog.Logger

	subs     event.Group
	closed   *abool.AtomicBool
	onState  event.Emitter[State]
	onClosed event.Emitter[*Channel]
}

// NewChannel creates a channel for p.Member.
//
// The member's session contents are mirrored as Initial contents and only
// then is the channel handed to the registrar.
// Failures to start or attach the session, or to register, abort the
// construction and are returned.
func NewChannel(ctx context.Context, p Params) (*Channel, error) {
	m := p.Member
	if m == nil {
		return nil, ErrNoMember
	}

	switch o := p.Origin.(type) {
	case Fresh:
		if m.Session() == nil {
			if err := m.StartSession(o.WantsAudio, o.WantsVideo); err != nil {
				return nil, err
			}
		}
	case FromExistingSession:
		if o.Session == nil {
			return nil, ErrNoOrigin
		}
		if m.Session() != o.Session {
			m.SetSession(o.Session)
		}
	default:
		return nil, ErrNoOrigin
	}
	s := m.Session()
	if s.State() == jingle.StateEnded {
		return nil, jingle.ErrEnded
	}

	ch := &Channel{
		member:   m,
		observer: p.Observer,
		logger:   p.Logger.With().Stringer("handle", m.Handle()).Str("sid", s.SID()).Logger(),
		closed:   abool.New(),
	}
	if ch.observer == nil {
		ch.observer = nopObserver{}
	}
	ch.state = StatePending
	ch.advance(project(s.State()))

	for _, mc := range m.Contents() {
		ch.contents = append(ch.contents, newContent(mc, DispositionInitial))
		switch mc.MediaType() {
		case jingle.MediaAudio:
			ch.initialAudio = true
		case jingle.MediaVideo:
			ch.initialVideo = true
		}
	}
	ch.subs.Add(m.OnContentAdded(ch.onMemberContentAdded))
	ch.subs.Add(m.OnContentRemoved(ch.onMemberContentRemoved))
	ch.subs.Add(s.OnStateChanged(ch.onSessionState))

	if err := ctx.Err(); err != nil {
		ch.subs.Close()
		return nil, err
	}
	if p.Registrar != nil {
		if err := p.Registrar.Register(ctx, ch); err != nil {
			ch.subs.Close()
			return nil, err
		}
	}
	statsChannelsTotal.WithLabelValues(direction(s)).Inc()
	statsChannelsCurrent.Inc()
	ch.logger.Debug().Int("contents", len(ch.contents)).Msg("channel created")
	return ch, nil
}

func direction(s *jingle.Session) string {
	if s.IsInitiator() {
		return "outgoing"
	}
	return "incoming"
}

// Handle returns the handle of the remote member.
func (ch *Channel) Handle() handle.Handle { return ch.member.Handle() }

// Member returns the remote member.
func (ch *Channel) Member() *Member { return ch.member }

// Session returns the session behind the channel.
func (ch *Channel) Session() *jingle.Session { return ch.member.Session() }

// InitialAudio reports whether the call was set up with audio.
func (ch *Channel) InitialAudio() bool { return ch.initialAudio }

// InitialVideo reports whether the call was set up with video.
func (ch *Channel) InitialVideo() bool { return ch.initialVideo }

// IsClosed reports whether Close was called.
func (ch *Channel) IsClosed() bool { return ch.closed.IsSet() }

// OnStateChanged calls f after every call state transition.
func (ch *Channel) OnStateChanged(f func(State)) event.Subscription {
	return ch.onState.Subscribe(f)
}

// OnClosed calls f once the channel is closed.
func (ch *Channel) OnClosed(f func(*Channel)) event.Subscription {
	return ch.onClosed.Subscribe(f)
}

func (ch *Channel) addContent(mc *MemberContent, d Disposition) *Content {
	c := newContent(mc, d)
	ch.contents = append(ch.contents, c)
	statsContentsTotal.WithLabelValues(c.media.String(), d.String()).Inc()
	ch.logger.Debug().Str("content", c.name).Stringer("disposition", d).Msg("content added")
	ch.observer.ContentAdded(ch, c)
	return c
}

func (ch *Channel) onMemberContentAdded(mc *MemberContent) {
	jc := mc.JingleContent()
	// Local contents were announced by whoever created them.
	if jc == nil || jc.CreatedByUs() {
		return
	}
	ch.addContent(mc, DispositionNone)
}

func (ch *Channel) onMemberContentRemoved(mc *MemberContent) {
	c := ch.contentFor(mc)
	if c == nil {
		return
	}
	if c.drop(mc) {
		ch.removeContent(c)
		ch.logger.Debug().Str("content", c.name).Msg("content removed")
		ch.observer.ContentRemoved(ch, c)
	}
}

func (ch *Channel) onSessionState(st jingle.State) {
	switch st {
	case jingle.StateActive:
		ch.setState(StateAccepted)
	case jingle.StateEnded:
		ch.setState(StateEnded)
	}
}

func (ch *Channel) setState(next State) {
	if !ch.advance(next) {
		return
	}
	ch.logger.Debug().Stringer("state", next).Msg("call state changed")
	ch.observer.StateChanged(ch, next)
	ch.onState.Emit(next)
}

// Accept answers the call.
func (ch *Channel) Accept() error {
	s := ch.Session()
	if s == nil {
		return jingle.ErrInvalidTransition
	}
	return s.Accept()
}

// AddContent proposes a new local media stream.
func (ch *Channel) AddContent(media jingle.MediaType) (*Content, error) {
	if ch.closed.IsSet() {
		return nil, ErrClosed
	}
	mc, err := ch.member.AddContent(media)
	if err != nil {
		return nil, err
	}
	return ch.addContent(mc, DispositionNone), nil
}

// RemoveContent removes a media stream from the call.
func (ch *Channel) RemoveContent(c *Content) {
	s := ch.Session()
	if s == nil {
		return
	}
	for _, mc := range c.MemberContents() {
		s.RemoveContent(mc.JingleContent())
	}
}

// Hangup terminates the session with reason.
func (ch *Channel) Hangup(reason jingle.Reason) error {
	s := ch.Session()
	if s == nil {
		ch.setState(StateEnded)
		return nil
	}
	return s.Terminate(reason)
}

// Close hangs up if the call is still running, releases every subscription
// and tells the observer.
// Closing a channel more than once does nothing.
func (ch *Channel) Close() {
	if !ch.closed.SetToIf(false, true) {
		return
	}
	if err := ch.Hangup(jingle.ReasonSuccess); err != nil {
		ch.logger.Warn().Err(err).Msg("could not hang up")
	}
	ch.setState(StateEnded)
	ch.subs.Close()
	statsChannelsCurrent.Dec()
	ch.logger.Debug().Msg("channel closed")
	ch.observer.Closed(ch)
	ch.onClosed.Emit(ch)
	ch.onClosed.Clear()
	ch.onState.Clear()
}
