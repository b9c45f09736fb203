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
	"mellium.im/jingle/presence"
)

// ErrBusy is returned when a call with the contact already exists.
var ErrBusy = errors.New("call: contact already has a channel")

// FactoryConfig holds the collaborators of a Factory.
type FactoryConfig struct {
	Manager   *jingle.Manager
	Handles   *handle.Repo
	Presence  *presence.Cache
	Observer  Observer
	Registrar Registrar
	Logger    zerolog.Logger
}

// Factory creates channels for outgoing requests and incoming sessions and
// owns them until they close.
// There is at most one channel per contact.
type Factory struct {
	cfg      FactoryConfig
	logger   zerolog.Logger
	channels map[handle.Handle]*Channel
	watches  map[*Channel]*event.Group
	incoming event.Subscription
	closed   *abool.AtomicBool
}

// NewFactory returns a factory that answers sessions announced by
// cfg.Manager.
func NewFactory(cfg FactoryConfig) *Factory {
	f := &Factory{
		cfg:      cfg,
		logger:   cfg.Logger,
		channels: make(map[handle.Handle]*Channel),
		watches:  make(map[*Channel]*event.Group),
		closed:   abool.New(),
	}
	f.incoming = cfg.Manager.OnIncoming(f.onIncoming)
	return f
}

// Lookup returns the channel with the contact h.
func (f *Factory) Lookup(h handle.Handle) (*Channel, bool) {
	ch, ok := f.channels[h]
	return ch, ok
}

// Len returns the number of open channels.
func (f *Factory) Len() int {
	return len(f.channels)
}

func wantedCaps(audio, video bool) presence.Caps {
	var caps presence.Caps
	if audio {
		caps |= presence.CapsAudio
	}
	if video {
		caps |= presence.CapsVideo
	}
	return caps
}

// Request places an outgoing call to the contact h.
// The call goes to the best resource of h that supports the requested media;
// if there is none jingle.ErrCapabilityMismatch is returned.
func (f *Factory) Request(ctx context.Context, h handle.Handle, audio, video bool) (*Channel, error) {
	if f.closed.IsSet() {
		return nil, ErrClosed
	}
	if _, busy := f.channels[h]; busy {
		return nil, ErrBusy
	}
	bare, err := f.cfg.Handles.JID(h)
	if err != nil {
		return nil, err
	}
	want := wantedCaps(audio, video)
	if want == presence.CapsNone {
		return nil, jingle.ErrCapabilityMismatch
	}
	res, ok := f.cfg.Presence.PickResource(h, want)
	if !ok {
		f.logger.Debug().Stringer("handle", h).Msg("no resource can take the call")
		return nil, jingle.ErrCapabilityMismatch
	}
	peer, err := bare.WithResource(res.Name)
	if err != nil {
		return nil, err
	}
	// Other resources of the contact may speak another dialect.
	d := jingle.DialectJingle
	if res.Caps&(presence.CapJingleAudio|presence.CapJingleVideo) == 0 {
		d = jingle.DialectGTalk
	}

	m := NewMember(h, peer, d, f.cfg.Manager, f.logger)
	ch, err := NewChannel(ctx, Params{
		Member:    m,
		Origin:    Fresh{WantsAudio: audio, WantsVideo: video},
		Observer:  f.cfg.Observer,
		Registrar: f.cfg.Registrar,
		Logger:    f.logger,
	})
	if err != nil {
		m.Close()
		if s := m.Session(); s != nil {
			if terr := s.Terminate(jingle.ReasonGeneralError); terr != nil {
				f.logger.Debug().Err(terr).Msg("could not terminate session")
			}
		}
		return nil, err
	}
	if err := f.cfg.Handles.Ref(h); err != nil {
		f.logger.Warn().Err(err).Stringer("handle", h).Msg("could not reference handle")
	}
	f.track(h, ch)
	return ch, nil
}

func (f *Factory) onIncoming(s *jingle.Session) {
	h := f.cfg.Handles.Ensure(s.Peer())
	log := f.logger.With().Stringer("handle", h).Str("sid", s.SID()).Logger()
	if f.closed.IsSet() {
		f.reject(s, h, jingle.ReasonGone)
		return
	}
	if _, busy := f.channels[h]; busy {
		log.Debug().Msg("rejecting call from contact with a running call")
		f.reject(s, h, jingle.ReasonBusy)
		return
	}

	m := NewMember(h, s.Peer(), s.Dialect(), f.cfg.Manager, f.logger)
	ch, err := NewChannel(context.Background(), Params{
		Member:    m,
		Origin:    FromExistingSession{Session: s},
		Observer:  f.cfg.Observer,
		Registrar: f.cfg.Registrar,
		Logger:    f.logger,
	})
	if err != nil {
		log.Warn().Err(err).Msg("could not create channel for incoming session")
		m.Close()
		f.reject(s, h, jingle.ReasonGeneralError)
		return
	}
	f.track(h, ch)
}

func (f *Factory) reject(s *jingle.Session, h handle.Handle, reason jingle.Reason) {
	if err := s.Terminate(reason); err != nil {
		f.logger.Debug().Err(err).Msg("could not terminate session")
	}
	if err := f.cfg.Handles.Unref(h); err != nil {
		f.logger.Debug().Err(err).Msg("could not release handle")
	}
}

// track takes ownership of ch.
// The channel is closed as soon as its call ends so that the contact can be
// called again.
func (f *Factory) track(h handle.Handle, ch *Channel) {
	f.channels[h] = ch
	subs := &event.Group{}
	subs.Add(ch.OnClosed(func(ch *Channel) {
		f.forget(h, ch)
	}))
	subs.Add(ch.OnStateChanged(func(st State) {
		if st == StateEnded {
			ch.Close()
		}
	}))
	f.watches[ch] = subs
}

func (f *Factory) forget(h handle.Handle, ch *Channel) {
	if subs, ok := f.watches[ch]; ok {
		subs.Close()
		delete(f.watches, ch)
	}
	if f.channels[h] == ch {
		delete(f.channels, h)
	}
	ch.Member().Close()
	if err := f.cfg.Handles.Unref(h); err != nil {
		f.logger.Debug().Err(err).Stringer("handle", h).Msg("could not release handle")
	}
}

// CloseAll closes every channel.
// Channels are taken out of the factory before they are torn down, so
// CloseAll returns with the factory empty.
func (f *Factory) CloseAll() {
	channels := f.channels
	f.channels = make(map[handle.Handle]*Channel)
	for _, ch := range channels {
		ch.Close()
	}
}

// Close stops accepting incoming sessions and closes every channel.
func (f *Factory) Close() {
	if !f.closed.SetToIf(false, true) {
		return
	}
	f.incoming.Close()
	f.CloseAll()
}
