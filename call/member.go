// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package call

import (
	"github.com/rs/zerolog"
	"mellium.im/xmpp/jid"

	"mellium.im/jingle"
	"mellium.im/jingle/handle"
	"mellium.im/jingle/internal/event"
	"mellium.im/jingle/internal/ns"
)

// MemberContent is a member's view of one session content.
type MemberContent struct {
	member  *Member
	content *jingle.Content
	name    string
	media   jingle.MediaType
}

// Name returns the content name.
func (mc *MemberContent) Name() string { return mc.name }

// MediaType returns the kind of media carried by the content.
func (mc *MemberContent) MediaType() jingle.MediaType { return mc.media }

// JingleContent returns the underlying session content.
func (mc *MemberContent) JingleContent() *jingle.Content { return mc.content }

// Member returns the member that owns the content.
func (mc *MemberContent) Member() *Member { return mc.member }

// Member is one remote participant of a call.
type Member struct {
	handle  handle.Handle
	peer    jid.JID
	dialect jingle.Dialect
	manager *jingle.Manager
	logger  zerolog.Logger

	session  *jingle.Session
	contents []*MemberContent
	subs     event.Group

	contentAdded   event.Emitter[*MemberContent]
	contentRemoved event.Emitter[*MemberContent]
}

// NewMember creates a member for the contact h reachable at peer.
// Sessions started by the member are created through m using dialect d.
func NewMember(h handle.Handle, peer jid.JID, d jingle.Dialect, m *jingle.Manager, logger zerolog.Logger) *Member {
	return &Member{
		handle:  h,
		peer:    peer,
		dialect: d,
		manager: m,
		logger:  logger.With().Stringer("handle", h).Str("peer", peer.String()).Logger(),
	}
}

// Handle returns the contact handle.
func (m *Member) Handle() handle.Handle { return m.handle }

// Peer returns the address the member's session talks to.
func (m *Member) Peer() jid.JID { return m.peer }

// Session returns the member's session or nil if it has none yet.
func (m *Member) Session() *jingle.Session { return m.session }

// Contents returns a copy of the member contents in session order.
func (m *Member) Contents() []*MemberContent {
	out := make([]*MemberContent, len(m.contents))
	copy(out, m.contents)
	return out
}

// OnContentAdded calls f for every content that joins the member's session
// after it was attached.
func (m *Member) OnContentAdded(f func(*MemberContent)) event.Subscription {
	return m.contentAdded.Subscribe(f)
}

// OnContentRemoved calls f for every content explicitly removed from the
// member's session.
func (m *Member) OnContentRemoved(f func(*MemberContent)) event.Subscription {
	return m.contentRemoved.Subscribe(f)
}

func contentNamespaces(d jingle.Dialect, media jingle.MediaType) (contentNS, transportNS string) {
	if d == jingle.DialectGTalk {
		if media == jingle.MediaVideo {
			return ns.GoogleVideo, ns.GoogleP2P
		}
		return ns.GooglePhone, ns.GoogleP2P
	}
	return ns.JingleRTP, ns.ICEUDP
}

// StartSession creates a session, proposes the requested media and sends the
// initiate.
// It fails with jingle.ErrCapabilityMismatch if no media is requested and
// with jingle.ErrInvalidTransition if the member already has a session.
func (m *Member) StartSession(wantsAudio, wantsVideo bool) error {
	if m.session != nil {
		return jingle.ErrInvalidTransition
	}
	var media []jingle.MediaType
	switch {
	case m.dialect == jingle.DialectGTalk && wantsVideo:
		// A single Google Talk video content carries the audio as well.
		media = append(media, jingle.MediaVideo)
	default:
		if wantsAudio {
			media = append(media, jingle.MediaAudio)
		}
		if wantsVideo {
			media = append(media, jingle.MediaVideo)
		}
	}
	if len(media) == 0 {
		return jingle.ErrCapabilityMismatch
	}

	s := m.manager.NewSession(m.peer, m.dialect)
	m.SetSession(s)
	for _, mt := range media {
		if _, err := m.AddContent(mt); err != nil {
			m.abort(err)
			return err
		}
	}
	if err := s.Initiate(); err != nil {
		m.abort(err)
		return err
	}
	return nil
}

func (m *Member) abort(err error) {
	m.logger.Warn().Err(err).Msg("could not start session")
	if err := m.session.Terminate(jingle.ReasonGeneralError); err != nil {
		m.logger.Debug().Err(err).Msg("could not terminate session")
	}
}

// SetSession attaches an existing session to the member and mirrors its
// contents.
// Mirrored contents are not reported through OnContentAdded.
func (m *Member) SetSession(s *jingle.Session) {
	m.subs.Close()
	m.session = s
	m.contents = nil
	for _, c := range s.Contents() {
		m.contents = append(m.contents, m.wrap(c))
	}
	m.subs.Add(s.OnContentAdded(m.onContentAdded))
	m.subs.Add(s.OnContentRemoved(m.onContentRemoved))
	m.subs.Add(s.OnStateChanged(m.onStateChanged))
}

// AddContent proposes a new local content on the member's session.
func (m *Member) AddContent(media jingle.MediaType) (*MemberContent, error) {
	if m.session == nil {
		return nil, jingle.ErrInvalidTransition
	}
	contentNS, transportNS := contentNamespaces(m.dialect, media)
	c, err := m.session.AddContent(media, contentNS, transportNS)
	if err != nil {
		return nil, err
	}
	if mc := m.find(c); mc != nil {
		return mc, nil
	}
	// The session dropped the content again before we could see it.
	return nil, jingle.ErrInvalidTransition
}

func (m *Member) wrap(c *jingle.Content) *MemberContent {
	return &MemberContent{member: m, content: c, name: c.Name(), media: c.MediaType()}
}

func (m *Member) find(c *jingle.Content) *MemberContent {
	for _, mc := range m.contents {
		if mc.content == c {
			return mc
		}
	}
	return nil
}

func (m *Member) onContentAdded(c *jingle.Content) {
	mc := m.wrap(c)
	m.contents = append(m.contents, mc)
	m.logger.Debug().Str("content", mc.name).Bool("local", c.CreatedByUs()).Msg("member content added")
	m.contentAdded.Emit(mc)
}

func (m *Member) onContentRemoved(c *jingle.Content) {
	for i, mc := range m.contents {
		if mc.content == c {
			m.contents = append(m.contents[:i], m.contents[i+1:]...)
			m.contentRemoved.Emit(mc)
			return
		}
	}
}

func (m *Member) onStateChanged(st jingle.State) {
	if st == jingle.StateEnded {
		m.contents = nil
	}
}

// Close releases the member's subscriptions on its session.
// The session itself is left alone.
func (m *Member) Close() {
	m.subs.Close()
	m.contentAdded.Clear()
	m.contentRemoved.Clear()
}
