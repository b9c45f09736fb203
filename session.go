// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jingle

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"mellium.im/xmpp/jid"
	"mellium.im/xmpp/stanza"

	"mellium.im/jingle/internal/event"
)

// Option configures a session.
type Option func(*Session)

// WithDialect sets the wire dialect. The default is DialectJingle.
func WithDialect(d Dialect) Option {
	return func(s *Session) {
		s.dialect = d
	}
}

// WithSID sets the session ID.
// By default a random ID is generated.
func WithSID(sid string) Option {
	return func(s *Session) {
		s.sid = sid
	}
}

// AsResponder marks the session as created by the peer.
// Sessions are locally initiated by default.
func AsResponder() Option {
	return func(s *Session) {
		s.initiator = false
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// Session is the negotiation state machine for one exchange between the local
// entity and a peer.
type Session struct {
	tr        Transport
	logger    zerolog.Logger
	local     jid.JID
	peer      jid.JID
	sid       string
	dialect   Dialect
	initiator bool
	state     State
	reason    Reason
	contents  []*Content
	pending   pendingQueue

	stateChanged   event.Emitter[State]
	contentAdded   event.Emitter[*Content]
	contentRemoved event.Emitter[*Content]
}

// NewSession creates a session in state PendingCreated.
func NewSession(tr Transport, local, peer jid.JID, opts ...Option) *Session {
	s := &Session{
		tr:        tr,
		logger:    zerolog.Nop(),
		local:     local,
		peer:      peer,
		initiator: true,
		state:     StatePendingCreated,
	}
	for _, o := range opts {
		o(s)
	}
	if s.sid == "" {
		s.sid = uuid.NewString()
	}
	s.logger = s.logger.With().
		Str("sid", s.sid).
		Str("peer", peer.String()).
		Stringer("dialect", s.dialect).
		Logger()
	statsSessionsTotal.WithLabelValues(s.dialect.String(), s.direction()).Inc()
	return s
}

func (s *Session) direction() string {
	if s.initiator {
		return "outgoing"
	}
	return "incoming"
}

// SID returns the session ID.
func (s *Session) SID() string { return s.sid }

// Peer returns the address of the remote party.
func (s *Session) Peer() jid.JID { return s.peer }

// Local returns the local address.
func (s *Session) Local() jid.JID { return s.local }

// Dialect returns the wire dialect.
func (s *Session) Dialect() Dialect { return s.dialect }

// IsInitiator reports whether the session was started locally.
func (s *Session) IsInitiator() bool { return s.initiator }

// State returns the current negotiation state.
func (s *Session) State() State { return s.state }

// TerminateReason returns the reason the session ended with, if any.
func (s *Session) TerminateReason() Reason { return s.reason }

// Contents returns a copy of the contents in the order they were added.
func (s *Session) Contents() []*Content {
	out := make([]*Content, len(s.contents))
	copy(out, s.contents)
	return out
}

// Content returns the content with the given name.
func (s *Session) Content(name string) (*Content, bool) {
	for _, c := range s.contents {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}

// OnStateChanged calls f after every state transition.
func (s *Session) OnStateChanged(f func(State)) event.Subscription {
	return s.stateChanged.Subscribe(f)
}

// OnContentAdded calls f whenever a content joins the session, whichever side
// proposed it.
func (s *Session) OnContentAdded(f func(*Content)) event.Subscription {
	return s.contentAdded.Subscribe(f)
}

// OnContentRemoved calls f whenever a content is explicitly removed.
// Contents released because the session ended are not reported.
func (s *Session) OnContentRemoved(f func(*Content)) event.Subscription {
	return s.contentRemoved.Subscribe(f)
}

func (s *Session) setState(next State) bool {
	if s.state == StateEnded || next <= s.state {
		s.logger.Debug().
			Stringer("state", s.state).
			Stringer("next", next).
			Msg("refusing backwards state transition")
		return false
	}
	prev := s.state
	s.state = next
	statsStateTransitionsTotal.WithLabelValues(next.String()).Inc()
	s.logger.Debug().Stringer("from", prev).Stringer("to", next).Msg("state changed")
	s.stateChanged.Emit(next)
	if s.state == StateActive {
		s.flushContents()
	}
	return true
}

func (s *Session) localCreator() Creator {
	if s.initiator {
		return CreatorInitiator
	}
	return CreatorResponder
}

func (s *Session) newMessage(a Action) *Message {
	return &Message{Action: a}
}

func (s *Session) address(msg *Message) {
	msg.To = s.peer
	msg.From = s.local
	msg.Type = stanza.SetIQ
	msg.SID = s.sid
	msg.Dialect = s.dialect
	if msg.Action == ActionSessionInitiate || s.dialect == DialectGTalk {
		msg.Initiator = s.initiatorJID()
	}
}

func (s *Session) initiatorJID() jid.JID {
	if s.initiator {
		return s.local
	}
	return s.peer
}

func (s *Session) announce(cs []*Content) []ContentDesc {
	descs := make([]ContentDesc, 0, len(cs))
	for _, c := range cs {
		c.announced = true
		descs = append(descs, c.desc())
	}
	return descs
}

// Send addresses msg to the peer, assigns it a fresh correlation ID and hands
// it to the transport.
//
// If Send returns nil, h (when non-nil) is called exactly once with the reply
// or with ErrNoReply, possibly before Send returns if the transport rejects
// the message.
// Replies are released in the order requests were issued.
// If the session has ended Send returns ErrEnded and h is never called.
func (s *Session) Send(msg *Message, h ReplyHandler) error {
	if s.state == StateEnded {
		return ErrEnded
	}
	s.address(msg)
	if err := msg.Validate(); err != nil {
		return err
	}
	msg.ID = uuid.NewString()
	s.pending.push(msg.ID, msg.Action, h)
	statsMessagesTotal.WithLabelValues(msg.Action.String(), "out").Inc()
	if err := s.tr.Send(msg); err != nil {
		s.logger.Warn().Err(err).Stringer("action", msg.Action).Msg("transport refused message")
		s.Reply(msg.ID, Reply{Err: fmt.Errorf("%w: %v", ErrNoReply, err)})
	}
	return nil
}

// sendOneWay transmits a message whose reply is of no interest.
func (s *Session) sendOneWay(msg *Message) {
	s.address(msg)
	if err := msg.Validate(); err != nil {
		s.logger.Debug().Err(err).Stringer("action", msg.Action).Msg("not sending message")
		return
	}
	msg.ID = uuid.NewString()
	statsMessagesTotal.WithLabelValues(msg.Action.String(), "out").Inc()
	if err := s.tr.Send(msg); err != nil {
		s.logger.Warn().Err(err).Stringer("action", msg.Action).Msg("transport refused message")
	}
}

// Reply delivers the outcome of the request with the given ID.
// Replies for unknown requests or for a session that has ended are dropped.
func (s *Session) Reply(id string, r Reply) {
	if s.state == StateEnded {
		s.logger.Debug().Str("id", id).Msg("dropping reply for ended session")
		return
	}
	ready, ok := s.pending.complete(id, r)
	if !ok {
		s.logger.Debug().Str("id", id).Msg("dropping reply for unknown request")
		return
	}
	for _, req := range ready {
		s.release(req)
	}
}

func (s *Session) release(req *pendingRequest) {
	if errors.Is(req.reply.Err, ErrNoReply) {
		statsNoReplyTotal.WithLabelValues(req.action.String()).Inc()
	}
	if req.handler != nil {
		req.handler(s, req.reply)
	}
}

// Initiate sends the session-initiate carrying every content added so far.
// It is only permitted on a locally created session in state PendingCreated
// that has at least one content.
func (s *Session) Initiate() error {
	if s.state != StatePendingCreated || !s.initiator || len(s.contents) == 0 {
		s.logger.Debug().
			Stringer("state", s.state).
			Int("contents", len(s.contents)).
			Msg("ignoring initiate")
		return ErrInvalidTransition
	}
	msg := s.newMessage(ActionSessionInitiate)
	msg.Contents = s.announce(s.contents)
	s.setState(StatePendingInitiateSent)
	return s.Send(msg, (*Session).onInitiateReply)
}

func (s *Session) onInitiateReply(r Reply) {
	if !r.OK() {
		s.logger.Info().Err(r.Err).Msg("initiate failed")
		s.end(failureReason(r.Err))
		return
	}
	if s.state == StatePendingInitiateSent {
		s.setState(StatePendingInitiated)
	}
}

// Accept answers an inbound session-initiate.
// It is only permitted in state PendingInitiated on a session created by the
// peer that has at least one content; otherwise nothing is sent and
// ErrInvalidTransition is returned.
func (s *Session) Accept() error {
	if s.state != StatePendingInitiated || s.initiator || len(s.contents) == 0 {
		s.logger.Debug().
			Stringer("state", s.state).
			Bool("initiator", s.initiator).
			Int("contents", len(s.contents)).
			Msg("ignoring accept")
		return ErrInvalidTransition
	}
	msg := s.newMessage(ActionSessionAccept)
	msg.Responder = s.local
	msg.Contents = s.announce(s.contents)
	s.setState(StatePendingAcceptSent)
	return s.Send(msg, (*Session).onAcceptReply)
}

func (s *Session) onAcceptReply(r Reply) {
	if !r.OK() {
		s.logger.Info().Err(r.Err).Msg("accept failed")
		s.end(failureReason(r.Err))
		return
	}
	if s.state == StatePendingAcceptSent {
		s.setState(StateActive)
	}
}

func failureReason(err error) Reason {
	if errors.Is(err, ErrNoReply) {
		return ReasonTimeout
	}
	return ReasonConnectivityError
}

// Terminate ends the session, telling the peer unless nothing was sent yet.
// Calling Terminate on a session that has ended does nothing.
func (s *Session) Terminate(reason Reason) error {
	if s.state == StateEnded {
		return nil
	}
	if s.state != StatePendingCreated {
		msg := s.newMessage(ActionSessionTerminate)
		msg.Reason = reason
		s.sendOneWay(msg)
	}
	s.end(reason)
	return nil
}

// end moves to Ended, releases the contents and fails every outstanding
// request with ErrNoReply.
func (s *Session) end(reason Reason) {
	if s.state == StateEnded {
		return
	}
	s.reason = reason
	for _, c := range s.contents {
		c.session = nil
	}
	s.contents = nil
	s.setState(StateEnded)
	for _, req := range s.pending.drain() {
		s.release(req)
	}
}

func (s *Session) contentName(media MediaType) string {
	if s.dialect == DialectGTalk {
		return gtalkContentName(media)
	}
	var base string
	switch media {
	case MediaAudio:
		base = "Audio"
	case MediaVideo:
		base = "Video"
	default:
		base = "Content"
	}
	name := base
	for i := 2; ; i++ {
		if _, exists := s.Content(name); !exists {
			return name
		}
		name = base + " " + strconv.Itoa(i)
	}
}

// AddContent proposes a new local content.
// The content is carried by the next outbound negotiation message: the
// initiate or accept if the session has not reached Active yet, or a
// standalone content-add once it has.
func (s *Session) AddContent(media MediaType, contentNS, transportNS string) (*Content, error) {
	if s.state == StateEnded {
		return nil, ErrInvalidTransition
	}
	if s.dialect == DialectGTalk && (s.state != StatePendingCreated || len(s.contents) > 0) {
		return nil, ErrUnsupportedAction
	}
	c := &Content{
		session:     s,
		name:        s.contentName(media),
		media:       media,
		creator:     s.localCreator(),
		contentNS:   contentNS,
		transportNS: transportNS,
		createdByUs: true,
	}
	s.contents = append(s.contents, c)
	s.logger.Debug().Str("content", c.name).Stringer("media", media).Msg("content added locally")
	s.contentAdded.Emit(c)
	if s.state == StateActive && c.session == s {
		s.sendContentAdd([]*Content{c})
	}
	return c, nil
}

func (s *Session) flushContents() {
	var queued []*Content
	for _, c := range s.contents {
		if !c.announced {
			queued = append(queued, c)
		}
	}
	if len(queued) > 0 {
		s.sendContentAdd(queued)
	}
}

func (s *Session) sendContentAdd(cs []*Content) {
	if s.dialect == DialectGTalk {
		s.logger.Debug().Msg("dialect cannot add contents to a running session")
		return
	}
	msg := s.newMessage(ActionContentAdd)
	msg.Contents = s.announce(cs)
	err := s.Send(msg, func(s *Session, r Reply) {
		if r.OK() {
			return
		}
		for _, c := range cs {
			if c.session == s {
				s.removeContent(c, false)
			}
		}
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("could not send content-add")
	}
}

// RemoveContent removes c from the session.
// If the peer already knows about the content and the session is past
// PendingInitiateSent a content-remove is sent.
// Removing a content that is not part of the session does nothing.
func (s *Session) RemoveContent(c *Content) {
	if c == nil || c.session != s {
		return
	}
	notify := s.state > StatePendingInitiateSent && c.announced
	s.removeContent(c, notify)
}

func (s *Session) removeContent(c *Content, notify bool) {
	idx := -1
	for i, other := range s.contents {
		if other == c {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	s.contents = append(s.contents[:idx], s.contents[idx+1:]...)
	c.session = nil
	if notify {
		msg := s.newMessage(ActionContentRemove)
		msg.Contents = []ContentDesc{c.desc()}
		s.sendOneWay(msg)
	}
	s.logger.Debug().Str("content", c.name).Msg("content removed")
	s.contentRemoved.Emit(c)
}

func (s *Session) fromPeer(from jid.JID) bool {
	if s.peer.Resourcepart() == "" {
		return from.Bare().Equal(s.peer)
	}
	return from.Equal(s.peer)
}

// Parse checks that msg is addressed to this session and returns its action.
// It never changes session state.
func (s *Session) Parse(msg *Message) (Action, error) {
	switch {
	case msg == nil:
		return ActionUnknown, parseErrorf("nil message")
	case msg.SID != s.sid:
		return ActionUnknown, parseErrorf("session id mismatch")
	case msg.Dialect != s.dialect:
		return ActionUnknown, parseErrorf("dialect mismatch")
	case !s.fromPeer(msg.From):
		return ActionUnknown, parseErrorf("unexpected sender " + msg.From.String())
	case msg.Action == ActionUnknown:
		return ActionUnknown, parseErrorf("unknown action")
	}
	return msg.Action, nil
}

// Handle parses msg and applies it.
//
// The returned error is what should be reported back to the peer: a
// *ParseError for messages that cannot be parsed and a stanza.Error for
// messages that are well formed but cannot be applied.
// In both cases the session is left unchanged.
func (s *Session) Handle(msg *Message) error {
	action, err := s.Parse(msg)
	if err != nil {
		s.logger.Debug().Err(err).Msg("dropping unparsable message")
		statsRejectedTotal.WithLabelValues(string(stanza.BadRequest)).Inc()
		return err
	}
	statsMessagesTotal.WithLabelValues(action.String(), "in").Inc()
	if s.state == StateEnded {
		err = errUnknownSess
	} else {
		switch action {
		case ActionSessionInitiate:
			err = s.onInitiate(msg)
		case ActionSessionAccept:
			err = s.onAccept(msg)
		case ActionSessionTerminate:
			s.logger.Debug().Str("reason", string(msg.Reason)).Msg("terminated by peer")
			s.end(msg.Reason)
		case ActionSessionInfo:
		case ActionContentAdd:
			err = s.onContentAdd(msg)
		case ActionContentRemove:
			err = s.onContentRemove(msg)
		case ActionContentAccept:
			err = s.onContentAccept(msg)
		case ActionContentReject:
			err = s.onContentReject(msg)
		case ActionTransportInfo:
			err = s.onTransportInfo(msg)
		default:
			err = errNotSupported
		}
	}
	if err != nil {
		s.logger.Debug().Err(err).Stringer("action", action).Msg("rejecting message")
		statsRejectedTotal.WithLabelValues(string(StanzaError(err).Condition)).Inc()
	}
	return err
}

func (s *Session) addRemoteContent(d ContentDesc) *Content {
	c := &Content{
		session:     s,
		name:        d.Name,
		media:       d.Media,
		creator:     d.Creator,
		senders:     d.Senders,
		contentNS:   d.ContentNS,
		transportNS: d.TransportNS,
		announced:   true,
	}
	s.contents = append(s.contents, c)
	return c
}

func (s *Session) onInitiate(msg *Message) error {
	if s.initiator || s.state != StatePendingCreated {
		return errOutOfOrder
	}
	added := make([]*Content, 0, len(msg.Contents))
	for _, d := range msg.Contents {
		added = append(added, s.addRemoteContent(d))
	}
	for _, c := range added {
		s.contentAdded.Emit(c)
	}
	s.setState(StatePendingInitiated)
	return nil
}

func (s *Session) onAccept(msg *Message) error {
	if !s.initiator || (s.state != StatePendingInitiateSent && s.state != StatePendingInitiated) {
		return errOutOfOrder
	}
	for _, d := range msg.Contents {
		if c, ok := s.Content(d.Name); ok {
			c.senders = d.Senders
		}
	}
	s.setState(StateActive)
	return nil
}

func (s *Session) onContentAdd(msg *Message) error {
	if s.state == StatePendingCreated {
		return errOutOfOrder
	}
	for _, d := range msg.Contents {
		if _, exists := s.Content(d.Name); exists {
			return errConflict
		}
	}
	added := make([]*Content, 0, len(msg.Contents))
	for _, d := range msg.Contents {
		added = append(added, s.addRemoteContent(d))
	}
	for _, c := range added {
		if c.session == s {
			s.contentAdded.Emit(c)
		}
	}
	return nil
}

func (s *Session) lookupAll(descs []ContentDesc) ([]*Content, error) {
	found := make([]*Content, 0, len(descs))
	for _, d := range descs {
		c, ok := s.Content(d.Name)
		if !ok {
			return nil, errNoContent
		}
		found = append(found, c)
	}
	return found, nil
}

func (s *Session) onContentRemove(msg *Message) error {
	found, err := s.lookupAll(msg.Contents)
	if err != nil {
		return err
	}
	for _, c := range found {
		s.removeContent(c, false)
	}
	return nil
}

func (s *Session) onContentAccept(msg *Message) error {
	found, err := s.lookupAll(msg.Contents)
	if err != nil {
		return err
	}
	for i, c := range found {
		c.senders = msg.Contents[i].Senders
	}
	return nil
}

func (s *Session) onContentReject(msg *Message) error {
	found, err := s.lookupAll(msg.Contents)
	if err != nil {
		return err
	}
	for _, c := range found {
		if !c.createdByUs {
			return errOutOfOrder
		}
	}
	for _, c := range found {
		s.removeContent(c, false)
	}
	return nil
}

func (s *Session) onTransportInfo(msg *Message) error {
	if s.dialect == DialectGTalk {
		for _, c := range s.contents {
			c.SetTransportState(TransportGathering)
		}
		return nil
	}
	found, err := s.lookupAll(msg.Contents)
	if err != nil {
		return err
	}
	for _, c := range found {
		c.SetTransportState(TransportGathering)
	}
	return nil
}
