// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package call_test

import (
	"github.com/rs/zerolog"

	"mellium.im/jingle"
	"mellium.im/jingle/call"
	"mellium.im/jingle/internal/jingletest"
)

type recorder struct {
	events []string
	added  []*call.Content
	states []call.State
	closed int
}

func (r *recorder) ContentAdded(_ *call.Channel, c *call.Content) {
	r.events = append(r.events, "added:"+c.Name())
	r.added = append(r.added, c)
}

func (r *recorder) ContentRemoved(_ *call.Channel, c *call.Content) {
	r.events = append(r.events, "removed:"+c.Name())
}

func (r *recorder) StateChanged(_ *call.Channel, st call.State) {
	r.events = append(r.events, "state:"+st.String())
	r.states = append(r.states, st)
}

func (r *recorder) Closed(*call.Channel) {
	r.events = append(r.events, "closed")
	r.closed++
}

func newManager() (*jingle.Manager, *jingletest.Transport) {
	tr := &jingletest.Transport{}
	return jingle.NewManager(tr, jingletest.Local, zerolog.Nop()), tr
}
