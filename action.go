// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package jingle

import (
	"strconv"
)

// Action is the kind of a signaling message.
type Action int

// A list of signaling actions.
const (
	ActionUnknown Action = iota
	ActionSessionInitiate
	ActionSessionAccept
	ActionSessionTerminate
	ActionSessionInfo
	ActionContentAdd
	ActionContentRemove
	ActionContentAccept
	ActionContentReject
	ActionTransportInfo
)

type actionNames struct {
	jingle string
	gtalk  string
}

// Empty names are not representable in that dialect.
var actionTable = [...]actionNames{
	ActionSessionInitiate:  {jingle: "session-initiate", gtalk: "initiate"},
	ActionSessionAccept:    {jingle: "session-accept", gtalk: "accept"},
	ActionSessionTerminate: {jingle: "session-terminate", gtalk: "terminate"},
	ActionSessionInfo:      {jingle: "session-info", gtalk: "info"},
	ActionContentAdd:       {jingle: "content-add"},
	ActionContentRemove:    {jingle: "content-remove"},
	ActionContentAccept:    {jingle: "content-accept"},
	ActionContentReject:    {jingle: "content-reject"},
	ActionTransportInfo:    {jingle: "transport-info", gtalk: "candidates"},
}

// gtalkReject is the Google Talk name for declining an initiate.
// It is received as a terminate.
const gtalkReject = "reject"

// Name returns the wire name of a in dialect d.
// If the action does not exist in d, ok is false.
func (a Action) Name(d Dialect) (name string, ok bool) {
	if a <= ActionUnknown || int(a) >= len(actionTable) {
		return "", false
	}
	switch d {
	case DialectGTalk:
		name = actionTable[a].gtalk
	default:
		name = actionTable[a].jingle
	}
	return name, name != ""
}

func (a Action) String() string {
	if name, ok := a.Name(DialectJingle); ok {
		return name
	}
	return "Action(" + strconv.Itoa(int(a)) + ")"
}

// ParseAction returns the action with the given wire name in dialect d.
// Unknown names result in ActionUnknown.
func ParseAction(d Dialect, name string) Action {
	if d == DialectGTalk && name == gtalkReject {
		return ActionSessionTerminate
	}
	for a := ActionSessionInitiate; int(a) < len(actionTable); a++ {
		if n, ok := a.Name(d); ok && n == name {
			return a
		}
	}
	return ActionUnknown
}

// expectsContents reports whether a message with action a must carry at least
// one content.
func (a Action) expectsContents() bool {
	switch a {
	case ActionSessionInitiate, ActionContentAdd, ActionContentRemove,
		ActionContentAccept, ActionContentReject, ActionTransportInfo:
		return true
	}
	return false
}
