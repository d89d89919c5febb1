// Package deeplink encodes the shareable URL fragment that anchors a
// session to a video, a subtitle and a mode:
//
//	#v=<videoId>&s=<subtitleIndex>&m=<mode>
//
// Absent fields are omitted. Decoding never fails; malformed fragments
// decode to the zero state so the back button and hand-typed URLs can
// never crash the session.
package deeplink

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Modes understood in the fragment. "study" is a legacy spelling of
// edit mode and is accepted on read only.
const (
	ModeNone = ""
	ModeEdit = "edit"
)

// NoSubtitle marks an absent subtitle index.
const NoSubtitle = -1

// State is the decoded fragment. An empty VideoID means the fragment
// does not reference a video at all (list view).
type State struct {
	VideoID       string
	SubtitleIndex int
	Mode          string
}

// Encode renders the state as a fragment, leading '#' included. Fields
// at their zero value are omitted.
func Encode(s State) string {
	if s.VideoID == "" {
		return "#"
	}
	var b strings.Builder
	b.WriteString("#v=")
	b.WriteString(url.QueryEscape(s.VideoID))
	if s.SubtitleIndex != NoSubtitle {
		fmt.Fprintf(&b, "&s=%d", s.SubtitleIndex)
	}
	if s.Mode != ModeNone {
		b.WriteString("&m=")
		b.WriteString(url.QueryEscape(s.Mode))
	}
	return b.String()
}

// Decode parses a fragment. A missing or malformed `v` yields the zero
// state; a malformed `s` or `m` yields the absent value for that field
// only. Decode never returns an error.
func Decode(fragment string) State {
	s := State{SubtitleIndex: NoSubtitle}
	fragment = strings.TrimPrefix(fragment, "#")
	values, err := url.ParseQuery(fragment)
	if err != nil {
		return s
	}
	v := values.Get("v")
	if v == "" {
		return s
	}
	s.VideoID = v
	if raw := values.Get("s"); raw != "" {
		if idx, err := strconv.Atoi(raw); err == nil && idx >= 0 {
			s.SubtitleIndex = idx
		}
	}
	switch values.Get("m") {
	case ModeEdit, "study":
		s.Mode = ModeEdit
	}
	return s
}

// Location abstracts the address bar: reading the current fragment and
// writing a new one either as a history push or an in-place replace.
type Location interface {
	Fragment() string
	SetFragment(fragment string, push bool)
}

// MemoryLocation is an in-process Location with a history stack. It
// backs tests and headless sessions.
type MemoryLocation struct {
	history []string
	pos     int
}

func NewMemoryLocation() *MemoryLocation {
	return &MemoryLocation{history: []string{"#"}}
}

func (l *MemoryLocation) Fragment() string {
	return l.history[l.pos]
}

func (l *MemoryLocation) SetFragment(fragment string, push bool) {
	if push {
		l.history = append(l.history[:l.pos+1], fragment)
		l.pos++
		return
	}
	l.history[l.pos] = fragment
}

// Back pops one history entry, returning the fragment now current and
// whether there was anywhere to go.
func (l *MemoryLocation) Back() (string, bool) {
	if l.pos == 0 {
		return l.Fragment(), false
	}
	l.pos--
	return l.Fragment(), true
}
