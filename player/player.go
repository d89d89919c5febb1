// Package player wraps the external video playback widget behind a
// small capability interface. One widget instance exists per video; it
// is destroyed and recreated whenever the video changes rather than
// mutated in place.
package player

import "errors"

// State is the playback state reported by the widget. States other than
// playing, paused and ended are ignored.
type State int

const (
	StateUnstarted State = iota
	StatePlaying
	StatePaused
	StateEnded
)

func (s State) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	default:
		return "unstarted"
	}
}

// Widget is the opaque player capability consumed by the adapter.
type Widget interface {
	Play()
	Pause()
	SeekTo(seconds float64)
	CurrentTime() float64
	Duration() float64
	SetPlaybackRate(rate float64)
	State() State
	Destroy()
}

// Events carries the widget's notification callbacks.
type Events struct {
	OnReady       func()
	OnStateChange func(State)
	OnError       func(error)
}

// Factory builds a widget for a video id with the given callbacks wired.
type Factory func(videoID string, ev Events) (Widget, error)

var ErrDestroyed = errors.New("player adapter destroyed")
