// Package playback holds the synchronization core: it derives the
// active subtitle from transport time and owns the loop and
// continuous-play state machines.
package playback

import "fmt"

// ModeKind discriminates the playback mode variant.
type ModeKind int

const (
	// ModeNormal is plain transport playback.
	ModeNormal ModeKind = iota
	// ModeLooping repeats a fixed span until cancelled.
	ModeLooping
	// ModeContinuous auto-advances through subtitles in study mode.
	ModeContinuous
)

// Mode is the playback mode as a tagged variant. Loop and continuous
// play are mutually exclusive by construction: there is only one mode
// value, and every change goes through Engine.Transition.
type Mode struct {
	Kind      ModeKind
	LoopStart float64
	LoopEnd   float64
}

func Normal() Mode { return Mode{Kind: ModeNormal} }

func Looping(start, end float64) Mode {
	return Mode{Kind: ModeLooping, LoopStart: start, LoopEnd: end}
}

func Continuous() Mode { return Mode{Kind: ModeContinuous} }

func (m Mode) String() string {
	switch m.Kind {
	case ModeLooping:
		return fmt.Sprintf("looping[%g,%g]", m.LoopStart, m.LoopEnd)
	case ModeContinuous:
		return "continuous"
	default:
		return "normal"
	}
}
