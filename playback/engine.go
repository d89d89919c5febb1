package playback

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nothinking/movietalk/subtitle"
)

// PollInterval is the period of the transport-position poll. The poll
// runs only while the transport reports playing and is the sole driver
// of loop and continuous-play transitions.
const PollInterval = 100 * time.Millisecond

// Transport is the slice of the player adapter the engine drives.
type Transport interface {
	CurrentTime() float64
	SeekTo(t float64)
	Play()
	Pause()
	Playing() bool
}

// Hooks are the engine's callbacks into the owning session. They are
// invoked synchronously from Tick on the session goroutine.
type Hooks struct {
	// StudyActive reports whether the study cursor, not transport time,
	// drives navigation right now.
	StudyActive func() bool
	// Cursor returns the study cursor position.
	Cursor func() int
	// SetCursor moves the study cursor (continuous-play advance).
	SetCursor func(pos int)
	// SetHash updates the location fragment for a subtitle position.
	// Always a replace, never a push, from the engine.
	SetHash func(pos int)
	// ModeChanged observes every mode transition.
	ModeChanged func(m Mode)
}

// Engine tracks transport time against the subtitle sequence. It is
// deliberately passive: the session calls Tick at PollInterval while
// playback runs, so every state change happens synchronously on one
// goroutine and tests can drive time by hand.
type Engine struct {
	transport Transport
	sequence  func() subtitle.Sequence
	hooks     Hooks

	mode    Mode
	current float64
	active  int

	// onceEnd is the pending "play one sentence then pause" boundary.
	// At most one is alive; starting another replaces it.
	onceEnd *float64
}

func NewEngine(transport Transport, sequence func() subtitle.Sequence, hooks Hooks) *Engine {
	return &Engine{
		transport: transport,
		sequence:  sequence,
		hooks:     hooks,
		mode:      Normal(),
		active:    -1,
	}
}

// Mode returns the current playback mode.
func (e *Engine) Mode() Mode { return e.mode }

// CurrentTime returns the transport time as of the last Tick.
func (e *Engine) CurrentTime() float64 { return e.current }

// ActivePosition returns the position of the subtitle containing the
// last polled time, or -1 when time falls in a gap.
func (e *Engine) ActivePosition() int { return e.active }

// Transition replaces the playback mode. This is the only mutation
// point, which is what makes loop and continuous play mutually
// exclusive: entering either replaces whatever was active before.
func (e *Engine) Transition(m Mode) {
	if m == e.mode {
		return
	}
	log.Debug().Stringer("from", e.mode).Stringer("to", m).Msg("playback mode transition")
	e.mode = m
	// A pending once-boundary belongs to the mode it was started in.
	e.onceEnd = nil
	if e.hooks.ModeChanged != nil {
		e.hooks.ModeChanged(m)
	}
}

// PlayOnce plays the span [start, end) and pauses at its end. Any
// earlier pending once-boundary is replaced so two listens never race.
func (e *Engine) PlayOnce(start, end float64) {
	e.onceEnd = &end
	e.transport.SeekTo(start)
	e.transport.Play()
}

// CancelOnce drops a pending once-boundary without touching playback.
func (e *Engine) CancelOnce() { e.onceEnd = nil }

// Tick refreshes transport time and runs one step of the loop,
// once-play and continuous-play machines, then re-derives the active
// subtitle and mirrors it into the location hash outside study mode.
func (e *Engine) Tick() {
	t := e.transport.CurrentTime()
	e.current = t
	seq := e.sequence()

	if e.onceEnd != nil && t >= *e.onceEnd {
		e.onceEnd = nil
		e.transport.Pause()
	}

	switch e.mode.Kind {
	case ModeLooping:
		if t >= e.mode.LoopEnd {
			// Playback keeps running; only the position rewinds.
			e.transport.SeekTo(e.mode.LoopStart)
		}
	case ModeContinuous:
		if e.studyActive() {
			e.advanceContinuous(seq, t)
		}
	}

	active := seq.ActiveIndexAt(e.current)
	if active != e.active {
		e.active = active
		if active >= 0 && !e.studyActive() && e.hooks.SetHash != nil {
			e.hooks.SetHash(active)
		}
	}
}

func (e *Engine) advanceContinuous(seq subtitle.Sequence, t float64) {
	cursor := e.hooks.Cursor()
	if cursor < 0 || cursor >= len(seq) || seq[cursor].End > t {
		return
	}
	if cursor == len(seq)-1 {
		// Terminal condition: ran off the end of the sequence.
		e.Transition(Normal())
		e.transport.Pause()
		return
	}
	next := cursor + 1
	e.hooks.SetCursor(next)
	e.transport.SeekTo(seq[next].Start)
	e.current = seq[next].Start
	if e.hooks.SetHash != nil {
		e.hooks.SetHash(next)
	}
}

func (e *Engine) studyActive() bool {
	return e.hooks.StudyActive != nil && e.hooks.StudyActive()
}
