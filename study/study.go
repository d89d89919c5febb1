// Package study holds the sentence-by-sentence review state: an
// explicit cursor over the subtitle sequence, decoupled from transport
// time so a learner can step through sentences while playback is
// paused.
package study

import "github.com/rs/zerolog/log"

// Hooks are the state's callbacks into the owning session. The study
// state never owns playback, hash or edit UI concerns; it reports what
// must happen and the session does it.
type Hooks struct {
	// Pause stops the transport.
	Pause func()
	// SetHash writes the study fragment for a cursor position; push
	// selects history push vs in-place replace.
	SetHash func(pos int, study bool, push bool)
	// ClearMode cancels any loop target or continuous play.
	ClearMode func()
	// LoopActive reports whether a loop target is set.
	LoopActive func() bool
	// RetargetLoop glues an active loop to the subtitle at pos and
	// seeks/plays it.
	RetargetLoop func(pos int)
	// CancelEditUI closes any in-progress edit or split selection.
	CancelEditUI func()
}

// State is the study cursor and mode flag.
type State struct {
	hooks        Hooks
	active       bool
	cursor       int
	bootstrapped bool
}

func New(hooks Hooks) *State {
	return &State{hooks: hooks, cursor: -1}
}

// Active reports whether study mode is on.
func (s *State) Active() bool { return s.active }

// Cursor returns the current cursor position, or -1 outside study mode.
func (s *State) Cursor() int {
	if !s.active {
		return -1
	}
	return s.cursor
}

// SetCursor moves the cursor without side effects. Used by the
// continuous-play advance, which handles seeking and hash itself.
func (s *State) SetCursor(pos int) { s.cursor = pos }

// Enter switches study mode on at the active subtitle, or position 0
// when playback sits in a gap. Playback pauses and the study fragment
// is pushed so the back button leaves study mode.
func (s *State) Enter(activePos int) {
	if s.active {
		return
	}
	s.active = true
	if activePos >= 0 {
		s.cursor = activePos
	} else {
		s.cursor = 0
	}
	s.hooks.Pause()
	s.hooks.SetHash(s.cursor, true, true)
	log.Debug().Int("cursor", s.cursor).Msg("entered study mode")
}

// Exit leaves study mode: any loop or continuous play is cancelled,
// playback pauses, and the hash is restored to the plain
// active-subtitle form.
func (s *State) Exit(activePos int) {
	if !s.active {
		return
	}
	s.active = false
	s.hooks.ClearMode()
	s.hooks.Pause()
	pos := activePos
	if pos < 0 {
		pos = s.cursor
	}
	s.hooks.SetHash(pos, false, false)
}

// Navigate moves the cursor by delta, clamped to the sequence. Any
// in-progress edit or split selection is cancelled, and an active loop
// is retargeted so "repeat" stays glued to the sentence under review.
func (s *State) Navigate(delta, seqLen int) {
	if !s.active || seqLen == 0 {
		return
	}
	next := s.cursor + delta
	if next < 0 {
		next = 0
	}
	if next > seqLen-1 {
		next = seqLen - 1
	}
	if next == s.cursor {
		return
	}
	s.cursor = next
	s.hooks.CancelEditUI()
	if s.hooks.LoopActive() {
		s.hooks.RetargetLoop(next)
	}
	s.hooks.SetHash(next, true, false)
}

// Bootstrap enters study mode once per session when the initial deep
// link requested it and the video actually has pronunciation data.
// Repeated calls are no-ops so re-renders cannot re-trigger entry.
func (s *State) Bootstrap(linkRequested bool, requestedPos int, hasPronunciation bool) {
	if s.bootstrapped {
		return
	}
	s.bootstrapped = true
	if !linkRequested || !hasPronunciation {
		return
	}
	s.Enter(requestedPos)
}
