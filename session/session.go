package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nothinking/movietalk/deeplink"
	"github.com/nothinking/movietalk/input"
	"github.com/nothinking/movietalk/playback"
	"github.com/nothinking/movietalk/player"
	"github.com/nothinking/movietalk/store"
	"github.com/nothinking/movietalk/study"
	"github.com/nothinking/movietalk/subtitle"
)

// Config assembles one viewing session.
type Config struct {
	VideoID  string
	Sequence subtitle.Sequence
	Factory  player.Factory
	Location deeplink.Location
	// Backend runs structural mutations. Nil defaults to the
	// client-side path over Store.
	Backend Backend
	// Store persists user subtitles, expressions and favorites. Nil
	// means local-only; an in-memory store is used so saves degrade
	// instead of failing.
	Store store.Store
	// Auth, when set, is observed for sign-in/out: a login ends any
	// in-memory downgrade. The subscription is disposed on Close.
	Auth store.Auth
	// Rate is the playback speed to apply once the player is ready.
	Rate float64
	// Link is the decoded initial deep link, used for the start anchor
	// and the one-time study-mode bootstrap.
	Link deeplink.State

	// OnSequence is the update callback: it fires with the new array
	// after every structural mutation, before persistence confirms.
	OnSequence func(subtitle.Sequence)
	// Alert surfaces a user-visible failure message.
	Alert func(msg string)
	// Confirm gates destructive operations. Nil means always confirm.
	Confirm func(msg string) bool
	// OnSaveRequested fires when the save shortcut is hit while an
	// edit is open; the UI collects the form fields and calls SaveEdit.
	OnSaveRequested func()
}

// Session owns the subtitle sequence for one video and every piece of
// state derived from it. All state lives on one goroutine; public
// methods marshal onto it and wait, so callers observe effects
// immediately and no locks exist anywhere in the session.
type Session struct {
	cfg     Config
	adapter *player.Adapter
	engine  *playback.Engine
	study   *study.State
	seq     subtitle.Sequence
	persist store.Store

	editing    bool
	saving     bool
	pausePanel int
	// preEditLoop preserves loop bounds across an edit so cancelling
	// restores exactly the pre-edit loop.
	preEditLoop *playback.Mode

	polling bool
	calls   chan func()
	done    chan struct{}

	closeOnce   sync.Once
	disposeAuth func()
}

// New builds the session and starts its goroutine. The sequence passed
// in is the session's source of truth (base subtitles, or the user's
// persisted override resolved by the caller).
func New(cfg Config) (*Session, error) {
	if cfg.Alert == nil {
		cfg.Alert = func(msg string) { log.Warn().Str("videoId", cfg.VideoID).Msg(msg) }
	}
	if cfg.Confirm == nil {
		cfg.Confirm = func(string) bool { return true }
	}
	if cfg.Store == nil {
		cfg.Store = store.NewMemory()
	}
	if cfg.Backend == nil {
		cfg.Backend = &StoreBackend{VideoID: cfg.VideoID, Store: cfg.Store}
	}

	s := &Session{
		cfg:        cfg,
		seq:        cfg.Sequence.Clone(),
		persist:    cfg.Store,
		pausePanel: -1,
		calls:      make(chan func(), 16),
		done:       make(chan struct{}),
	}

	s.study = study.New(study.Hooks{
		Pause:        func() { s.adapter.Pause() },
		SetHash:      s.setHash,
		ClearMode:    func() { s.engine.Transition(playback.Normal()) },
		LoopActive:   func() bool { return s.engine.Mode().Kind == playback.ModeLooping },
		RetargetLoop: s.retargetLoop,
		CancelEditUI: s.cancelEditState,
	})

	s.engine = playback.NewEngine(s.adapterTransport(), func() subtitle.Sequence { return s.seq }, playback.Hooks{
		StudyActive: s.study.Active,
		Cursor:      s.study.Cursor,
		SetCursor:   s.study.SetCursor,
		SetHash:     func(pos int) { s.setHash(pos, false, false) },
	})

	var startAt *float64
	if idx := cfg.Link.SubtitleIndex; idx >= 0 && idx < len(s.seq) {
		t := s.seq[idx].Start
		startAt = &t
	}
	adapter, err := player.New(cfg.VideoID, cfg.Factory, player.Options{
		Rate:      cfg.Rate,
		StartAt:   startAt,
		Post:      s.post,
		OnPlaying: func() { s.polling = true },
		OnPaused:  s.handlePaused,
		OnEnded:   s.handleEnded,
	})
	if err != nil {
		return nil, fmt.Errorf("error starting session for %s: %v", cfg.VideoID, err)
	}
	s.adapter = adapter

	if cfg.Auth != nil {
		dispose, err := cfg.Auth.OnChange(func(sess *store.Session) {
			s.post(func() { s.handleAuthChange(sess) })
		})
		if err != nil {
			adapter.Destroy()
			return nil, fmt.Errorf("error subscribing to auth changes: %v", err)
		}
		s.disposeAuth = dispose
	}

	go s.run()

	s.do(func() {
		requested := cfg.Link.SubtitleIndex
		if requested < 0 || requested >= len(s.seq) {
			requested = 0
		}
		s.study.Bootstrap(cfg.Link.Mode == deeplink.ModeEdit, requested, s.seq.HasPronunciation())
	})
	return s, nil
}

// Close tears the session down: auth subscription, poll, widget,
// goroutine. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.disposeAuth != nil {
			s.disposeAuth()
		}
		s.do(func() {
			s.polling = false
			s.adapter.Destroy()
		})
		close(s.done)
	})
}

func (s *Session) run() {
	ticker := time.NewTicker(playback.PollInterval)
	defer ticker.Stop()
	for {
		var tick <-chan time.Time
		if s.polling {
			tick = ticker.C
		}
		select {
		case f := <-s.calls:
			f()
		case <-tick:
			s.engine.Tick()
		case <-s.done:
			return
		}
	}
}

func (s *Session) post(f func()) {
	select {
	case s.calls <- f:
	case <-s.done:
	}
}

// do runs f on the session goroutine and waits for it.
func (s *Session) do(f func()) {
	doneCh := make(chan struct{})
	s.post(func() {
		f()
		close(doneCh)
	})
	select {
	case <-doneCh:
	case <-s.done:
	}
}

// adapterTransport defers to s.adapter, which is not yet set when the
// engine is constructed.
func (s *Session) adapterTransport() playback.Transport {
	return transportFunc{s}
}

type transportFunc struct{ s *Session }

func (t transportFunc) CurrentTime() float64 { return t.s.adapter.CurrentTime() }
func (t transportFunc) SeekTo(at float64)    { t.s.adapter.SeekTo(at) }
func (t transportFunc) Play()                { t.s.adapter.Play() }
func (t transportFunc) Pause()               { t.s.adapter.Pause() }
func (t transportFunc) Playing() bool        { return t.s.adapter.Playing() }

func (s *Session) handlePaused() {
	s.polling = false
	// Pausing always cancels loop and continuous play, and captures
	// the active subtitle for the pause panel.
	s.engine.Transition(playback.Normal())
	s.engine.CancelOnce()
	if pos := s.engine.ActivePosition(); pos >= 0 {
		s.pausePanel = pos
	}
}

func (s *Session) handleEnded() {
	s.polling = false
	s.engine.Transition(playback.Normal())
}

// handleAuthChange reacts to sign-in/out. A login restores the
// configured store, ending any in-memory downgrade; a sign-out changes
// nothing here because the store itself starts refusing writes.
func (s *Session) handleAuthChange(sess *store.Session) {
	if sess == nil {
		log.Debug().Str("videoId", s.cfg.VideoID).Msg("auth session cleared")
		return
	}
	s.persist = s.cfg.Store
	log.Debug().Str("videoId", s.cfg.VideoID).Str("user", sess.UserID).Msg("auth session changed")
}

func (s *Session) setHash(pos int, studyMode bool, push bool) {
	state := deeplink.State{VideoID: s.cfg.VideoID, SubtitleIndex: pos}
	if studyMode {
		state.Mode = deeplink.ModeEdit
	}
	s.cfg.Location.SetFragment(deeplink.Encode(state), push)
}

func (s *Session) retargetLoop(pos int) {
	if pos < 0 || pos >= len(s.seq) {
		return
	}
	sub := s.seq[pos]
	s.engine.Transition(playback.Looping(sub.Start, sub.End))
	s.adapter.SeekTo(sub.Start)
	s.adapter.Play()
}

// editTarget is the subtitle structural edits apply to: the study
// cursor when studying, the pause-panel subtitle otherwise.
func (s *Session) editTarget() int {
	if s.study.Active() {
		return s.study.Cursor()
	}
	return s.pausePanel
}

func (s *Session) cancelEditState() {
	if !s.editing {
		return
	}
	s.editing = false
	if s.preEditLoop != nil {
		s.engine.Transition(*s.preEditLoop)
		s.preEditLoop = nil
	}
}

func (s *Session) applySequence(seq subtitle.Sequence) {
	s.seq = seq
	if s.cfg.OnSequence != nil {
		s.cfg.OnSequence(seq)
	}
}

// Sequence returns the current subtitle array.
func (s *Session) Sequence() subtitle.Sequence {
	var out subtitle.Sequence
	s.do(func() { out = s.seq.Clone() })
	return out
}

// Mode returns the current playback mode.
func (s *Session) Mode() playback.Mode {
	var m playback.Mode
	s.do(func() { m = s.engine.Mode() })
	return m
}

// Editing reports whether an edit form is open.
func (s *Session) Editing() bool {
	var e bool
	s.do(func() { e = s.editing })
	return e
}

// StudyCursor returns the study cursor position, -1 outside study mode.
func (s *Session) StudyCursor() int {
	var c int
	s.do(func() { c = s.study.Cursor() })
	return c
}

// BeginEdit opens the edit form for the current target, preserving any
// active loop bounds so a cancelled edit restores them.
func (s *Session) BeginEdit() {
	s.do(func() {
		if s.editing || s.editTarget() < 0 {
			return
		}
		s.editing = true
		if m := s.engine.Mode(); m.Kind == playback.ModeLooping {
			s.preEditLoop = &m
		}
	})
}

// CancelEdit closes the edit form and restores the pre-edit loop.
func (s *Session) CancelEdit() {
	s.do(s.cancelEditState)
}

// PreviewTiming live-updates the loop target while the edit form's
// start/end fields change, so timing edits are audible immediately.
func (s *Session) PreviewTiming(start, end float64) {
	s.do(func() {
		if !s.editing || s.engine.Mode().Kind != playback.ModeLooping {
			return
		}
		s.engine.Transition(playback.Looping(start, end))
	})
}

// SaveEdit submits the edit form. A second submit while one is in
// flight is dropped. On failure the form stays open for retry.
func (s *Session) SaveEdit(e subtitle.Edit) {
	s.do(func() {
		if !s.editing || s.saving {
			return
		}
		s.saving = true
		defer func() { s.saving = false }()

		out, err := s.cfg.Backend.Edit(context.Background(), s.seq, s.editTarget(), e)
		if err != nil {
			s.cfg.Alert(fmt.Sprintf("Failed to save subtitle: %v", err))
			return
		}
		s.applySequence(out)
		s.editing = false
		s.preEditLoop = nil
	})
}

// MergeWithPrevious folds the study cursor's subtitle into its
// predecessor. Destructive, so it asks for confirmation first.
func (s *Session) MergeWithPrevious() {
	s.do(func() {
		if !s.study.Active() || s.study.Cursor() <= 0 {
			return
		}
		if !s.cfg.Confirm("Merge this subtitle into the previous one?") {
			return
		}
		cursor := s.study.Cursor()
		out, err := s.cfg.Backend.Merge(context.Background(), s.seq, cursor)
		if err != nil {
			s.cfg.Alert(fmt.Sprintf("Failed to merge subtitles: %v", err))
			return
		}
		s.applySequence(out)
		s.study.SetCursor(cursor - 1)
		s.setHash(cursor-1, true, false)
	})
}

// SplitCurrent cuts the edit target at the chosen word boundaries.
func (s *Session) SplitCurrent(req subtitle.SplitRequest) {
	s.do(func() {
		target := s.editTarget()
		if target < 0 {
			return
		}
		out, err := s.cfg.Backend.Split(context.Background(), s.seq, target, req)
		if err != nil {
			s.cfg.Alert(fmt.Sprintf("Failed to split subtitle: %v", err))
			return
		}
		s.applySequence(out)
	})
}

// DeleteNote removes one pronunciation note from the edit target.
func (s *Session) DeleteNote(notePos int) {
	s.do(func() {
		target := s.editTarget()
		if target < 0 {
			return
		}
		out, err := s.cfg.Backend.DeleteNote(context.Background(), s.seq, target, notePos)
		if err != nil {
			s.cfg.Alert(fmt.Sprintf("Failed to delete note: %v", err))
			return
		}
		s.applySequence(out)
	})
}

// SaveExpression saves one note as a learner expression, using the
// target subtitle's text as the example sentence. Without a session the
// write silently downgrades to in-memory storage.
func (s *Session) SaveExpression(note subtitle.Note) {
	s.do(func() {
		target := s.editTarget()
		sentence := ""
		if target >= 0 && target < len(s.seq) {
			sentence = s.seq[target].Text
		}
		_, err := s.persist.AddSavedExpression(context.Background(), store.Expression{
			VideoID:  s.cfg.VideoID,
			Word:     note.Word,
			Actual:   note.Actual,
			Meaning:  note.Meaning,
			Sentence: sentence,
		})
		if err == store.ErrAuthRequired {
			log.Debug().Str("word", note.Word).Msg("no session, expression kept in memory only")
			s.persist = store.NewMemory()
			s.persist.AddSavedExpression(context.Background(), store.Expression{
				VideoID: s.cfg.VideoID, Word: note.Word, Actual: note.Actual,
				Meaning: note.Meaning, Sentence: sentence,
			})
			return
		}
		if err != nil {
			s.cfg.Alert(fmt.Sprintf("Failed to save expression: %v", err))
		}
	})
}

// ResetEdits discards the user's saved overrides and restores the base
// sequence. Destructive, so it asks for confirmation first.
func (s *Session) ResetEdits(base subtitle.Sequence) {
	s.do(func() {
		if !s.cfg.Confirm("Discard your subtitle edits for this video?") {
			return
		}
		err := s.persist.ResetUserSubtitles(context.Background(), s.cfg.VideoID)
		if err != nil && !errors.Is(err, store.ErrAuthRequired) {
			s.cfg.Alert(fmt.Sprintf("Failed to reset subtitles: %v", err))
			return
		}
		s.applySequence(base.Clone())
	})
}

// EnterStudy switches to study mode at the active subtitle.
func (s *Session) EnterStudy() {
	s.do(func() {
		if !s.seq.HasPronunciation() {
			return
		}
		s.study.Enter(s.engine.ActivePosition())
	})
}

// ExitStudy leaves study mode.
func (s *Session) ExitStudy() {
	s.do(func() { s.study.Exit(s.engine.ActivePosition()) })
}

// StudyNavigate moves the study cursor.
func (s *Session) StudyNavigate(delta int) {
	s.do(func() { s.study.Navigate(delta, len(s.seq)) })
}

// StudyListen plays the cursor's subtitle once, or reseeks the loop
// start when a loop is already running so no second timer appears.
func (s *Session) StudyListen() {
	s.do(func() {
		cursor := s.study.Cursor()
		if cursor < 0 || cursor >= len(s.seq) {
			return
		}
		if m := s.engine.Mode(); m.Kind == playback.ModeLooping {
			s.adapter.SeekTo(m.LoopStart)
			return
		}
		sub := s.seq[cursor]
		s.engine.PlayOnce(sub.Start, sub.End)
	})
}

// ToggleLoop starts or cancels a loop over the current target subtitle.
func (s *Session) ToggleLoop() {
	s.do(func() {
		if s.engine.Mode().Kind == playback.ModeLooping {
			s.engine.Transition(playback.Normal())
			return
		}
		target := s.editTarget()
		if target < 0 {
			target = s.engine.ActivePosition()
		}
		if target < 0 || target >= len(s.seq) {
			return
		}
		s.retargetLoop(target)
	})
}

// ToggleContinuous starts or stops auto-advance. Continuous play is
// study-mode-scoped.
func (s *Session) ToggleContinuous() {
	s.do(func() {
		if s.engine.Mode().Kind == playback.ModeContinuous {
			s.engine.Transition(playback.Normal())
			return
		}
		if !s.study.Active() {
			return
		}
		cursor := s.study.Cursor()
		if cursor < 0 || cursor >= len(s.seq) {
			return
		}
		s.engine.Transition(playback.Continuous())
		s.adapter.SeekTo(s.seq[cursor].Start)
		s.adapter.Play()
	})
}

// TogglePlay flips play/pause.
func (s *Session) TogglePlay() {
	s.do(func() {
		if s.adapter.Playing() {
			s.adapter.Pause()
		} else {
			s.adapter.Play()
		}
	})
}

// SeekAdjacentSubtitle jumps to the previous or next subtitle relative
// to transport time.
func (s *Session) SeekAdjacentSubtitle(delta int) {
	s.do(func() {
		if len(s.seq) == 0 {
			return
		}
		pos := s.engine.ActivePosition()
		if pos < 0 {
			pos = s.nearestPosition(s.engine.CurrentTime())
		}
		next := pos + delta
		if next < 0 {
			next = 0
		}
		if next > len(s.seq)-1 {
			next = len(s.seq) - 1
		}
		s.adapter.SeekTo(s.seq[next].Start)
	})
}

// nearestPosition finds the subtitle closest to t when t sits in a gap.
func (s *Session) nearestPosition(t float64) int {
	for i := range s.seq {
		if t < s.seq[i].End {
			return i
		}
	}
	return len(s.seq) - 1
}

// Dispatcher binds the keyboard command chain to this session.
func (s *Session) Dispatcher() *input.Dispatcher {
	return input.NewDispatcher(sessionCommands{s})
}

// sessionCommands adapts Session to input.Commands.
type sessionCommands struct{ s *Session }

func (c sessionCommands) EditShortcut(k input.Key) bool {
	switch k {
	case input.KeyE:
		if c.s.Editing() {
			return false
		}
		var can bool
		c.s.do(func() { can = c.s.seq.HasPronunciation() && c.s.editTarget() >= 0 })
		if !can {
			return false
		}
		c.s.BeginEdit()
		return true
	case input.KeyS:
		if !c.s.Editing() {
			return false
		}
		if c.s.cfg.OnSaveRequested != nil {
			c.s.cfg.OnSaveRequested()
		}
		return true
	}
	return false
}

func (c sessionCommands) EditCapturing() bool        { return c.s.Editing() }
func (c sessionCommands) StudyActive() bool          { return c.s.StudyCursor() >= 0 }
func (c sessionCommands) ExitStudy()                 { c.s.ExitStudy() }
func (c sessionCommands) StudyNavigate(delta int)    { c.s.StudyNavigate(delta) }
func (c sessionCommands) StudyListen()               { c.s.StudyListen() }
func (c sessionCommands) TogglePlay()                { c.s.TogglePlay() }
func (c sessionCommands) SeekAdjacentSubtitle(d int) { c.s.SeekAdjacentSubtitle(d) }
