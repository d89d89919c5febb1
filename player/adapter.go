package player

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultReadyTimeout bounds how long the adapter waits for the widget's
// ready signal before forcing ready state so the session never hangs on
// a wedged widget.
const DefaultReadyTimeout = 8 * time.Second

// Options configures one adapter instance.
type Options struct {
	// Rate is applied once the widget reports ready, when not the
	// default 1.0.
	Rate float64
	// StartAt, when set, seeks to the given time on ready without
	// starting playback. Used for deep-linked subtitle anchors.
	StartAt *float64
	// ReadyTimeout overrides DefaultReadyTimeout. Zero keeps the default.
	ReadyTimeout time.Duration
	// Post marshals widget callbacks onto the session goroutine. The
	// adapter never calls hooks from a foreign goroutine directly.
	Post func(func())

	OnReady   func()
	OnPlaying func()
	OnPaused  func()
	OnEnded   func()
}

// Adapter owns exactly one widget and normalizes its lifecycle: ready
// handling with a forced-ready timeout, pending rate and deep-link seek
// application, and play/pause/end notifications.
type Adapter struct {
	videoID   string
	widget    Widget
	opts      Options
	ready     bool
	playing   bool
	destroyed bool

	readyTimer *time.Timer
}

// New creates the widget for videoID and wires its callbacks.
func New(videoID string, factory Factory, opts Options) (*Adapter, error) {
	if opts.Post == nil {
		opts.Post = func(f func()) { f() }
	}
	if opts.ReadyTimeout == 0 {
		opts.ReadyTimeout = DefaultReadyTimeout
	}

	a := &Adapter{videoID: videoID, opts: opts}

	w, err := factory(videoID, Events{
		OnReady: func() {
			opts.Post(func() { a.handleReady(false) })
		},
		OnStateChange: func(s State) {
			opts.Post(func() { a.handleStateChange(s) })
		},
		OnError: func(err error) {
			log.Warn().Err(err).Str("videoId", videoID).Msg("player widget error")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error creating player widget for %s: %v", videoID, err)
	}
	a.widget = w

	a.readyTimer = time.AfterFunc(opts.ReadyTimeout, func() {
		opts.Post(func() { a.handleReady(true) })
	})
	return a, nil
}

func (a *Adapter) handleReady(forced bool) {
	if a.ready || a.destroyed {
		return
	}
	a.ready = true
	a.readyTimer.Stop()
	if forced {
		log.Warn().Str("videoId", a.videoID).Dur("timeout", a.opts.ReadyTimeout).
			Msg("player never reported ready, forcing ready state")
	}
	if a.opts.Rate != 0 && a.opts.Rate != 1.0 {
		a.widget.SetPlaybackRate(a.opts.Rate)
	}
	if a.opts.StartAt != nil {
		// Seek to the deep-linked anchor without starting playback.
		a.widget.SeekTo(*a.opts.StartAt)
	}
	if a.opts.OnReady != nil {
		a.opts.OnReady()
	}
}

func (a *Adapter) handleStateChange(s State) {
	if a.destroyed {
		return
	}
	switch s {
	case StatePlaying:
		a.playing = true
		if a.opts.OnPlaying != nil {
			a.opts.OnPlaying()
		}
	case StatePaused:
		a.playing = false
		if a.opts.OnPaused != nil {
			a.opts.OnPaused()
		}
	case StateEnded:
		a.playing = false
		if a.opts.OnEnded != nil {
			a.opts.OnEnded()
		}
	}
}

func (a *Adapter) VideoID() string { return a.videoID }
func (a *Adapter) Ready() bool     { return a.ready }
func (a *Adapter) Playing() bool   { return a.playing }

func (a *Adapter) CurrentTime() float64 {
	if a.destroyed {
		return 0
	}
	return a.widget.CurrentTime()
}

func (a *Adapter) Duration() float64 {
	if a.destroyed {
		return 0
	}
	return a.widget.Duration()
}

func (a *Adapter) Play() {
	if !a.destroyed {
		a.widget.Play()
	}
}

func (a *Adapter) Pause() {
	if !a.destroyed {
		a.widget.Pause()
	}
}

func (a *Adapter) SeekTo(t float64) {
	if !a.destroyed {
		a.widget.SeekTo(t)
	}
}

func (a *Adapter) SetSpeed(rate float64) {
	if !a.destroyed {
		a.widget.SetPlaybackRate(rate)
	}
}

// Destroy tears the widget down. The adapter is dead afterwards; a new
// video always gets a new adapter.
func (a *Adapter) Destroy() {
	if a.destroyed {
		return
	}
	a.destroyed = true
	a.readyTimer.Stop()
	a.widget.Destroy()
}
