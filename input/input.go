// Package input maps key events to session commands. Precedence is an
// explicit ordered guard chain (edit shortcuts, edit capture, study,
// playback) so the priority rules are testable in isolation.
package input

// Key is a normalized key event.
type Key int

const (
	KeySpace Key = iota
	KeyLeft
	KeyRight
	KeyEscape
	KeyE
	KeyS
	KeyOther
)

// Commands is the surface the dispatcher drives. The session implements
// it; tests implement it with recorders.
type Commands interface {
	// EditShortcut handles edit-mode-entry and save shortcuts. It
	// reports whether the key was consumed. Checked before anything
	// else so "e"/"s" work from every mode.
	EditShortcut(k Key) bool
	// EditCapturing reports whether a text edit is in progress. While
	// capturing, every other shortcut is suppressed so typing never
	// triggers app commands.
	EditCapturing() bool

	StudyActive() bool
	ExitStudy()
	StudyNavigate(delta int)
	// StudyListen plays the cursor's subtitle once, or just reseeks
	// when a loop is already active.
	StudyListen()

	TogglePlay()
	// SeekAdjacentSubtitle jumps the transport to the previous or next
	// subtitle relative to the active one.
	SeekAdjacentSubtitle(delta int)
}

type guard func(k Key) (consumed, stop bool)

// Dispatcher routes keys through the guard chain.
type Dispatcher struct {
	chain []guard
}

func NewDispatcher(cmds Commands) *Dispatcher {
	return &Dispatcher{chain: []guard{
		func(k Key) (bool, bool) {
			if cmds.EditShortcut(k) {
				return true, true
			}
			return false, false
		},
		func(k Key) (bool, bool) {
			// Exclusive input capture: the key belongs to the text
			// field, not to us.
			return false, cmds.EditCapturing()
		},
		func(k Key) (bool, bool) {
			if !cmds.StudyActive() {
				return false, false
			}
			switch k {
			case KeyEscape:
				cmds.ExitStudy()
			case KeyLeft:
				cmds.StudyNavigate(-1)
			case KeyRight:
				cmds.StudyNavigate(1)
			case KeySpace:
				cmds.StudyListen()
			default:
				return false, true
			}
			return true, true
		},
		func(k Key) (bool, bool) {
			switch k {
			case KeySpace:
				cmds.TogglePlay()
			case KeyLeft:
				cmds.SeekAdjacentSubtitle(-1)
			case KeyRight:
				cmds.SeekAdjacentSubtitle(1)
			default:
				return false, true
			}
			return true, true
		},
	}}
}

// Dispatch runs the key through the chain and reports whether the app
// consumed it.
func (d *Dispatcher) Dispatch(k Key) bool {
	for _, g := range d.chain {
		consumed, stop := g(k)
		if stop {
			return consumed
		}
	}
	return false
}
