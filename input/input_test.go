package input

import "testing"

type fakeCommands struct {
	editConsumes map[Key]bool
	capturing    bool
	study        bool

	calls []string
	navs  []int
	seeks []int
}

func (f *fakeCommands) EditShortcut(k Key) bool {
	if f.editConsumes[k] {
		f.calls = append(f.calls, "edit")
		return true
	}
	return false
}
func (f *fakeCommands) EditCapturing() bool { return f.capturing }
func (f *fakeCommands) StudyActive() bool   { return f.study }
func (f *fakeCommands) ExitStudy()          { f.calls = append(f.calls, "exit") }
func (f *fakeCommands) StudyNavigate(d int) {
	f.calls = append(f.calls, "nav")
	f.navs = append(f.navs, d)
}
func (f *fakeCommands) StudyListen() { f.calls = append(f.calls, "listen") }
func (f *fakeCommands) TogglePlay() { f.calls = append(f.calls, "toggle") }
func (f *fakeCommands) SeekAdjacentSubtitle(d int) {
	f.calls = append(f.calls, "seek")
	f.seeks = append(f.seeks, d)
}

func TestEditShortcutsWinOverEverything(t *testing.T) {
	f := &fakeCommands{editConsumes: map[Key]bool{KeyS: true}, capturing: true, study: true}
	d := NewDispatcher(f)
	if !d.Dispatch(KeyS) {
		t.Fatal("save shortcut not consumed")
	}
	if len(f.calls) != 1 || f.calls[0] != "edit" {
		t.Fatalf("calls = %v, want [edit]", f.calls)
	}
}

func TestEditCaptureSuppressesShortcuts(t *testing.T) {
	f := &fakeCommands{capturing: true, study: true}
	d := NewDispatcher(f)
	for _, k := range []Key{KeySpace, KeyLeft, KeyRight, KeyEscape, KeyE} {
		if d.Dispatch(k) {
			t.Fatalf("key %v consumed while a text edit is capturing input", k)
		}
	}
	if len(f.calls) != 0 {
		t.Fatalf("commands fired during edit capture: %v", f.calls)
	}
}

func TestStudyModeBindings(t *testing.T) {
	f := &fakeCommands{study: true}
	d := NewDispatcher(f)

	cases := []struct {
		key  Key
		want string
	}{
		{KeyEscape, "exit"},
		{KeyLeft, "nav"},
		{KeyRight, "nav"},
		{KeySpace, "listen"},
	}
	for _, tc := range cases {
		f.calls = nil
		if !d.Dispatch(tc.key) {
			t.Fatalf("key %v not consumed in study mode", tc.key)
		}
		if len(f.calls) != 1 || f.calls[0] != tc.want {
			t.Fatalf("key %v: calls = %v, want [%s]", tc.key, f.calls, tc.want)
		}
	}
	if f.navs[0] != -1 || f.navs[1] != 1 {
		t.Fatalf("navigation deltas = %v, want [-1 1]", f.navs)
	}

	// Other keys are swallowed by study mode, not forwarded to
	// playback bindings.
	f.calls = nil
	if d.Dispatch(KeyOther) {
		t.Fatal("unknown key consumed in study mode")
	}
	if len(f.calls) != 0 {
		t.Fatalf("unknown key triggered commands: %v", f.calls)
	}
}

func TestPlaybackModeBindings(t *testing.T) {
	f := &fakeCommands{}
	d := NewDispatcher(f)

	if !d.Dispatch(KeySpace) || f.calls[0] != "toggle" {
		t.Fatalf("space: calls = %v", f.calls)
	}
	d.Dispatch(KeyLeft)
	d.Dispatch(KeyRight)
	if len(f.seeks) != 2 || f.seeks[0] != -1 || f.seeks[1] != 1 {
		t.Fatalf("seeks = %v, want [-1 1]", f.seeks)
	}
	if d.Dispatch(KeyOther) {
		t.Fatal("unknown key consumed in playback mode")
	}
}
