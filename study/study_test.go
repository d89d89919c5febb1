package study

import "testing"

type recorder struct {
	pauses     int
	hashes     []struct {
		pos   int
		study bool
		push  bool
	}
	cleared    int
	loopActive bool
	retargets  []int
	cancels    int
}

func newState() (*State, *recorder) {
	r := &recorder{}
	s := New(Hooks{
		Pause: func() { r.pauses++ },
		SetHash: func(pos int, study, push bool) {
			r.hashes = append(r.hashes, struct {
				pos   int
				study bool
				push  bool
			}{pos, study, push})
		},
		ClearMode:    func() { r.cleared++ },
		LoopActive:   func() bool { return r.loopActive },
		RetargetLoop: func(pos int) { r.retargets = append(r.retargets, pos) },
		CancelEditUI: func() { r.cancels++ },
	})
	return s, r
}

func TestEnterAtActiveSubtitle(t *testing.T) {
	s, r := newState()
	s.Enter(3)
	if !s.Active() || s.Cursor() != 3 {
		t.Fatalf("active=%v cursor=%d, want active at 3", s.Active(), s.Cursor())
	}
	if r.pauses != 1 {
		t.Fatal("entering study mode must pause playback")
	}
	if len(r.hashes) != 1 || !r.hashes[0].study || !r.hashes[0].push {
		t.Fatalf("expected pushed study hash, got %+v", r.hashes)
	}
}

func TestEnterInGapFallsBackToZero(t *testing.T) {
	s, _ := newState()
	s.Enter(-1)
	if s.Cursor() != 0 {
		t.Fatalf("cursor = %d, want 0 when no subtitle is active", s.Cursor())
	}
}

func TestExitClearsModeAndRestoresHash(t *testing.T) {
	s, r := newState()
	s.Enter(2)
	s.Exit(5)
	if s.Active() {
		t.Fatal("still active after exit")
	}
	if r.cleared != 1 {
		t.Fatal("exit must cancel loop/continuous play")
	}
	if r.pauses != 2 {
		t.Fatalf("pauses = %d, want 2 (enter and exit)", r.pauses)
	}
	last := r.hashes[len(r.hashes)-1]
	if last.study || last.push || last.pos != 5 {
		t.Fatalf("exit hash = %+v, want plain replace at 5", last)
	}
}

func TestNavigateClampsAndCancelsEdit(t *testing.T) {
	s, r := newState()
	s.Enter(0)

	s.Navigate(-1, 4)
	if s.Cursor() != 0 {
		t.Fatalf("cursor = %d, want clamp at 0", s.Cursor())
	}
	if r.cancels != 0 {
		t.Fatal("clamped no-op navigation must not cancel edit state")
	}

	s.Navigate(1, 4)
	if s.Cursor() != 1 || r.cancels != 1 {
		t.Fatalf("cursor=%d cancels=%d, want 1/1", s.Cursor(), r.cancels)
	}
	last := r.hashes[len(r.hashes)-1]
	if !last.study || last.push || last.pos != 1 {
		t.Fatalf("navigate hash = %+v, want study replace at 1", last)
	}

	s.Navigate(10, 4)
	if s.Cursor() != 3 {
		t.Fatalf("cursor = %d, want clamp at 3", s.Cursor())
	}
}

func TestNavigateRetargetsActiveLoop(t *testing.T) {
	s, r := newState()
	s.Enter(1)
	r.loopActive = true
	s.Navigate(1, 4)
	if len(r.retargets) != 1 || r.retargets[0] != 2 {
		t.Fatalf("retargets = %v, want [2]", r.retargets)
	}
	r.loopActive = false
	s.Navigate(1, 4)
	if len(r.retargets) != 1 {
		t.Fatal("retargeted without an active loop")
	}
}

func TestNavigateIgnoredOutsideStudyMode(t *testing.T) {
	s, r := newState()
	s.Navigate(1, 4)
	if s.Cursor() != -1 || len(r.hashes) != 0 {
		t.Fatal("navigation must be a no-op outside study mode")
	}
}

func TestBootstrapRunsExactlyOnce(t *testing.T) {
	s, r := newState()
	s.Bootstrap(true, 2, true)
	if !s.Active() || s.Cursor() != 2 {
		t.Fatalf("bootstrap did not enter study mode at 2: active=%v cursor=%d", s.Active(), s.Cursor())
	}
	s.Exit(2)
	s.Bootstrap(true, 2, true)
	if s.Active() {
		t.Fatal("bootstrap re-triggered study mode")
	}
	_ = r
}

func TestBootstrapRequiresPronunciationData(t *testing.T) {
	s, _ := newState()
	s.Bootstrap(true, 2, false)
	if s.Active() {
		t.Fatal("bootstrap entered study mode without pronunciation data")
	}
	// The guard still burns: a later call must not fire either.
	s.Bootstrap(true, 2, true)
	if s.Active() {
		t.Fatal("bootstrap guard did not burn on first call")
	}
}
