package subtitle

import (
	"errors"
	"testing"
)

func seqFixture() Sequence {
	return Sequence{
		{ID: "a", Index: 0, Start: 0, End: 2, Text: "Hi"},
		{ID: "b", Index: 1, Start: 2, End: 4, Text: "there"},
		{ID: "c", Index: 2, Start: 4, End: 6, Text: "friend"},
	}
}

func TestActiveIndexAt(t *testing.T) {
	seq := Sequence{
		{Start: 0, End: 2},
		{Start: 2, End: 4},
		{Start: 5, End: 6},
	}
	cases := []struct {
		name string
		t    float64
		want int
	}{
		{"start of first", 0, 0},
		{"inside first", 1.5, 0},
		{"boundary belongs to next", 2, 1},
		{"just before end", 3.999, 1},
		{"gap", 4.5, -1},
		{"after all", 6, -1},
		{"before all", -1, -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := seq.ActiveIndexAt(tc.t); got != tc.want {
				t.Fatalf("ActiveIndexAt(%v) = %d, want %d", tc.t, got, tc.want)
			}
		})
	}
}

func TestMergeWithPrevious(t *testing.T) {
	seq := Sequence{
		{ID: "a", Index: 0, Start: 0, End: 2, Text: "Hi"},
		{ID: "b", Index: 1, Start: 2, End: 4, Text: "there"},
	}
	out, err := MergeWithPrevious(seq, 1)
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 subtitle, got %d", len(out))
	}
	got := out[0]
	if got.Text != "Hi there" || got.Start != 0 || got.End != 4 || got.Index != 0 {
		t.Fatalf("unexpected merge result: %+v", got)
	}
	if got.ID != "a" {
		t.Fatalf("merged subtitle should keep predecessor identity, got %q", got.ID)
	}
	if len(seq) != 2 || seq[1].Text != "there" {
		t.Fatal("input sequence was mutated")
	}
}

func TestMergeDropsOneSidedFields(t *testing.T) {
	cases := []struct {
		name      string
		prev, cur Subtitle
		wantPron  string
		wantTrans string
	}{
		{
			name:      "both sides present",
			prev:      Subtitle{Text: "a", Pronunciation: "ah", Translation: "x"},
			cur:       Subtitle{Text: "b", Pronunciation: "beh", Translation: "y"},
			wantPron:  "ah beh",
			wantTrans: "x y",
		},
		{
			name:     "pronunciation only on one side is dropped",
			prev:     Subtitle{Text: "a", Pronunciation: "ah"},
			cur:      Subtitle{Text: "b"},
			wantPron: "",
		},
		{
			name:      "translation only on current is dropped",
			prev:      Subtitle{Text: "a"},
			cur:       Subtitle{Text: "b", Translation: "y"},
			wantTrans: "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seq := Sequence{tc.prev, tc.cur}
			seq.Renumber()
			out, err := MergeWithPrevious(seq, 1)
			if err != nil {
				t.Fatalf("merge failed: %v", err)
			}
			if out[0].Pronunciation != tc.wantPron {
				t.Errorf("pronunciation = %q, want %q", out[0].Pronunciation, tc.wantPron)
			}
			if out[0].Translation != tc.wantTrans {
				t.Errorf("translation = %q, want %q", out[0].Translation, tc.wantTrans)
			}
		})
	}
}

func TestMergeConcatenatesNotes(t *testing.T) {
	seq := Sequence{
		{Text: "a", Notes: []Note{{Word: "w1"}}},
		{Text: "b", Notes: []Note{{Word: "w2"}}},
	}
	seq.Renumber()
	out, err := MergeWithPrevious(seq, 1)
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if len(out[0].Notes) != 2 || out[0].Notes[0].Word != "w1" || out[0].Notes[1].Word != "w2" {
		t.Fatalf("unexpected notes: %+v", out[0].Notes)
	}
}

func TestMergeFirstSubtitleFails(t *testing.T) {
	_, err := MergeWithPrevious(seqFixture(), 0)
	if !errors.Is(err, ErrNoPredecessor) {
		t.Fatalf("expected ErrNoPredecessor, got %v", err)
	}
}

func TestApplyEditLinkedAdjacent(t *testing.T) {
	seq := seqFixture()
	out, affected, err := ApplyEdit(seq, 1, Edit{Start: 2.5, End: 4, LinkAdjacent: true})
	if err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	if out[1].Start != 2.5 {
		t.Fatalf("start = %v, want 2.5", out[1].Start)
	}
	if out[0].End != 2.5 {
		t.Fatalf("predecessor end = %v, want 2.5", out[0].End)
	}
	if out[2].Start != 4 {
		t.Fatalf("successor start = %v, want 4", out[2].Start)
	}
	// edited record first, then adjusted neighbors
	if len(affected) != 3 || affected[0].ID != "b" || affected[1].ID != "a" {
		t.Fatalf("unexpected affected records: %+v", affected)
	}
	if seq[0].End != 2 {
		t.Fatal("input sequence was mutated")
	}
}

func TestApplyEditUnlinkedLeavesNeighbors(t *testing.T) {
	out, affected, err := ApplyEdit(seqFixture(), 1, Edit{Start: 2.5, End: 3.5})
	if err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	if out[0].End != 2 || out[2].Start != 4 {
		t.Fatal("neighbors changed without linkAdjacent")
	}
	if len(affected) != 1 {
		t.Fatalf("expected 1 affected record, got %d", len(affected))
	}
}

func TestApplyEditFields(t *testing.T) {
	pron := "hai"
	trans := "salut"
	out, _, err := ApplyEdit(seqFixture(), 0, Edit{Pronunciation: &pron, Translation: &trans, Start: 0, End: 2})
	if err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	if out[0].Pronunciation != "hai" || out[0].Translation != "salut" {
		t.Fatalf("fields not applied: %+v", out[0])
	}
}

func TestApplyEditRejectsBadRange(t *testing.T) {
	_, _, err := ApplyEdit(seqFixture(), 0, Edit{Start: 3, End: 2})
	if !errors.Is(err, ErrBadTimeRange) {
		t.Fatalf("expected ErrBadTimeRange, got %v", err)
	}
}

func TestSplitEqualHalves(t *testing.T) {
	seq := Sequence{{ID: "a", Index: 0, Start: 0, End: 2, Text: "abcd efgh"}}
	out, err := Split(seq, 0, SplitRequest{SplitAfterWord: 0})
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 subtitles, got %d", len(out))
	}
	if out[0].Text != "abcd" || out[0].Start != 0 || out[0].End != 1.0 {
		t.Fatalf("unexpected first half: %+v", out[0])
	}
	if out[1].Text != "efgh" || out[1].Start != 1.0 || out[1].End != 2 {
		t.Fatalf("unexpected second half: %+v", out[1])
	}
	if out[0].Index != 0 || out[1].Index != 1 {
		t.Fatal("indices not renumbered")
	}
	if out[0].ID != "a" {
		t.Fatal("first half should keep original identity")
	}
	if out[1].ID == "" || out[1].ID == "a" {
		t.Fatal("second half should get a fresh identity")
	}
}

func TestSplitLengthWeightedMidpoint(t *testing.T) {
	// "good" (4 chars) vs "morning" (7 chars): ratio 4/11 over 2s,
	// rounded to centiseconds.
	seq := Sequence{{Index: 0, Start: 0, End: 2, Text: "good morning"}}
	out, err := Split(seq, 0, SplitRequest{SplitAfterWord: 0})
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	if out[0].End != 0.73 || out[1].Start != 0.73 {
		t.Fatalf("midpoint = %v, want 0.73", out[0].End)
	}
}

func TestSplitParallelFields(t *testing.T) {
	one := 1
	zero := 0
	seq := Sequence{{
		Index:         0,
		Start:         0,
		End:           4,
		Text:          "good morning sunshine",
		Pronunciation: "gud mor ning sun shain",
		Translation:   "bonjour soleil",
		Notes:         []Note{{Word: "sunshine"}},
	}}
	out, err := Split(seq, 0, SplitRequest{SplitAfterWord: 1, PronAfterWord: &one, TransAfterWord: &zero})
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	if out[0].Text != "good morning" || out[1].Text != "sunshine" {
		t.Fatalf("unexpected text halves: %q / %q", out[0].Text, out[1].Text)
	}
	if out[0].Pronunciation != "gud mor" || out[1].Pronunciation != "ning sun shain" {
		t.Fatalf("unexpected pronunciation halves: %q / %q", out[0].Pronunciation, out[1].Pronunciation)
	}
	if out[0].Translation != "bonjour" || out[1].Translation != "soleil" {
		t.Fatalf("unexpected translation halves: %q / %q", out[0].Translation, out[1].Translation)
	}
	if out[0].Notes == nil || out[1].Notes != nil {
		t.Fatal("notes must stay on the first half only")
	}
}

func TestSplitRejectsBadWordPosition(t *testing.T) {
	seq := Sequence{{Index: 0, Start: 0, End: 2, Text: "hello"}}
	if _, err := Split(seq, 0, SplitRequest{SplitAfterWord: 0}); !errors.Is(err, ErrBadSplitPoint) {
		t.Fatalf("expected ErrBadSplitPoint for single word, got %v", err)
	}
	seq[0].Text = "hello there"
	if _, err := Split(seq, 0, SplitRequest{SplitAfterWord: 5}); !errors.Is(err, ErrBadSplitPoint) {
		t.Fatalf("expected ErrBadSplitPoint for out of range, got %v", err)
	}
}

func TestSplitThenMergeRestoresText(t *testing.T) {
	seq := Sequence{
		{Index: 0, Start: 0, End: 3, Text: "the quick brown fox"},
		{Index: 1, Start: 3, End: 5, Text: "jumps"},
	}
	for k := 0; k < 3; k++ {
		split, err := Split(seq, 0, SplitRequest{SplitAfterWord: k})
		if err != nil {
			t.Fatalf("split after word %d failed: %v", k, err)
		}
		merged, err := MergeWithPrevious(split, 1)
		if err != nil {
			t.Fatalf("merge after split %d failed: %v", k, err)
		}
		if merged[0].Text != seq[0].Text {
			t.Fatalf("round trip after word %d: %q, want %q", k, merged[0].Text, seq[0].Text)
		}
		if merged[0].Start != seq[0].Start || merged[0].End != seq[0].End {
			t.Fatalf("round trip timing after word %d: %+v", k, merged[0])
		}
		for i, s := range merged {
			if s.Index != i {
				t.Fatalf("index %d not dense after round trip: %+v", i, s)
			}
		}
	}
}

func TestDeleteNote(t *testing.T) {
	seq := Sequence{{
		Index: 0, Start: 0, End: 2, Text: "hi",
		Notes: []Note{{Word: "a"}, {Word: "b"}},
	}}
	out, err := DeleteNote(seq, 0, 0)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if len(out[0].Notes) != 1 || out[0].Notes[0].Word != "b" {
		t.Fatalf("unexpected notes: %+v", out[0].Notes)
	}

	out, err = DeleteNote(out, 0, 0)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if out[0].Notes != nil {
		t.Fatal("emptied notes must become absent, not an empty list")
	}
	if seq[0].Notes == nil || len(seq[0].Notes) != 2 {
		t.Fatal("input sequence was mutated")
	}
}

func TestEnsureIDsAndHasPronunciation(t *testing.T) {
	seq := Sequence{{Text: "a", Pronunciation: "ah"}, {Text: "b"}}
	seq.EnsureIDs()
	if seq[0].ID == "" || seq[1].ID == "" || seq[0].ID == seq[1].ID {
		t.Fatalf("ids not assigned uniquely: %q %q", seq[0].ID, seq[1].ID)
	}
	if !seq.HasPronunciation() {
		t.Fatal("expected pronunciation data")
	}
	if (Sequence{{Text: "x"}}).HasPronunciation() {
		t.Fatal("pronunciation signalled without data")
	}
	if (Sequence{}).HasPronunciation() {
		t.Fatal("empty sequence cannot have pronunciation")
	}
}
