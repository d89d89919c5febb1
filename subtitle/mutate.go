package subtitle

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrIndexOutOfRange = errors.New("subtitle index out of range")
	ErrNoPredecessor   = errors.New("first subtitle has no predecessor to merge into")
	ErrBadSplitPoint   = errors.New("split point outside word range")
	ErrBadTimeRange    = errors.New("start must be before end")
)

// Edit is a single-field timing/text update of one subtitle.
//
// Pronunciation and Translation are optional; nil leaves the field
// untouched. When LinkAdjacent is set the predecessor's end is forced to
// the new start and the successor's start to the new end, which is how
// contiguous timing is maintained without a full re-flow.
type Edit struct {
	Pronunciation *string `json:"pronunciation,omitempty"`
	Translation   *string `json:"translation,omitempty"`
	Start         float64 `json:"start"`
	End           float64 `json:"end"`
	LinkAdjacent  bool    `json:"linkAdjacent"`
}

// SplitRequest selects a word boundary independently for each of the
// three parallel text fields. Positions count words; splitting after
// word k puts words [0..k] in the first half. Pronunciation and
// Translation positions are ignored for subtitles without those fields.
type SplitRequest struct {
	SplitAfterWord int  `json:"splitAfterWord"`
	PronAfterWord  *int `json:"splitPronunciationAfterWord,omitempty"`
	TransAfterWord *int `json:"splitTranslationAfterWord,omitempty"`
}

// ApplyEdit returns a new sequence with the subtitle at position index
// updated, plus the records that changed (the edited subtitle first,
// then any neighbor adjusted by linked editing). The input is never
// mutated.
func ApplyEdit(seq Sequence, index int, e Edit) (Sequence, []Subtitle, error) {
	if index < 0 || index >= len(seq) {
		return nil, nil, fmt.Errorf("edit subtitle %d: %w", index, ErrIndexOutOfRange)
	}
	if e.Start >= e.End {
		return nil, nil, fmt.Errorf("edit subtitle %d: %w", index, ErrBadTimeRange)
	}

	out := seq.Clone()
	target := &out[index]
	target.Start = e.Start
	target.End = e.End
	if e.Pronunciation != nil {
		target.Pronunciation = *e.Pronunciation
	}
	if e.Translation != nil {
		target.Translation = *e.Translation
	}

	affected := []Subtitle{*target}
	if e.LinkAdjacent {
		if index > 0 {
			out[index-1].End = e.Start
			affected = append(affected, out[index-1])
		}
		if index < len(out)-1 {
			out[index+1].Start = e.End
			affected = append(affected, out[index+1])
		}
	}
	return out, affected, nil
}

// MergeWithPrevious folds the subtitle at position index into its
// predecessor and returns the new sequence. The merged unit keeps the
// predecessor's identity and start, takes the current unit's end, and
// joins the text fields with a single space. Pronunciation and
// translation are concatenated only when both sides have them; a
// one-sided field is dropped entirely rather than half-merged. Notes are
// the union, predecessor first. All indices are renumbered.
func MergeWithPrevious(seq Sequence, index int) (Sequence, error) {
	if index < 0 || index >= len(seq) {
		return nil, fmt.Errorf("merge subtitle %d: %w", index, ErrIndexOutOfRange)
	}
	if index == 0 {
		return nil, fmt.Errorf("merge subtitle %d: %w", index, ErrNoPredecessor)
	}

	src := seq.Clone()
	prev := src[index-1]
	cur := src[index]

	prev.Text = joinSpaced(prev.Text, cur.Text)
	prev.End = cur.End
	if prev.Pronunciation != "" && cur.Pronunciation != "" {
		prev.Pronunciation = joinSpaced(prev.Pronunciation, cur.Pronunciation)
	} else {
		prev.Pronunciation = ""
	}
	if prev.Translation != "" && cur.Translation != "" {
		prev.Translation = joinSpaced(prev.Translation, cur.Translation)
	} else {
		prev.Translation = ""
	}
	if len(cur.Notes) > 0 {
		prev.Notes = append(append([]Note{}, prev.Notes...), cur.Notes...)
	}

	out := make(Sequence, 0, len(src)-1)
	out = append(out, src[:index-1]...)
	out = append(out, prev)
	out = append(out, src[index+1:]...)
	out.Renumber()
	return out, nil
}

// Split cuts the subtitle at position index in two at the requested word
// boundaries. The midpoint time is length-weighted by the character
// count of the two text halves and rounded to centiseconds. The first
// half keeps the original identity, start and notes; the second half is
// a new record with no notes. Pronunciation and translation are split at
// their own word positions so the cut can be semantic rather than
// proportional. All indices are renumbered.
func Split(seq Sequence, index int, req SplitRequest) (Sequence, error) {
	if index < 0 || index >= len(seq) {
		return nil, fmt.Errorf("split subtitle %d: %w", index, ErrIndexOutOfRange)
	}
	src := seq.Clone()
	cur := src[index]

	textA, textB, err := splitWords(cur.Text, req.SplitAfterWord)
	if err != nil {
		return nil, fmt.Errorf("split subtitle %d: %w", index, err)
	}

	ratio := float64(len(textA)) / float64(len(textA)+len(textB))
	mid := roundCenti(cur.Start + (cur.End-cur.Start)*ratio)

	first := cur
	first.Text = textA
	first.End = mid

	second := Subtitle{
		ID:    NewID(),
		Start: mid,
		End:   cur.End,
		Text:  textB,
	}

	if cur.Pronunciation != "" {
		pos := req.SplitAfterWord
		if req.PronAfterWord != nil {
			pos = *req.PronAfterWord
		}
		a, b, err := splitWords(cur.Pronunciation, pos)
		if err != nil {
			return nil, fmt.Errorf("split subtitle %d pronunciation: %w", index, err)
		}
		first.Pronunciation, second.Pronunciation = a, b
	}
	if cur.Translation != "" {
		pos := req.SplitAfterWord
		if req.TransAfterWord != nil {
			pos = *req.TransAfterWord
		}
		a, b, err := splitWords(cur.Translation, pos)
		if err != nil {
			return nil, fmt.Errorf("split subtitle %d translation: %w", index, err)
		}
		first.Translation, second.Translation = a, b
	}

	out := make(Sequence, 0, len(src)+1)
	out = append(out, src[:index]...)
	out = append(out, first, second)
	out = append(out, src[index+1:]...)
	out.Renumber()
	return out, nil
}

// DeleteNote removes the note at notePos from the subtitle at position
// index. When the last note is removed the field becomes absent rather
// than an empty list; presence checks elsewhere depend on that.
func DeleteNote(seq Sequence, index, notePos int) (Sequence, error) {
	if index < 0 || index >= len(seq) {
		return nil, fmt.Errorf("delete note on subtitle %d: %w", index, ErrIndexOutOfRange)
	}
	if notePos < 0 || notePos >= len(seq[index].Notes) {
		return nil, fmt.Errorf("delete note %d on subtitle %d: %w", notePos, index, ErrIndexOutOfRange)
	}
	out := seq.Clone()
	notes := out[index].Notes
	notes = append(notes[:notePos], notes[notePos+1:]...)
	if len(notes) == 0 {
		notes = nil
	}
	out[index].Notes = notes
	return out, nil
}

// splitWords cuts text after word position k (0-based) and returns the
// two halves rejoined with single spaces.
func splitWords(text string, k int) (string, string, error) {
	words := strings.Fields(text)
	if k < 0 || k >= len(words)-1 {
		return "", "", fmt.Errorf("split after word %d of %d: %w", k, len(words), ErrBadSplitPoint)
	}
	return strings.Join(words[:k+1], " "), strings.Join(words[k+1:], " "), nil
}

func joinSpaced(a, b string) string {
	return strings.TrimSpace(a) + " " + strings.TrimSpace(b)
}

func roundCenti(t float64) float64 {
	return math.Round(t*100) / 100
}
