package subtitle

import (
	"github.com/google/uuid"
)

// Note is a pronunciation call-out attached to a subtitle. Each note can
// be saved as a learner expression or deleted individually.
type Note struct {
	Word    string `json:"word"`
	Actual  string `json:"actual"`
	Meaning string `json:"meaning"`
}

// Subtitle is one timed caption unit.
//
// ID is the stable identity of the unit: it survives edits and merges and
// is what "same subtitle" comparisons should use. Index is the dense
// display position (0..n-1), recomputed after every structural mutation,
// and is only stable within one render cycle.
type Subtitle struct {
	ID            string  `json:"id,omitempty"`
	Index         int     `json:"index"`
	Start         float64 `json:"start"`
	End           float64 `json:"end"`
	Text          string  `json:"text"`
	Pronunciation string  `json:"pronunciation,omitempty"`
	Translation   string  `json:"translation,omitempty"`
	Notes         []Note  `json:"notes,omitempty"`
}

// Sequence is the ordered subtitle list for one video. It is the single
// source of truth for playback highlighting and study navigation.
type Sequence []Subtitle

// NewID returns a fresh subtitle identity.
func NewID() string {
	return uuid.New().String()
}

// Clone returns a deep copy of the sequence. Mutations always operate on
// a copy so callers never observe a partially updated array.
func (s Sequence) Clone() Sequence {
	out := make(Sequence, len(s))
	copy(out, s)
	for i := range out {
		if out[i].Notes != nil {
			notes := make([]Note, len(out[i].Notes))
			copy(notes, out[i].Notes)
			out[i].Notes = notes
		}
	}
	return out
}

// Renumber reassigns every element's Index to its position.
func (s Sequence) Renumber() {
	for i := range s {
		s[i].Index = i
	}
}

// EnsureIDs assigns identities to any element that is missing one. Base
// subtitle files ship without ids; they are assigned once at load time.
func (s Sequence) EnsureIDs() {
	for i := range s {
		if s[i].ID == "" {
			s[i].ID = NewID()
		}
	}
}

// ActiveIndexAt returns the position of the subtitle whose half-open
// interval [start, end) contains t, or -1 if t falls in a gap or outside
// the sequence.
func (s Sequence) ActiveIndexAt(t float64) int {
	for i := range s {
		if t >= s[i].Start && t < s[i].End {
			return i
		}
	}
	return -1
}

// PositionOf returns the position of the subtitle with the given id, or
// -1 when it is not in the sequence.
func (s Sequence) PositionOf(id string) int {
	for i := range s {
		if s[i].ID == id {
			return i
		}
	}
	return -1
}

// HasPronunciation reports whether the video carries pronunciation data.
// Presence on the first element is the signal for the whole video; it
// controls whether study and edit features are offered at all.
func (s Sequence) HasPronunciation() bool {
	return len(s) > 0 && s[0].Pronunciation != ""
}
