// Package catalog loads the static per-video data: the video index
// shown on the list view and the base (externally authored) subtitle
// arrays. User edits never touch these files; they override them via
// the store.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"github.com/nothinking/movietalk/subtitle"
)

var ErrVideoNotFound = errors.New("video not found")

// IndexFilename is the conventional name of the video index inside the
// data directory. Subtitle arrays live next to it under subtitles/.
const IndexFilename = "index.json"

// VideoInfo is one entry of the video index.
type VideoInfo struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Channel          string    `json:"channel"`
	SubtitleCount    int       `json:"subtitleCount"`
	Duration         float64   `json:"duration"`
	HasPronunciation bool      `json:"hasPronunciation"`
	AddedAt          time.Time `json:"addedAt"`
}

// ObjectReader opens stored objects by key.
type ObjectReader interface {
	Open(key string) (io.ReadCloser, error)
}

// LocalFSObjectReader reads objects from a base directory.
type LocalFSObjectReader struct {
	basePath string
}

func NewLocalFSObjectReader(basePath string) *LocalFSObjectReader {
	return &LocalFSObjectReader{basePath: basePath}
}

func (r *LocalFSObjectReader) Open(key string) (io.ReadCloser, error) {
	return os.Open(path.Join(r.basePath, key))
}

// Catalog is the loaded video index plus access to the base subtitle
// arrays. The index is read once at startup.
type Catalog struct {
	reader ObjectReader
	videos []VideoInfo
}

// Load reads the index from the object reader.
func Load(reader ObjectReader) (*Catalog, error) {
	obj, err := reader.Open(IndexFilename)
	if err != nil {
		return nil, fmt.Errorf("error opening video index: %v", err)
	}
	defer obj.Close()

	var videos []VideoInfo
	if err := json.NewDecoder(obj).Decode(&videos); err != nil {
		return nil, fmt.Errorf("error decoding video index: %v", err)
	}
	return &Catalog{reader: reader, videos: videos}, nil
}

// Videos returns the index entries in file order.
func (c *Catalog) Videos() []VideoInfo {
	out := make([]VideoInfo, len(c.videos))
	copy(out, c.videos)
	return out
}

// Video looks an index entry up by id.
func (c *Catalog) Video(id string) (VideoInfo, error) {
	for _, v := range c.videos {
		if v.ID == id {
			return v, nil
		}
	}
	return VideoInfo{}, fmt.Errorf("video %s: %w", id, ErrVideoNotFound)
}

// Subtitles loads the base subtitle array for a video. Identities are
// assigned and indices made dense at load time; base files ship with
// neither guaranteed.
func (c *Catalog) Subtitles(videoID string) (subtitle.Sequence, error) {
	obj, err := c.reader.Open(path.Join("subtitles", fmt.Sprintf("%s.json", videoID)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("subtitles for video %s: %w", videoID, ErrVideoNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error opening subtitles for %s: %v", videoID, err)
	}
	defer obj.Close()

	var seq subtitle.Sequence
	if err := json.NewDecoder(obj).Decode(&seq); err != nil {
		return nil, fmt.Errorf("error decoding subtitles for %s: %v", videoID, err)
	}
	seq.EnsureIDs()
	seq.Renumber()
	return seq, nil
}

// SortForUser orders index entries for presentation: favorites first,
// original insertion order within each group.
func SortForUser(videos []VideoInfo, favorites []string) []VideoInfo {
	fav := make(map[string]bool, len(favorites))
	for _, id := range favorites {
		fav[id] = true
	}
	out := make([]VideoInfo, 0, len(videos))
	for _, v := range videos {
		if fav[v.ID] {
			out = append(out, v)
		}
	}
	for _, v := range videos {
		if !fav[v.ID] {
			out = append(out, v)
		}
	}
	return out
}
