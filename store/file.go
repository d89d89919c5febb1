package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/nothinking/movietalk/subtitle"
)

// FileStore keeps one JSON subtitle array per video under a base
// directory. It backs the degraded local mode, where the fallback HTTP
// server runs the mutation engine and persists the result here.
type FileStore struct {
	basePath string
}

func NewFileStore(basePath string) *FileStore {
	return &FileStore{basePath: basePath}
}

func (f *FileStore) path(videoID string) string {
	return path.Join(f.basePath, fmt.Sprintf("%s.json", videoID))
}

// Load reads the subtitle sequence for a video. ErrNotFound when the
// video has no file.
func (f *FileStore) Load(videoID string) (subtitle.Sequence, error) {
	data, err := os.ReadFile(f.path(videoID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var seq subtitle.Sequence
	if err := json.Unmarshal(data, &seq); err != nil {
		return nil, fmt.Errorf("error decoding subtitle file for %s: %v", videoID, err)
	}
	return seq, nil
}

// Save writes the subtitle sequence for a video atomically (write to a
// temp file, then rename).
func (f *FileStore) Save(videoID string, seq subtitle.Sequence) error {
	if err := os.MkdirAll(f.basePath, 0755); err != nil {
		return fmt.Errorf("error creating subtitle directory: %v", err)
	}
	data, err := json.MarshalIndent(seq, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding subtitles for %s: %v", videoID, err)
	}
	tmp := f.path(videoID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("error writing subtitle file for %s: %v", videoID, err)
	}
	if err := os.Rename(tmp, f.path(videoID)); err != nil {
		return fmt.Errorf("error replacing subtitle file for %s: %v", videoID, err)
	}
	return nil
}
