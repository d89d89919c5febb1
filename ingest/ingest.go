// Package ingest turns externally authored subtitle files into the
// per-video data the catalog serves: one subtitles/<id>.json array per
// video plus an index.json entry. Subtitle cues with a second and third
// line carry pronunciation and translation.
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/asticode/go-astisub"
	"github.com/rs/zerolog/log"
	ffmpeg_go "github.com/u2takey/ffmpeg-go"

	"github.com/nothinking/movietalk/catalog"
	"github.com/nothinking/movietalk/subtitle"
)

type Config struct {
	// Channel is stamped on every imported index entry.
	Channel string `mapstructure:"channel"`
}

type Importer struct {
	config *Config

	now   func() time.Time
	probe func(inputFilePath string) (string, error)
}

// NewImporter creates a new Importer instance.
func NewImporter(cfg Config) *Importer {
	return &Importer{config: &cfg, now: time.Now, probe: func(inputFilePath string) (string, error) {
		return ffmpeg_go.Probe(inputFilePath)
	}}
}

var subtitleExtensions = map[string]bool{
	".srt": true,
	".vtt": true,
}

var mediaExtensions = []string{".mp4", ".mkv", ".webm", ".m4v"}

type ffmpegFormatProbe struct {
	Format struct {
		Duration string `json:"duration"`
		Tags     struct {
			Title string `json:"title"`
		} `json:"tags"`
	} `json:"format"`
}

// Run scans inputDir for subtitle files and imports each one into
// dataDir. Videos already present under dataDir/subtitles are skipped.
func (i *Importer) Run(inputDir string, dataDir string) error {
	log.Info().Str("inputDir", inputDir).Str("dataDir", dataDir).Msg("importing subtitle files")

	err := filepath.WalkDir(inputDir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("error walking input directory: %v", err)
		}
		if d.IsDir() || !subtitleExtensions[strings.ToLower(filepath.Ext(p))] {
			return nil
		}
		if err := i.importFile(p, dataDir); err != nil {
			return fmt.Errorf("error importing %s: %v", p, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error importing files: %v", err)
	}
	return nil
}

func (i *Importer) importFile(inputFilePath string, dataDir string) error {
	videoID := strings.TrimSuffix(path.Base(inputFilePath), filepath.Ext(inputFilePath))

	outputPath := path.Join(dataDir, "subtitles", fmt.Sprintf("%s.json", videoID))
	if _, err := os.Stat(outputPath); err == nil {
		log.Info().Str("videoId", videoID).Msg("video already imported")
		return nil
	}

	parsed, err := astisub.OpenFile(inputFilePath)
	if err != nil {
		return fmt.Errorf("error parsing subtitle file: %v", err)
	}

	seq := make(subtitle.Sequence, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		sub := subtitle.Subtitle{
			Start: item.StartAt.Seconds(),
			End:   item.EndAt.Seconds(),
		}
		for n, line := range item.Lines {
			switch n {
			case 0:
				sub.Text = line.String()
			case 1:
				sub.Pronunciation = line.String()
			case 2:
				sub.Translation = line.String()
			}
		}
		if sub.Text == "" {
			continue
		}
		seq = append(seq, sub)
	}
	seq.EnsureIDs()
	seq.Renumber()

	info := catalog.VideoInfo{
		ID:               videoID,
		Title:            videoID,
		Channel:          i.config.Channel,
		SubtitleCount:    len(seq),
		HasPronunciation: seq.HasPronunciation(),
		AddedAt:          i.now().UTC(),
	}
	if len(seq) > 0 {
		info.Duration = seq[len(seq)-1].End
	}
	i.probeMedia(inputFilePath, &info)

	if err := os.MkdirAll(path.Join(dataDir, "subtitles"), 0755); err != nil {
		return fmt.Errorf("error creating subtitles directory: %v", err)
	}
	data, err := json.MarshalIndent(seq, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshalling subtitles: %v", err)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("error writing subtitles: %v", err)
	}

	if err := i.updateIndex(dataDir, info); err != nil {
		return err
	}

	log.Info().Str("videoId", videoID).Int("subtitles", len(seq)).
		Bool("hasPronunciation", info.HasPronunciation).Msg("imported video")
	return nil
}

// probeMedia fills duration and title from a media file sitting next to
// the subtitle file. Imports without media keep the subtitle-derived
// duration.
func (i *Importer) probeMedia(subtitlePath string, info *catalog.VideoInfo) {
	base := strings.TrimSuffix(subtitlePath, filepath.Ext(subtitlePath))
	for _, ext := range mediaExtensions {
		mediaPath := base + ext
		if _, err := os.Stat(mediaPath); err != nil {
			continue
		}
		probeStr, err := i.probe(mediaPath)
		if err != nil {
			log.Warn().Str("path", mediaPath).Err(err).Msg("media probe failed")
			return
		}
		var probe ffmpegFormatProbe
		if err := json.Unmarshal([]byte(probeStr), &probe); err != nil {
			log.Warn().Str("path", mediaPath).Err(err).Msg("error unmarshalling ffprobe output")
			return
		}
		if d, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil && d > 0 {
			info.Duration = d
		}
		if probe.Format.Tags.Title != "" {
			info.Title = probe.Format.Tags.Title
		}
		return
	}
}

func (i *Importer) updateIndex(dataDir string, info catalog.VideoInfo) error {
	indexPath := path.Join(dataDir, catalog.IndexFilename)

	var videos []catalog.VideoInfo
	data, err := os.ReadFile(indexPath)
	if err == nil {
		if err := json.Unmarshal(data, &videos); err != nil {
			return fmt.Errorf("error decoding video index: %v", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error reading video index: %v", err)
	}

	replaced := false
	for n, v := range videos {
		if v.ID == info.ID {
			videos[n] = info
			replaced = true
			break
		}
	}
	if !replaced {
		videos = append(videos, info)
	}

	out, err := json.MarshalIndent(videos, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshalling video index: %v", err)
	}
	if err := os.WriteFile(indexPath, out, 0644); err != nil {
		return fmt.Errorf("error writing video index: %v", err)
	}
	return nil
}
