// Package api is the degraded-mode HTTP fallback: when no persistence
// backend is configured, the client asks this server to run the same
// subtitle mutations it would otherwise compute itself. Both paths go
// through the one mutation engine in the subtitle package, so their
// results are identical by construction.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/nothinking/movietalk/catalog"
	"github.com/nothinking/movietalk/store"
	"github.com/nothinking/movietalk/subtitle"
)

type ApiHandler struct {
	files *store.FileStore
	cat   *catalog.Catalog
}

func NewApiHandler(files *store.FileStore, cat *catalog.Catalog) http.Handler {
	mux := http.NewServeMux()

	apiHandler := &ApiHandler{
		files: files,
		cat:   cat,
	}

	mux.HandleFunc("GET /api/videos", apiHandler.videosHandler)
	mux.HandleFunc("GET /api/subtitle/{videoId}", apiHandler.subtitlesHandler)
	mux.HandleFunc("PUT /api/subtitle/{videoId}/{index}", apiHandler.editHandler)
	mux.HandleFunc("POST /api/subtitle/merge/{videoId}/{index}", apiHandler.mergeHandler)
	mux.HandleFunc("POST /api/subtitle/split/{videoId}/{index}", apiHandler.splitHandler)

	return allowCORS(mux)
}

func allowCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		h.ServeHTTP(w, r)
	})
}

func (h *ApiHandler) videosHandler(w http.ResponseWriter, r *http.Request) {
	videos := h.cat.Videos()
	if len(videos) == 0 {
		videos = []catalog.VideoInfo{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(videos)
}

// sequence returns the user-edited sequence when one exists, the base
// catalog array otherwise.
func (h *ApiHandler) sequence(videoID string) (subtitle.Sequence, error) {
	seq, err := h.files.Load(videoID)
	if errors.Is(err, store.ErrNotFound) {
		return h.cat.Subtitles(videoID)
	}
	return seq, err
}

func (h *ApiHandler) subtitlesHandler(w http.ResponseWriter, r *http.Request) {
	videoID := r.PathValue("videoId")
	seq, err := h.sequence(videoID)
	if errors.Is(err, catalog.ErrVideoNotFound) {
		http.Error(w, "Video not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to load subtitles", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(seq)
}

type editResponse struct {
	Subtitle subtitle.Subtitle   `json:"subtitle"`
	Affected []subtitle.Subtitle `json:"affected,omitempty"`
}

func (h *ApiHandler) editHandler(w http.ResponseWriter, r *http.Request) {
	videoID, index, seq, ok := h.target(w, r)
	if !ok {
		return
	}

	var edit subtitle.Edit
	if err := json.NewDecoder(r.Body).Decode(&edit); err != nil {
		http.Error(w, "Invalid edit body", http.StatusBadRequest)
		return
	}

	out, affected, err := subtitle.ApplyEdit(seq, index, edit)
	if err != nil {
		writeMutationError(w, err)
		return
	}
	if !h.persist(w, videoID, out) {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(editResponse{
		Subtitle: affected[0],
		Affected: affected[1:],
	})
}

type sequenceResponse struct {
	Subtitles subtitle.Sequence `json:"subtitles"`
}

func (h *ApiHandler) mergeHandler(w http.ResponseWriter, r *http.Request) {
	videoID, index, seq, ok := h.target(w, r)
	if !ok {
		return
	}
	out, err := subtitle.MergeWithPrevious(seq, index)
	if err != nil {
		writeMutationError(w, err)
		return
	}
	if !h.persist(w, videoID, out) {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sequenceResponse{Subtitles: out})
}

func (h *ApiHandler) splitHandler(w http.ResponseWriter, r *http.Request) {
	videoID, index, seq, ok := h.target(w, r)
	if !ok {
		return
	}
	var req subtitle.SplitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid split body", http.StatusBadRequest)
		return
	}
	out, err := subtitle.Split(seq, index, req)
	if err != nil {
		writeMutationError(w, err)
		return
	}
	if !h.persist(w, videoID, out) {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sequenceResponse{Subtitles: out})
}

// target parses the common {videoId}/{index} pair and loads the current
// sequence. On failure it writes the response and returns ok=false.
func (h *ApiHandler) target(w http.ResponseWriter, r *http.Request) (string, int, subtitle.Sequence, bool) {
	videoID := r.PathValue("videoId")
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		http.Error(w, "Invalid index", http.StatusBadRequest)
		return "", 0, nil, false
	}

	seq, err := h.sequence(videoID)
	if errors.Is(err, catalog.ErrVideoNotFound) {
		http.Error(w, "Video not found", http.StatusNotFound)
		return "", 0, nil, false
	}
	if err != nil {
		http.Error(w, "Failed to load subtitles", http.StatusInternalServerError)
		return "", 0, nil, false
	}
	return videoID, index, seq, true
}

func (h *ApiHandler) persist(w http.ResponseWriter, videoID string, seq subtitle.Sequence) bool {
	if err := h.files.Save(videoID, seq); err != nil {
		log.Error().Err(err).Str("videoId", videoID).Msg("failed to persist subtitles")
		http.Error(w, "Failed to save subtitles", http.StatusInternalServerError)
		return false
	}
	return true
}

func writeMutationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, subtitle.ErrIndexOutOfRange):
		http.Error(w, "Subtitle not found", http.StatusNotFound)
	case errors.Is(err, subtitle.ErrNoPredecessor),
		errors.Is(err, subtitle.ErrBadSplitPoint),
		errors.Is(err, subtitle.ErrBadTimeRange):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "Mutation failed", http.StatusInternalServerError)
	}
}
