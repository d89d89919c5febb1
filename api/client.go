package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/nothinking/movietalk/subtitle"
)

// Client talks to the fallback server. It is the degraded-mode twin of
// the client-side mutation path: the same operation is requested over
// HTTP and the server returns the resulting array.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{baseURL: baseURL, http: http.DefaultClient}
}

// Subtitles fetches the current sequence for a video.
func (c *Client) Subtitles(ctx context.Context, videoID string) (subtitle.Sequence, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/api/subtitle/%s", c.baseURL, videoID), nil)
	if err != nil {
		return nil, err
	}
	var seq subtitle.Sequence
	if err := c.do(req, &seq); err != nil {
		return nil, err
	}
	return seq, nil
}

// Edit applies a single-subtitle edit server-side and returns the full
// resulting sequence.
func (c *Client) Edit(ctx context.Context, videoID string, index int, e subtitle.Edit) (subtitle.Sequence, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		fmt.Sprintf("%s/api/subtitle/%s/%d", c.baseURL, videoID, index), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	var resp editResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	// The edit endpoint returns only the changed records; re-fetch for
	// the full array the update callback needs.
	return c.Subtitles(ctx, videoID)
}

// Merge folds the subtitle at index into its predecessor server-side.
func (c *Client) Merge(ctx context.Context, videoID string, index int) (subtitle.Sequence, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/api/subtitle/merge/%s/%d", c.baseURL, videoID, index), nil)
	if err != nil {
		return nil, err
	}
	var resp sequenceResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return resp.Subtitles, nil
}

// Split cuts the subtitle at index server-side.
func (c *Client) Split(ctx context.Context, videoID string, index int, sr subtitle.SplitRequest) (subtitle.Sequence, error) {
	body, err := json.Marshal(sr)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/api/subtitle/split/%s/%d", c.baseURL, videoID, index), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	var resp sequenceResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return resp.Subtitles, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: %s: %s", req.Method, req.URL.Path, resp.Status, bytes.TrimSpace(msg))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
