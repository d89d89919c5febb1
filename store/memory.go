package store

import (
	"context"

	"github.com/nothinking/movietalk/subtitle"
)

// Memory is an in-memory Store. Writes without an authenticated session
// silently downgrade to one of these so edits stay visible for the rest
// of the session without failing hard.
type Memory struct {
	subtitles   map[string]subtitle.Sequence
	expressions []Expression
	favorites   []string
	nextID      int64
}

func NewMemory() *Memory {
	return &Memory{
		subtitles: make(map[string]subtitle.Sequence),
		nextID:    1,
	}
}

func (m *Memory) UserSubtitles(ctx context.Context, videoID string) (subtitle.Sequence, error) {
	seq, ok := m.subtitles[videoID]
	if !ok {
		return nil, ErrNotFound
	}
	return seq.Clone(), nil
}

func (m *Memory) SaveUserSubtitles(ctx context.Context, videoID string, seq subtitle.Sequence) error {
	m.subtitles[videoID] = seq.Clone()
	return nil
}

func (m *Memory) ResetUserSubtitles(ctx context.Context, videoID string) error {
	delete(m.subtitles, videoID)
	return nil
}

func (m *Memory) SavedExpressions(ctx context.Context) ([]Expression, error) {
	out := make([]Expression, len(m.expressions))
	copy(out, m.expressions)
	return out, nil
}

func (m *Memory) AddSavedExpression(ctx context.Context, expr Expression) (Expression, error) {
	for i, e := range m.expressions {
		if e.VideoID == expr.VideoID && e.Word == expr.Word {
			expr.ID = e.ID
			m.expressions[i] = expr
			return expr, nil
		}
	}
	expr.ID = m.nextID
	m.nextID++
	m.expressions = append(m.expressions, expr)
	return expr, nil
}

func (m *Memory) RemoveSavedExpression(ctx context.Context, id int64) error {
	for i, e := range m.expressions {
		if e.ID == id {
			m.expressions = append(m.expressions[:i], m.expressions[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) FavoriteVideos(ctx context.Context) ([]string, error) {
	out := make([]string, len(m.favorites))
	copy(out, m.favorites)
	return out, nil
}

func (m *Memory) AddFavoriteVideo(ctx context.Context, videoID string) error {
	for _, id := range m.favorites {
		if id == videoID {
			return nil
		}
	}
	m.favorites = append(m.favorites, videoID)
	return nil
}

func (m *Memory) RemoveFavoriteVideo(ctx context.Context, videoID string) error {
	for i, id := range m.favorites {
		if id == videoID {
			m.favorites = append(m.favorites[:i], m.favorites[i+1:]...)
			return nil
		}
	}
	return nil
}
