package store

import (
	"context"

	"github.com/nothinking/movietalk/subtitle"
)

// NewAuthStore gates a SQLite database behind the auth session. Every
// call resolves the current session and binds to that user, so a
// signed-out caller gets ErrAuthRequired and write paths can downgrade
// to in-memory state instead of failing hard.
func NewAuthStore(auth Auth, db *SQLite) Store {
	return &authStore{auth: auth, db: db}
}

type authStore struct {
	auth Auth
	db   *SQLite
}

func (a *authStore) forUser(ctx context.Context) (Store, error) {
	sess, err := a.auth.Session(ctx)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrAuthRequired
	}
	return a.db.ForUser(sess.UserID), nil
}

func (a *authStore) UserSubtitles(ctx context.Context, videoID string) (subtitle.Sequence, error) {
	s, err := a.forUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.UserSubtitles(ctx, videoID)
}

func (a *authStore) SaveUserSubtitles(ctx context.Context, videoID string, seq subtitle.Sequence) error {
	s, err := a.forUser(ctx)
	if err != nil {
		return err
	}
	return s.SaveUserSubtitles(ctx, videoID, seq)
}

func (a *authStore) ResetUserSubtitles(ctx context.Context, videoID string) error {
	s, err := a.forUser(ctx)
	if err != nil {
		return err
	}
	return s.ResetUserSubtitles(ctx, videoID)
}

func (a *authStore) SavedExpressions(ctx context.Context) ([]Expression, error) {
	s, err := a.forUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.SavedExpressions(ctx)
}

func (a *authStore) AddSavedExpression(ctx context.Context, expr Expression) (Expression, error) {
	s, err := a.forUser(ctx)
	if err != nil {
		return Expression{}, err
	}
	return s.AddSavedExpression(ctx, expr)
}

func (a *authStore) RemoveSavedExpression(ctx context.Context, id int64) error {
	s, err := a.forUser(ctx)
	if err != nil {
		return err
	}
	return s.RemoveSavedExpression(ctx, id)
}

func (a *authStore) FavoriteVideos(ctx context.Context) ([]string, error) {
	s, err := a.forUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.FavoriteVideos(ctx)
}

func (a *authStore) AddFavoriteVideo(ctx context.Context, videoID string) error {
	s, err := a.forUser(ctx)
	if err != nil {
		return err
	}
	return s.AddFavoriteVideo(ctx, videoID)
}

func (a *authStore) RemoveFavoriteVideo(ctx context.Context, videoID string) error {
	s, err := a.forUser(ctx)
	if err != nil {
		return err
	}
	return s.RemoveFavoriteVideo(ctx, videoID)
}
