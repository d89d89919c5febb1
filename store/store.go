// Package store holds the persistence collaborators. The subtitle
// mutation engine is written once; this package only moves the
// resulting arrays: a sqlite-backed store keyed by (user, video) for
// authenticated sessions, a file-backed store for the degraded local
// mode, and an in-memory store that writes downgrade to when no
// session exists.
package store

import (
	"context"
	"errors"

	"github.com/nothinking/movietalk/subtitle"
)

var (
	// ErrNotFound marks a missing video, subtitle set or expression.
	ErrNotFound = errors.New("not found")
	// ErrAuthRequired marks a persistence call without a session.
	ErrAuthRequired = errors.New("auth required")
	// ErrSubscribed marks a second auth change subscription; only one
	// may be active at a time.
	ErrSubscribed = errors.New("auth change subscription already active")
)

// Expression is a learner-saved pronunciation call-out. Uniqueness key
// is (video, word); re-saving the same word upserts.
type Expression struct {
	ID       int64  `json:"id"`
	VideoID  string `json:"video_id"`
	Word     string `json:"word"`
	Actual   string `json:"actual"`
	Meaning  string `json:"meaning"`
	Sentence string `json:"sentence"`
}

// Session identifies the authenticated user.
type Session struct {
	UserID string
}

// Store is the persistence collaborator for one authenticated user.
type Store interface {
	UserSubtitles(ctx context.Context, videoID string) (subtitle.Sequence, error)
	SaveUserSubtitles(ctx context.Context, videoID string, seq subtitle.Sequence) error
	ResetUserSubtitles(ctx context.Context, videoID string) error

	SavedExpressions(ctx context.Context) ([]Expression, error)
	AddSavedExpression(ctx context.Context, expr Expression) (Expression, error)
	RemoveSavedExpression(ctx context.Context, id int64) error

	FavoriteVideos(ctx context.Context) ([]string, error)
	AddFavoriteVideo(ctx context.Context, videoID string) error
	RemoveFavoriteVideo(ctx context.Context, videoID string) error
}

// Auth retrieves the current session and notifies on changes. At most
// one subscription is active; the returned func disposes it.
type Auth interface {
	Session(ctx context.Context) (*Session, error)
	OnChange(fn func(*Session)) (func(), error)
}

// StaticAuth is an Auth whose session is set by the host. It backs
// tests and the local single-user mode.
type StaticAuth struct {
	session    *Session
	subscriber func(*Session)
}

func NewStaticAuth(session *Session) *StaticAuth {
	return &StaticAuth{session: session}
}

func (a *StaticAuth) Session(ctx context.Context) (*Session, error) {
	if a.session == nil {
		return nil, ErrAuthRequired
	}
	return a.session, nil
}

func (a *StaticAuth) OnChange(fn func(*Session)) (func(), error) {
	if a.subscriber != nil {
		return nil, ErrSubscribed
	}
	a.subscriber = fn
	return func() { a.subscriber = nil }, nil
}

// SetSession replaces the session and notifies the subscriber.
func (a *StaticAuth) SetSession(s *Session) {
	a.session = s
	if a.subscriber != nil {
		a.subscriber(s)
	}
}
