// Package session wires the playback adapter, synchronization core,
// study state, mutation engine and persistence into one single-goroutine
// viewing session.
package session

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/nothinking/movietalk/api"
	"github.com/nothinking/movietalk/store"
	"github.com/nothinking/movietalk/subtitle"
)

// Backend runs one structural mutation and persists the result. There
// are two implementations of the same contract: StoreBackend computes
// the mutation here and pushes the full array to the store;
// RemoteBackend asks the fallback server to run the identical engine
// and returns its result. For equal inputs both produce equal arrays.
type Backend interface {
	Edit(ctx context.Context, seq subtitle.Sequence, index int, e subtitle.Edit) (subtitle.Sequence, error)
	Merge(ctx context.Context, seq subtitle.Sequence, index int) (subtitle.Sequence, error)
	Split(ctx context.Context, seq subtitle.Sequence, index int, req subtitle.SplitRequest) (subtitle.Sequence, error)
	DeleteNote(ctx context.Context, seq subtitle.Sequence, index, notePos int) (subtitle.Sequence, error)
}

// StoreBackend is the authenticated path: client-side mutation, full
// array pushed to the persistence collaborator.
type StoreBackend struct {
	VideoID string
	Store   store.Store
}

func (b *StoreBackend) save(ctx context.Context, seq subtitle.Sequence) error {
	err := b.Store.SaveUserSubtitles(ctx, b.VideoID, seq)
	if errors.Is(err, store.ErrAuthRequired) {
		// Silent downgrade: the session keeps the array in memory; only
		// durability is lost.
		log.Debug().Str("videoId", b.VideoID).Msg("no session, subtitle edit kept in memory only")
		return nil
	}
	return err
}

func (b *StoreBackend) Edit(ctx context.Context, seq subtitle.Sequence, index int, e subtitle.Edit) (subtitle.Sequence, error) {
	out, _, err := subtitle.ApplyEdit(seq, index, e)
	if err != nil {
		return nil, err
	}
	if err := b.save(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *StoreBackend) Merge(ctx context.Context, seq subtitle.Sequence, index int) (subtitle.Sequence, error) {
	out, err := subtitle.MergeWithPrevious(seq, index)
	if err != nil {
		return nil, err
	}
	if err := b.save(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *StoreBackend) Split(ctx context.Context, seq subtitle.Sequence, index int, req subtitle.SplitRequest) (subtitle.Sequence, error) {
	out, err := subtitle.Split(seq, index, req)
	if err != nil {
		return nil, err
	}
	if err := b.save(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *StoreBackend) DeleteNote(ctx context.Context, seq subtitle.Sequence, index, notePos int) (subtitle.Sequence, error) {
	out, err := subtitle.DeleteNote(seq, index, notePos)
	if err != nil {
		return nil, err
	}
	if err := b.save(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// RemoteBackend is the degraded path: the fallback server runs the
// mutation engine and persists to its file store. Note deletion has no
// legacy endpoint, so it stays local to the session.
type RemoteBackend struct {
	VideoID string
	Client  *api.Client
}

func (b *RemoteBackend) Edit(ctx context.Context, seq subtitle.Sequence, index int, e subtitle.Edit) (subtitle.Sequence, error) {
	return b.Client.Edit(ctx, b.VideoID, index, e)
}

func (b *RemoteBackend) Merge(ctx context.Context, seq subtitle.Sequence, index int) (subtitle.Sequence, error) {
	return b.Client.Merge(ctx, b.VideoID, index)
}

func (b *RemoteBackend) Split(ctx context.Context, seq subtitle.Sequence, index int, req subtitle.SplitRequest) (subtitle.Sequence, error) {
	return b.Client.Split(ctx, b.VideoID, index, req)
}

func (b *RemoteBackend) DeleteNote(ctx context.Context, seq subtitle.Sequence, index, notePos int) (subtitle.Sequence, error) {
	return subtitle.DeleteNote(seq, index, notePos)
}
