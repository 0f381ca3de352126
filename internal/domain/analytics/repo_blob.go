package analytics

import (
	"context"
	"errors"
	"fmt"

	"github.com/gever/intake/internal/platform/blobstore"
)

type blobRepo struct {
	store blobstore.Store
}

func NewRepoBlob(store blobstore.Store) Repository {
	return &blobRepo{store: blobstore.Namespace(store, blobstore.AnalyticsSessions)}
}

func sessionKey(date, sessionID string) string {
	return date + "/" + sessionID
}

func (r *blobRepo) Get(ctx context.Context, date, sessionID string) (*Session, error) {
	var s Session
	if err := r.store.Get(ctx, sessionKey(date, sessionID), &s); err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get analytics session: %w", err)
	}
	return &s, nil
}

func (r *blobRepo) Save(ctx context.Context, s *Session) error {
	if err := r.store.SetJSON(ctx, sessionKey(s.Date(), s.SessionID), s); err != nil {
		return fmt.Errorf("save analytics session: %w", err)
	}
	return nil
}

func (r *blobRepo) ListKeys(ctx context.Context, datePrefix string) ([]string, error) {
	keys, err := r.store.List(ctx, datePrefix)
	if err != nil {
		return nil, fmt.Errorf("list analytics sessions: %w", err)
	}
	return keys, nil
}

func (r *blobRepo) GetMany(ctx context.Context, keys []string) []Session {
	out := make([]Session, 0, len(keys))
	for _, k := range keys {
		var s Session
		if err := r.store.Get(ctx, k, &s); err != nil {
			continue
		}
		out = append(out, s)
	}
	return out
}
