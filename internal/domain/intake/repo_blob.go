package intake

import (
	"context"
	"errors"
	"fmt"

	"github.com/gever/intake/internal/platform/blobstore"
)

type formSessionRepoBlob struct {
	store blobstore.Store
}

// NewFormSessionRepoBlob stores snapshots in the form-sessions namespace of
// store, keyed by payment authorization id.
func NewFormSessionRepoBlob(store blobstore.Store) FormSessionRepository {
	return &formSessionRepoBlob{store: blobstore.Namespace(store, blobstore.FormSessions)}
}

func (r *formSessionRepoBlob) Put(ctx context.Context, paymentIntentID string, rec *FormSessionRecord) error {
	if err := r.store.SetJSON(ctx, paymentIntentID, rec); err != nil {
		return fmt.Errorf("put form session: %w", err)
	}
	return nil
}

func (r *formSessionRepoBlob) Get(ctx context.Context, paymentIntentID string) (*FormSessionRecord, error) {
	var rec FormSessionRecord
	if err := r.store.Get(ctx, paymentIntentID, &rec); err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, ErrFormSessionNotFound
		}
		return nil, fmt.Errorf("get form session: %w", err)
	}
	return &rec, nil
}

func (r *formSessionRepoBlob) Delete(ctx context.Context, paymentIntentID string) error {
	return r.store.Delete(ctx, paymentIntentID)
}
