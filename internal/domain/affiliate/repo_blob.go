package affiliate

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
	return &blobRepo{store: blobstore.Namespace(store, blobstore.Affiliates)}
}

func (r *blobRepo) Get(ctx context.Context, code string) (*Affiliate, error) {
	var a Affiliate
	if err := r.store.Get(ctx, Key(code), &a); err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get affiliate: %w", err)
	}
	return &a, nil
}

func (r *blobRepo) Put(ctx context.Context, a *Affiliate) error {
	if err := r.store.SetJSON(ctx, Key(a.Code), a); err != nil {
		return fmt.Errorf("put affiliate: %w", err)
	}
	return nil
}

func (r *blobRepo) Delete(ctx context.Context, code string) error {
	if err := r.store.Delete(ctx, Key(code)); err != nil {
		return fmt.Errorf("delete affiliate: %w", err)
	}
	return nil
}

// List skips records that fail to load.
func (r *blobRepo) List(ctx context.Context) ([]*Affiliate, error) {
	keys, err := r.store.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list affiliates: %w", err)
	}
	out := make([]*Affiliate, 0, len(keys))
	for _, k := range keys {
		var a Affiliate
		if err := r.store.Get(ctx, k, &a); err != nil {
			continue
		}
		out = append(out, &a)
	}
	return out, nil
}
