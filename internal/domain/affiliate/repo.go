package affiliate

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("affiliate not found")
	ErrDuplicateCode = errors.New("an affiliate with this code already exists")
)

// Repository stores affiliates keyed by lowercased code.
type Repository interface {
	Get(ctx context.Context, code string) (*Affiliate, error)
	Put(ctx context.Context, a *Affiliate) error
	Delete(ctx context.Context, code string) error
	List(ctx context.Context) ([]*Affiliate, error)
}
