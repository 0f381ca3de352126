package analytics

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("analytics session not found")

// Repository stores sessions under {date}/{sessionId}.
type Repository interface {
	Get(ctx context.Context, date, sessionID string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	ListKeys(ctx context.Context, datePrefix string) ([]string, error)
	// GetMany skips keys that fail to load.
	GetMany(ctx context.Context, keys []string) []Session
}
