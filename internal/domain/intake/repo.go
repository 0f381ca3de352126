package intake

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrFormSessionNotFound is returned when no snapshot exists for a payment
// authorization.
var ErrFormSessionNotFound = errors.New("form session not found")

// FormSessionRecord is the stored form snapshot. Exactly one of FormData
// and Sealed is set: Sealed holds the encrypted {formData, lang} pair.
type FormSessionRecord struct {
	FormData  json.RawMessage `json:"formData,omitempty"`
	Lang      string          `json:"lang,omitempty"`
	Sealed    string          `json:"sealed,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

type FormSessionRepository interface {
	Put(ctx context.Context, paymentIntentID string, rec *FormSessionRecord) error
	Get(ctx context.Context, paymentIntentID string) (*FormSessionRecord, error)
	Delete(ctx context.Context, paymentIntentID string) error
}
