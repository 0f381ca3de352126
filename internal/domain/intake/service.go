package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gever/intake/internal/platform/besteffort"
	"github.com/gever/intake/internal/platform/hipaa"
)

// DefaultLang is the questionnaire language when the client names none.
const DefaultLang = "he"

// FormSession is the snapshot handed back after a payment redirect.
type FormSession struct {
	FormData json.RawMessage `json:"formData"`
	Lang     string          `json:"lang"`
}

type sealedSession struct {
	FormData json.RawMessage `json:"formData"`
	Lang     string          `json:"lang"`
}

// FormSessions mirrors the in-progress form server side, keyed by payment
// authorization id, so it survives redirects that clear tab storage. Each
// snapshot can be read once.
type FormSessions struct {
	repo    FormSessionRepository
	sealer  *hipaa.Sealer
	runner  *besteffort.Runner
	logger  zerolog.Logger
	nowFunc func() time.Time
}

// NewFormSessions creates the service. sealer may be nil, in which case
// snapshots are stored in the clear.
func NewFormSessions(repo FormSessionRepository, sealer *hipaa.Sealer, runner *besteffort.Runner, logger zerolog.Logger) *FormSessions {
	return &FormSessions{repo: repo, sealer: sealer, runner: runner, logger: logger, nowFunc: time.Now}
}

// Save stores formData, which must be a JSON object, under paymentIntentID.
func (s *FormSessions) Save(ctx context.Context, paymentIntentID string, formData json.RawMessage, lang string) error {
	if paymentIntentID == "" {
		return fmt.Errorf("paymentIntentId is required")
	}
	if !isJSONObject(formData) {
		return fmt.Errorf("formData must be an object")
	}
	if lang == "" {
		lang = DefaultLang
	}

	rec := &FormSessionRecord{CreatedAt: s.nowFunc().UTC()}
	if s.sealer != nil {
		sealed, err := s.sealer.Seal(sealedSession{FormData: formData, Lang: lang})
		if err != nil {
			return fmt.Errorf("seal form session: %w", err)
		}
		rec.Sealed = sealed
	} else {
		rec.FormData = formData
		rec.Lang = lang
	}
	return s.repo.Put(ctx, paymentIntentID, rec)
}

// Take returns the snapshot for paymentIntentID and schedules its deletion.
// Any read failure is reported as ErrFormSessionNotFound.
func (s *FormSessions) Take(ctx context.Context, paymentIntentID string) (*FormSession, error) {
	rec, err := s.repo.Get(ctx, paymentIntentID)
	if err != nil {
		if !errors.Is(err, ErrFormSessionNotFound) {
			s.logger.Warn().Err(err).Msg("form session read failed")
		}
		return nil, ErrFormSessionNotFound
	}

	out := &FormSession{FormData: rec.FormData, Lang: rec.Lang}
	if rec.Sealed != "" {
		if s.sealer == nil {
			s.logger.Warn().Msg("sealed form session found but no key is configured")
			return nil, ErrFormSessionNotFound
		}
		var inner sealedSession
		if err := s.sealer.Open(rec.Sealed, &inner); err != nil {
			s.logger.Warn().Err(err).Msg("form session could not be opened")
			return nil, ErrFormSessionNotFound
		}
		out.FormData, out.Lang = inner.FormData, inner.Lang
	}

	s.runner.Go("form-session delete", func(ctx context.Context) error {
		return s.repo.Delete(ctx, paymentIntentID)
	})
	return out, nil
}
