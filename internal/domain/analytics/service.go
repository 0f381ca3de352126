package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gever/intake/internal/domain/intake"
	"github.com/gever/intake/internal/platform/besteffort"
	"github.com/gever/intake/internal/platform/validate"
)

type Service struct {
	repo        Repository
	runner      *besteffort.Runner
	screenOrder []string
	logger      zerolog.Logger
	nowFunc     func() time.Time
}

func NewService(repo Repository, runner *besteffort.Runner, logger zerolog.Logger) *Service {
	screens := intake.Screens()
	order := make([]string, len(screens))
	for i, s := range screens {
		order[i] = s.ID
	}
	return &Service{repo: repo, runner: runner, screenOrder: order, logger: logger, nowFunc: time.Now}
}

// Record merges an event into the stored session. The stored start time
// wins and completion is sticky. The write happens in the background;
// Record returns once it is dispatched.
func (s *Service) Record(ctx context.Context, ev Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	sess := &Session{
		SessionID:    ev.SessionID,
		StartedAt:    ev.StartedAt,
		UpdatedAt:    s.nowFunc().UTC().Format(time.RFC3339Nano),
		Lang:         ev.Lang,
		DeviceType:   ev.DeviceType,
		Referrer:     ev.Referrer,
		Screens:      ev.Screens,
		LastScreenID: ev.LastScreenID,
		Completed:    ev.Completed,
	}

	existing, err := s.repo.Get(ctx, sess.Date(), ev.SessionID)
	switch {
	case err == nil:
		if existing.StartedAt != "" {
			sess.StartedAt = existing.StartedAt
		}
		sess.Completed = sess.Completed || existing.Completed
	case !errors.Is(err, ErrNotFound):
		s.logger.Debug().Err(err).Msg("analytics session lookup failed; treating as new")
	}

	s.runner.Go("analytics session save", func(ctx context.Context) error {
		return s.repo.Save(ctx, sess)
	})
	return nil
}

// Report is the dashboard payload for a date range.
type Report struct {
	DateRange struct {
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"dateRange"`
	Stats
}

// Report loads every session started in r, one UTC day at a time.
func (s *Service) Report(ctx context.Context, r validate.DateRange) (*Report, error) {
	var keys []string
	for _, day := range r.Days() {
		k, err := s.repo.ListKeys(ctx, day+"/")
		if err != nil {
			return nil, fmt.Errorf("collect sessions for %s: %w", day, err)
		}
		keys = append(keys, k...)
	}

	rep := &Report{Stats: ComputeStats(s.repo.GetMany(ctx, keys), s.screenOrder)}
	rep.DateRange.Start = r.Start.Format(time.DateOnly)
	rep.DateRange.End = r.End.Format(time.DateOnly)
	return rep, nil
}
