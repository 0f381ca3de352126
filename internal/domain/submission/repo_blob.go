package submission

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gever/intake/internal/domain/affiliate"
	"github.com/gever/intake/internal/platform/blobstore"
	"github.com/gever/intake/internal/platform/validate"
)

type logStoreBlob struct {
	store   blobstore.Store
	logger  zerolog.Logger
	nowFunc func() time.Time
}

func NewLogStoreBlob(store blobstore.Store, logger zerolog.Logger) LogRepository {
	return &logStoreBlob{
		store:   blobstore.Namespace(store, blobstore.SubmissionLogs),
		logger:  logger,
		nowFunc: time.Now,
	}
}

// logKey is {YYYY-MM-DD}/{epochMillis}_{masterId}; keys sort by time
// within a day.
func logKey(ts time.Time, masterID string) string {
	return ts.Format(time.DateOnly) + "/" + strconv.FormatInt(ts.UnixMilli(), 10) + "_" + masterID
}

func (s *logStoreBlob) Save(ctx context.Context, entry LogEntry) {
	entry.ID = uuid.New().String()
	entry.Timestamp = s.nowFunc().UTC()
	key := logKey(entry.Timestamp, entry.MasterID)
	if err := s.store.SetJSON(ctx, key, entry); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("failed to save submission log")
		return
	}
	s.logger.Info().Str("key", key).Str("status", string(entry.Status)).Msg("submission log saved")
}

func (s *logStoreBlob) List(ctx context.Context, datePrefix string, limit int) ([]string, error) {
	keys, err := s.store.List(ctx, datePrefix)
	if err != nil {
		return nil, fmt.Errorf("list submission logs: %w", err)
	}
	for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
		keys[i], keys[j] = keys[j], keys[i]
	}
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	return keys, nil
}

func (s *logStoreBlob) GetMany(ctx context.Context, keys []string) []LogEntry {
	out := make([]LogEntry, 0, len(keys))
	for _, k := range keys {
		var e LogEntry
		if err := s.store.Get(ctx, k, &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (s *logStoreBlob) AffiliateSales(ctx context.Context, r validate.DateRange) ([]affiliate.Sale, error) {
	var sales []affiliate.Sale
	for _, day := range r.Days() {
		keys, err := s.List(ctx, day+"/", 0)
		if err != nil {
			return nil, err
		}
		for _, e := range s.GetMany(ctx, keys) {
			if e.Status != StatusSuccess || e.AffiliateCode == "" {
				continue
			}
			sales = append(sales, affiliate.Sale{
				AffiliateCode:  e.AffiliateCode,
				DiscountAmount: e.DiscountAmount,
				PaymentAmount:  e.PaymentAmount,
			})
		}
	}
	return sales, nil
}
