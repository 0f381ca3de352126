package submission

import (
	"context"

	"github.com/gever/intake/internal/domain/affiliate"
	"github.com/gever/intake/internal/platform/validate"
)

// LogRepository is the submission audit trail.
type LogRepository interface {
	// Save stamps entry with an id and timestamp and stores it. Failures
	// are logged, never returned: auditing must not fail a submission.
	Save(ctx context.Context, entry LogEntry)
	// List returns up to limit keys under datePrefix, newest first. A
	// non-positive limit means no limit.
	List(ctx context.Context, datePrefix string, limit int) ([]string, error)
	// GetMany loads the entries behind keys, skipping any that fail.
	GetMany(ctx context.Context, keys []string) []LogEntry
	// AffiliateSales lists successful discounted sales over a date range.
	AffiliateSales(ctx context.Context, r validate.DateRange) ([]affiliate.Sale, error)
}
