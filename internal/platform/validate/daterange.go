package validate

import (
	"fmt"
	"time"
)

// DateRange is an inclusive range of UTC calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDateRange parses two YYYY-MM-DD dates.
func ParseDateRange(start, end string) (DateRange, error) {
	if !DatePattern.MatchString(start) || !DatePattern.MatchString(end) {
		return DateRange{}, fmt.Errorf("startDate and endDate must be YYYY-MM-DD")
	}
	s, err := time.Parse(time.DateOnly, start)
	if err != nil {
		return DateRange{}, fmt.Errorf("startDate: %w", err)
	}
	e, err := time.Parse(time.DateOnly, end)
	if err != nil {
		return DateRange{}, fmt.Errorf("endDate: %w", err)
	}
	return DateRange{Start: s, End: e}, nil
}

// Days lists every day in the range as YYYY-MM-DD. A range that ends
// before it starts is empty.
func (r DateRange) Days() []string {
	var out []string
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(time.DateOnly))
	}
	return out
}
