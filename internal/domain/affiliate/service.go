package affiliate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gever/intake/internal/platform/validate"
)

var codePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// MaxAmount bounds discount and commission values.
const MaxAmount = 100000

// Input is the admin-editable part of an affiliate. Pointer fields
// distinguish "absent" from zero so defaults can be applied.
type Input struct {
	Name            string   `json:"name"`
	Code            string   `json:"code"`
	DiscountType    string   `json:"discountType"`
	DiscountValue   *float64 `json:"discountValue"`
	CommissionType  string   `json:"commissionType"`
	CommissionValue *float64 `json:"commissionValue"`
	ExpiresAt       *string  `json:"expiresAt"`
	MaxUses         *float64 `json:"maxUses"`
	Active          *bool    `json:"active"`
}

// Validate applies defaults and checks every field.
func (in *Input) Validate() error {
	if in.DiscountType == "" {
		in.DiscountType = TypeFixed
	}
	if in.CommissionType == "" {
		in.CommissionType = TypePercentage
	}

	var v validate.Checker
	v.Len("name", in.Name, 1, 200)
	v.Len("code", in.Code, 2, 50)
	v.Match("code", in.Code, codePattern, "Code must be alphanumeric")
	v.OneOf("discountType", in.DiscountType, TypePercentage, TypeFixed)
	if in.DiscountValue == nil {
		v.Fail("discountValue", "is required")
	} else {
		v.Range("discountValue", *in.DiscountValue, 0, MaxAmount, true)
	}
	v.OneOf("commissionType", in.CommissionType, TypePercentage, TypeFixed)
	if in.CommissionValue == nil {
		v.Fail("commissionValue", "is required")
	} else {
		v.Range("commissionValue", *in.CommissionValue, 0, MaxAmount, false)
	}
	if in.MaxUses != nil {
		if m := *in.MaxUses; m != math.Trunc(m) || m <= 0 {
			v.Fail("maxUses", "must be a positive integer")
		}
	}
	return v.Err()
}

func (in *Input) apply(a *Affiliate) {
	a.Name = in.Name
	a.Code = in.Code
	a.DiscountType = in.DiscountType
	a.DiscountValue = *in.DiscountValue
	a.CommissionType = in.CommissionType
	a.CommissionValue = *in.CommissionValue
	a.ExpiresAt = in.ExpiresAt
	a.MaxUses = nil
	if in.MaxUses != nil {
		n := int(*in.MaxUses)
		a.MaxUses = &n
	}
	a.Active = in.Active == nil || *in.Active
}

// Sale is one successful submission that used a discount code.
type Sale struct {
	AffiliateCode  string
	DiscountAmount float64
	PaymentAmount  float64
}

// SalesSource lists the discounted sales made on the days of a range.
type SalesSource interface {
	AffiliateSales(ctx context.Context, r validate.DateRange) ([]Sale, error)
}

type Service struct {
	repo    Repository
	sales   SalesSource
	loc     *time.Location
	logger  zerolog.Logger
	nowFunc func() time.Time
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, loc: time.UTC, logger: logger, nowFunc: time.Now}
}

// SetLocation sets the zone for expiry times written without an offset.
func (s *Service) SetLocation(loc *time.Location) {
	s.loc = loc
}

// SetSalesSource enables Report.
func (s *Service) SetSalesSource(src SalesSource) {
	s.sales = src
}

// lookup treats any read failure as "no such affiliate".
func (s *Service) lookup(ctx context.Context, code string) *Affiliate {
	a, err := s.repo.Get(ctx, code)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn().Err(err).Msg("affiliate lookup failed")
		}
		return nil
	}
	return a
}

// Validate returns the affiliate behind an active, unexpired code that has
// uses left. Callers must not tell the patient which check failed.
func (s *Service) Validate(ctx context.Context, code string) (*Affiliate, bool) {
	a := s.lookup(ctx, code)
	switch {
	case a == nil:
		return nil, false
	case !a.Active:
		return nil, false
	case a.Expired(s.nowFunc(), s.loc):
		return nil, false
	case a.Exhausted():
		return nil, false
	}
	return a, true
}

// IncrementUsage records one redemption. The read-modify-write is not
// atomic: concurrent redemptions of the same code can undercount.
func (s *Service) IncrementUsage(ctx context.Context, code string) error {
	a := s.lookup(ctx, code)
	if a == nil {
		return nil
	}
	a.UsageCount++
	a.UpdatedAt = s.nowFunc().UTC()
	return s.repo.Put(ctx, a)
}

// List returns every affiliate, newest first.
func (s *Service) List(ctx context.Context) ([]*Affiliate, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return all, nil
}

func (s *Service) Create(ctx context.Context, in Input) (*Affiliate, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if s.lookup(ctx, in.Code) != nil {
		return nil, ErrDuplicateCode
	}

	now := s.nowFunc().UTC()
	a := &Affiliate{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now}
	in.apply(a)
	if err := s.repo.Put(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info().Str("code", a.Code).Msg("affiliate created")
	return a, nil
}

// Update replaces the editable fields of the affiliate stored under
// originalCode. Renaming moves the record to the new code's key.
func (s *Service) Update(ctx context.Context, originalCode string, in Input) (*Affiliate, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	existing := s.lookup(ctx, originalCode)
	if existing == nil {
		return nil, ErrNotFound
	}

	renamed := Key(in.Code) != Key(originalCode)
	if renamed && s.lookup(ctx, in.Code) != nil {
		return nil, ErrDuplicateCode
	}

	in.apply(existing)
	existing.UpdatedAt = s.nowFunc().UTC()

	if renamed {
		if err := s.repo.Delete(ctx, originalCode); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Put(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *Service) Delete(ctx context.Context, code string) error {
	if s.lookup(ctx, code) == nil {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, code)
}

type ReportRow struct {
	Code            string  `json:"code"`
	Name            string  `json:"name"`
	SalesCount      int     `json:"salesCount"`
	TotalRevenue    float64 `json:"totalRevenue"`
	TotalDiscount   float64 `json:"totalDiscount"`
	CommissionOwed  float64 `json:"commissionOwed"`
	CommissionType  string  `json:"commissionType"`
	CommissionValue float64 `json:"commissionValue"`
}

type ReportTotals struct {
	TotalSales         int     `json:"totalSales"`
	TotalDiscountGiven float64 `json:"totalDiscountGiven"`
	TotalCommission    float64 `json:"totalCommission"`
	AffiliateCount     int     `json:"affiliateCount"`
}

type Report struct {
	StartDate string       `json:"startDate"`
	EndDate   string       `json:"endDate"`
	Rows      []ReportRow  `json:"rows"`
	Totals    ReportTotals `json:"totals"`
}

// Report totals discounted sales per code over r. Commission uses the
// affiliate's current terms; a code with no record is reported with
// commission type "unknown" and nothing owed.
func (s *Service) Report(ctx context.Context, r validate.DateRange) (*Report, error) {
	if s.sales == nil {
		return nil, fmt.Errorf("affiliate report: no sales source")
	}
	sales, err := s.sales.AffiliateSales(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("affiliate report: %w", err)
	}

	var order []string
	grouped := make(map[string][]Sale)
	for _, sale := range sales {
		if sale.AffiliateCode == "" {
			continue
		}
		k := Key(sale.AffiliateCode)
		if _, ok := grouped[k]; !ok {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], sale)
	}

	rep := &Report{
		StartDate: r.Start.Format(time.DateOnly),
		EndDate:   r.End.Format(time.DateOnly),
		Rows:      make([]ReportRow, 0, len(order)),
	}
	for _, code := range order {
		group := grouped[code]
		row := ReportRow{Code: code, Name: code, SalesCount: len(group), CommissionType: "unknown"}
		for _, sale := range group {
			row.TotalDiscount += sale.DiscountAmount
			row.TotalRevenue += sale.PaymentAmount
		}

		if a := s.lookup(ctx, code); a != nil {
			row.Code = a.Code
			row.Name = a.Name
			row.CommissionType = a.CommissionType
			row.CommissionValue = a.CommissionValue
			if a.CommissionType == TypeFixed {
				row.CommissionOwed = float64(row.SalesCount) * a.CommissionValue
			} else {
				for _, sale := range group {
					row.CommissionOwed += CalculateCommission(a, sale.DiscountAmount)
				}
			}
		}

		rep.Rows = append(rep.Rows, row)
		rep.Totals.TotalSales += row.SalesCount
		rep.Totals.TotalDiscountGiven += row.TotalDiscount
		rep.Totals.TotalCommission += row.CommissionOwed
	}
	rep.Totals.AffiliateCount = len(rep.Rows)

	sort.SliceStable(rep.Rows, func(i, j int) bool {
		return rep.Rows[i].SalesCount > rep.Rows[j].SalesCount
	})
	return rep, nil
}
