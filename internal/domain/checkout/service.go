// Package checkout places the card hold for a visit. The hold is created
// with manual capture and carries the pricing it was computed from, so the
// submission pipeline can capture exactly what was authorized.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/gever/intake/internal/domain/affiliate"
	"github.com/gever/intake/internal/domain/intake"
	"github.com/gever/intake/internal/platform/hipaa"
	"github.com/gever/intake/internal/platform/payment"
	"github.com/gever/intake/internal/platform/validate"
)

const (
	DefaultCurrency = "usd"
	MaxAmount       = 100000
)

var (
	ErrPlanRequired    = errors.New("product selection required with discount code")
	ErrUnknownPlan     = errors.New("invalid product")
	ErrInvalidCode     = errors.New("invalid or expired discount code")
	ErrInvalidDiscount = errors.New("invalid discount")
)

// DiscountValidator resolves a discount code to a usable affiliate.
type DiscountValidator interface {
	Validate(ctx context.Context, code string) (*affiliate.Affiliate, bool)
}

type Request struct {
	Amount         *float64 `json:"amount"`
	Currency       string   `json:"currency"`
	Email          *string  `json:"email"`
	Name           string   `json:"name"`
	DiscountCode   string   `json:"discountCode"`
	SelectedPlanID string   `json:"selectedPlanId"`
}

// Validate applies the default currency and checks every field.
func (r *Request) Validate() error {
	if r.Currency == "" {
		r.Currency = DefaultCurrency
	}

	var v validate.Checker
	if r.Amount == nil {
		v.Fail("amount", "is required")
	} else {
		v.Range("amount", *r.Amount, 0, MaxAmount, true)
	}
	if len(r.Currency) != 3 {
		v.Fail("currency", "must be 3 characters")
	}
	if r.Email != nil {
		v.Email("email", *r.Email)
	}
	v.Len("name", r.Name, 0, 200)
	v.Len("discountCode", r.DiscountCode, 0, 50)
	v.Len("selectedPlanId", r.SelectedPlanID, 0, 50)
	return v.Err()
}

type Intent struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

type Service struct {
	gateway   payment.Gateway
	discounts DiscountValidator
	logger    zerolog.Logger
}

// NewService builds the checkout service. A nil gateway means payments are
// not configured and every hold fails.
func NewService(gateway payment.Gateway, discounts DiscountValidator, logger zerolog.Logger) *Service {
	return &Service{gateway: gateway, discounts: discounts, logger: logger}
}

// CreateIntent places a hold for the requested amount. With a discount code
// the amount is recomputed from the plan price so the client cannot set
// its own discounted total.
func (s *Service) CreateIntent(ctx context.Context, req Request) (*Intent, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	final := *req.Amount
	var discount float64
	var code string

	if req.DiscountCode != "" {
		if req.SelectedPlanID == "" {
			return nil, ErrPlanRequired
		}
		plan, ok := intake.ProductByID(req.SelectedPlanID)
		if !ok {
			return nil, ErrUnknownPlan
		}
		a, ok := s.discounts.Validate(ctx, req.DiscountCode)
		if !ok {
			return nil, ErrInvalidCode
		}
		discount = affiliate.CalculateDiscount(a, plan.TotalPrice)
		final = plan.TotalPrice - discount
		code = affiliate.Key(req.DiscountCode)
		if final <= 0 {
			return nil, ErrInvalidDiscount
		}
	}

	if s.gateway == nil {
		return nil, payment.ErrNotConfigured
	}

	var email string
	if req.Email != nil {
		email = *req.Email
	}
	auth, err := s.gateway.CreateAuthorization(ctx, payment.CreateParams{
		Amount:       int64(math.Round(final * 100)),
		Currency:     req.Currency,
		ReceiptEmail: email,
		Metadata: map[string]string{
			payment.MetaCustomerEmail:  email,
			payment.MetaCustomerName:   req.Name,
			payment.MetaSource:         payment.Source,
			payment.MetaAffiliateCode:  code,
			payment.MetaOriginalAmount: formatAmount(*req.Amount),
			payment.MetaDiscountAmount: formatAmount(discount),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create authorization: %w", err)
	}

	s.logger.Info().
		Str("payment_intent", auth.ID).
		Str("email", hipaa.RedactEmail(email)).
		Str("affiliate_code", code).
		Float64("discount", discount).
		Msg("payment hold created")
	return &Intent{ClientSecret: auth.ClientSecret, PaymentIntentID: auth.ID}, nil
}

// formatAmount renders an amount the way it is read back from metadata:
// integers without a decimal point.
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
