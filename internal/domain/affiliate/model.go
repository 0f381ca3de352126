package affiliate

import (
	"math"
	"strings"
	"time"
)

// Discount and commission shapes.
const (
	TypePercentage = "percentage"
	TypeFixed      = "fixed"
)

// Affiliate is a partner whose discount code patients enter at checkout.
// Code keeps the casing the partner was given; lookups are case-insensitive.
type Affiliate struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Code            string    `json:"code"`
	DiscountType    string    `json:"discountType"`
	DiscountValue   float64   `json:"discountValue"`
	CommissionType  string    `json:"commissionType"`
	CommissionValue float64   `json:"commissionValue"`
	ExpiresAt       *string   `json:"expiresAt"`
	MaxUses         *int      `json:"maxUses"`
	UsageCount      int       `json:"usageCount"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Key is the storage key for a discount code.
func Key(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// Layouts without an offset. A bare date is midnight UTC; a date with a
// time of day is wall-clock time in the service's expiry location.
var localExpiryLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// Expired reports whether the expiry date has passed. A missing or
// unparsable expiry never expires. loc resolves times of day written
// without an offset; nil means UTC.
func (a *Affiliate) Expired(now time.Time, loc *time.Location) bool {
	if a.ExpiresAt == nil || *a.ExpiresAt == "" {
		return false
	}
	if loc == nil {
		loc = time.UTC
	}
	raw := *a.ExpiresAt
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.Before(now)
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t.Before(now)
	}
	for _, layout := range localExpiryLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t.Before(now)
		}
	}
	return false
}

// Exhausted reports whether the usage cap has been reached.
func (a *Affiliate) Exhausted() bool {
	return a.MaxUses != nil && a.UsageCount >= *a.MaxUses
}

// CalculateDiscount returns the discount on price. A fixed discount never
// exceeds the price.
func CalculateDiscount(a *Affiliate, price float64) float64 {
	if a.DiscountType == TypeFixed {
		return math.Min(a.DiscountValue, price)
	}
	return math.Round(price * a.DiscountValue / 100)
}

// CalculateCommission returns the commission owed on one sale.
func CalculateCommission(a *Affiliate, amount float64) float64 {
	if a.CommissionType == TypeFixed {
		return a.CommissionValue
	}
	return math.Round(amount * a.CommissionValue / 100)
}
