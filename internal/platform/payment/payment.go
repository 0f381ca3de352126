// Package payment places, captures and releases card authorizations. An
// authorization is created with manual capture so the patient is charged
// only after the clinical intake service accepts the visit.
package payment

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when no payment provider credentials exist.
var ErrNotConfigured = errors.New("payment: provider not configured")

// Metadata keys stored on an authorization. They carry pricing from the
// moment the hold is placed to the moment the visit is submitted.
const (
	MetaCustomerEmail  = "customer_email"
	MetaCustomerName   = "customer_name"
	MetaSource         = "source"
	MetaAffiliateCode  = "affiliateCode"
	MetaOriginalAmount = "originalAmount"
	MetaDiscountAmount = "discountAmount"

	// Source identifies authorizations created by this service.
	Source = "gever-health-intake"
)

// Authorization is a payment hold.
type Authorization struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"clientSecret,omitempty"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Status       string            `json:"status"`
	Metadata     map[string]string `json:"metadata"`
}

// CreateParams describes a new hold. Amount is in minor currency units.
type CreateParams struct {
	Amount       int64
	Currency     string
	ReceiptEmail string
	Metadata     map[string]string
}

// Gateway is the payment authorization service.
type Gateway interface {
	CreateAuthorization(ctx context.Context, p CreateParams) (*Authorization, error)
	Retrieve(ctx context.Context, id string) (*Authorization, error)
	Capture(ctx context.Context, id string) error
	Cancel(ctx context.Context, id string) error
}
