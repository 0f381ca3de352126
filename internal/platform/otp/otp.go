// Package otp sends and checks SMS one-time codes.
package otp

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when SMS credentials are missing.
var ErrNotConfigured = errors.New("otp: sms service not configured")

// Verification statuses reported by the provider.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
)

// Verifier starts and checks phone verifications. Both calls report the
// provider status; a provider-side rejection is a status, not an error.
type Verifier interface {
	Start(ctx context.Context, phone string) (string, error)
	Check(ctx context.Context, phone, code string) (string, error)
}
