package otp

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	"github.com/twilio/twilio-go/client"
	verify "github.com/twilio/twilio-go/rest/verify/v2"
)

// verifyAPI is the part of the Verify v2 service used here.
type verifyAPI interface {
	CreateVerification(serviceSid string, params *verify.CreateVerificationParams) (*verify.VerifyV2Verification, error)
	CreateVerificationCheck(serviceSid string, params *verify.CreateVerificationCheckParams) (*verify.VerifyV2VerificationCheck, error)
}

// Twilio implements Verifier with Twilio Verify over SMS.
type Twilio struct {
	api        verifyAPI
	serviceSid string
}

// NewTwilio creates a Twilio verifier. Missing credentials yield a verifier
// that fails with ErrNotConfigured.
func NewTwilio(accountSid, authToken, serviceSid string) *Twilio {
	if accountSid == "" || authToken == "" || serviceSid == "" {
		return &Twilio{}
	}
	rc := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})
	return &Twilio{api: rc.VerifyV2, serviceSid: serviceSid}
}

func (t *Twilio) Start(_ context.Context, phone string) (string, error) {
	if t.api == nil {
		return "", ErrNotConfigured
	}
	params := &verify.CreateVerificationParams{}
	params.SetTo(phone)
	params.SetChannel("sms")

	resp, err := t.api.CreateVerification(t.serviceSid, params)
	if err != nil {
		return rejected(err, "start verification")
	}
	return deref(resp.Status), nil
}

func (t *Twilio) Check(_ context.Context, phone, code string) (string, error) {
	if t.api == nil {
		return "", ErrNotConfigured
	}
	params := &verify.CreateVerificationCheckParams{}
	params.SetTo(phone)
	params.SetCode(code)

	resp, err := t.api.CreateVerificationCheck(t.serviceSid, params)
	if err != nil {
		return rejected(err, "check verification")
	}
	return deref(resp.Status), nil
}

// rejected turns an API-level refusal (bad number, expired or unknown
// verification) into a "failed" status; transport errors stay errors.
func rejected(err error, op string) (string, error) {
	var restErr *client.TwilioRestError
	if errors.As(err, &restErr) {
		return "failed", nil
	}
	return "", fmt.Errorf("%s: %w", op, err)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
