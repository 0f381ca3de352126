// Package verification confirms that the patient controls the phone number
// they entered, by SMS one-time code behind an optional CAPTCHA.
package verification

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gever/intake/internal/platform/captcha"
	"github.com/gever/intake/internal/platform/hipaa"
	"github.com/gever/intake/internal/platform/otp"
	"github.com/gever/intake/internal/platform/validate"
)

var (
	ErrCaptchaRequired = errors.New("captcha token required")
	ErrCaptchaFailed   = errors.New("captcha verification failed")
	ErrSendFailed      = errors.New("verification code not sent")
	ErrInvalidCode     = errors.New("invalid verification code")
)

type SendRequest struct {
	Phone          string `json:"phone"`
	TurnstileToken string `json:"turnstileToken"`
}

func (r *SendRequest) Validate() error {
	var v validate.Checker
	v.Match("phone", r.Phone, validate.PhonePattern, "Invalid Israeli phone number")
	return v.Err()
}

type CheckRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

func (r *CheckRequest) Validate() error {
	var v validate.Checker
	v.Match("phone", r.Phone, validate.PhonePattern, "Invalid Israeli phone number")
	v.Match("code", r.Code, validate.OTPPattern, "Code must be 6 digits")
	return v.Err()
}

type Service struct {
	sms     otp.Verifier
	captcha captcha.Verifier
	logger  zerolog.Logger
}

func NewService(sms otp.Verifier, cv captcha.Verifier, logger zerolog.Logger) *Service {
	return &Service{sms: sms, captcha: cv, logger: logger}
}

// Send checks the CAPTCHA when one is configured and starts an SMS
// verification.
func (s *Service) Send(ctx context.Context, req SendRequest, remoteIP string) error {
	if s.captcha != nil && s.captcha.Enabled() {
		if req.TurnstileToken == "" {
			return ErrCaptchaRequired
		}
		ok, err := s.captcha.Verify(ctx, req.TurnstileToken, remoteIP)
		if err != nil {
			return fmt.Errorf("verify captcha: %w", err)
		}
		if !ok {
			return ErrCaptchaFailed
		}
	}

	status, err := s.sms.Start(ctx, req.Phone)
	if err != nil {
		return err
	}
	if status != otp.StatusPending {
		s.logger.Warn().Str("phone", hipaa.RedactPhone(req.Phone)).Str("status", status).Msg("otp send failed")
		return ErrSendFailed
	}
	s.logger.Info().Str("phone", hipaa.RedactPhone(req.Phone)).Msg("otp sent")
	return nil
}

// Check reports whether code approves the phone's pending verification.
func (s *Service) Check(ctx context.Context, req CheckRequest) error {
	status, err := s.sms.Check(ctx, req.Phone, req.Code)
	if err != nil {
		return err
	}
	if status != otp.StatusApproved {
		if status == "" {
			status = "unknown"
		}
		s.logger.Warn().Str("phone", hipaa.RedactPhone(req.Phone)).Str("status", status).Msg("otp check failed")
		return ErrInvalidCode
	}
	s.logger.Info().Str("phone", hipaa.RedactPhone(req.Phone)).Msg("otp approved")
	return nil
}
