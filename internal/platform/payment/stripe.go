package payment

import (
	"context"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// Stripe implements Gateway with manual-capture PaymentIntents.
type Stripe struct {
	api *client.API
}

// NewStripe creates a Stripe gateway. An empty key yields a gateway whose
// every call fails with ErrNotConfigured.
func NewStripe(secretKey string) *Stripe {
	if secretKey == "" {
		return &Stripe{}
	}
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &Stripe{api: sc}
}

// NewStripeWithURL points the gateway at a different API base URL, for
// stripe-mock and tests.
func NewStripeWithURL(secretKey, baseURL string, httpClient *http.Client) *Stripe {
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(baseURL),
		HTTPClient:        httpClient,
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	sc := &client.API{}
	sc.Init(secretKey, &stripe.Backends{API: backend, Connect: backend, Uploads: backend})
	return &Stripe{api: sc}
}

func (s *Stripe) CreateAuthorization(ctx context.Context, p CreateParams) (*Authorization, error) {
	if s.api == nil {
		return nil, ErrNotConfigured
	}
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(p.Amount),
		Currency:      stripe.String(p.Currency),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if p.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(p.ReceiptEmail)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return fromStripe(pi), nil
}

func (s *Stripe) Retrieve(ctx context.Context, id string) (*Authorization, error) {
	if s.api == nil {
		return nil, ErrNotConfigured
	}
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := s.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve payment intent: %w", err)
	}
	return fromStripe(pi), nil
}

func (s *Stripe) Capture(ctx context.Context, id string) error {
	if s.api == nil {
		return ErrNotConfigured
	}
	params := &stripe.PaymentIntentCaptureParams{}
	params.Context = ctx
	if _, err := s.api.PaymentIntents.Capture(id, params); err != nil {
		return fmt.Errorf("capture payment intent: %w", err)
	}
	return nil
}

func (s *Stripe) Cancel(ctx context.Context, id string) error {
	if s.api == nil {
		return ErrNotConfigured
	}
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	if _, err := s.api.PaymentIntents.Cancel(id, params); err != nil {
		return fmt.Errorf("cancel payment intent: %w", err)
	}
	return nil
}

func fromStripe(pi *stripe.PaymentIntent) *Authorization {
	md := pi.Metadata
	if md == nil {
		md = map[string]string{}
	}
	return &Authorization{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
		Metadata:     md,
	}
}
