package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultBelugaURL is the staging intake API.
const DefaultBelugaURL = "https://api-staging.belugahealth.com"

// IntakeClient submits visits to the clinical intake service.
type IntakeClient interface {
	// Configured is false when credentials are missing.
	Configured() bool
	PharmacyID() string
	CreateVisit(ctx context.Context, p *Payload) (*VisitResult, error)
}

// NetworkError marks a failure to reach the intake service at all.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "intake service unreachable: " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }

// VisitResult is the intake service's answer.
type VisitResult struct {
	HTTPStatus int
	Body       json.RawMessage
	Status     int
	Data       json.RawMessage
	Error      string
}

// Accepted requires both a 2xx transport status and status 200 in the body.
func (r *VisitResult) Accepted() bool {
	return r.HTTPStatus >= 200 && r.HTTPStatus < 300 && r.Status == http.StatusOK
}

// VisitID is data.visitId when present, else data itself.
func (r *VisitResult) VisitID() json.RawMessage {
	var d struct {
		VisitID json.RawMessage `json:"visitId"`
	}
	if err := json.Unmarshal(r.Data, &d); err == nil && len(d.VisitID) > 0 && string(d.VisitID) != "null" {
		return d.VisitID
	}
	return r.Data
}

// Beluga is the HTTP IntakeClient.
type Beluga struct {
	baseURL    string
	apiKey     string
	pharmacyID string
	httpClient *http.Client
}

type BelugaOption func(*Beluga)

func WithBaseURL(u string) BelugaOption {
	return func(b *Beluga) {
		if u != "" {
			b.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithHTTPClient(c *http.Client) BelugaOption {
	return func(b *Beluga) { b.httpClient = c }
}

func NewBeluga(apiKey, pharmacyID string, opts ...BelugaOption) *Beluga {
	b := &Beluga{
		baseURL:    DefaultBelugaURL,
		apiKey:     apiKey,
		pharmacyID: pharmacyID,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

func (b *Beluga) Configured() bool {
	return b.apiKey != "" && b.pharmacyID != ""
}

func (b *Beluga) PharmacyID() string {
	return b.pharmacyID
}

type belugaResponse struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
}

// CreateVisit posts p to /visit/createNoPay. A transport failure is a
// *NetworkError; an unreadable body is a plain error.
func (b *Beluga) CreateVisit(ctx context.Context, p *Payload) (*VisitResult, error) {
	if !b.Configured() {
		return nil, errors.New("intake service not configured")
	}
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode visit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/visit/createNoPay", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build visit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	var out belugaResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode intake response (HTTP %d): %w", resp.StatusCode, err)
	}
	return &VisitResult{
		HTTPStatus: resp.StatusCode,
		Body:       raw,
		Status:     out.Status,
		Data:       out.Data,
		Error:      out.Error,
	}, nil
}
