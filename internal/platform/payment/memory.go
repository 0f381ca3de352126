package payment

import (
	"context"
	"fmt"
	"sync"
)

// Hold statuses used by Memory, named after the provider's own states.
const (
	StatusRequiresCapture = "requires_capture"
	StatusSucceeded       = "succeeded"
	StatusCanceled        = "canceled"
)

// Memory is an in-process Gateway for local development and tests. Every
// created hold is immediately capturable.
type Memory struct {
	mu    sync.Mutex
	holds map[string]*Authorization
	seq   int

	// CaptureErr and CancelErr, when set, are returned by the next calls.
	CaptureErr error
	CancelErr  error
}

func NewMemory() *Memory {
	return &Memory{holds: make(map[string]*Authorization)}
}

func (m *Memory) CreateAuthorization(_ context.Context, p CreateParams) (*Authorization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	id := fmt.Sprintf("pi_mem_%06d", m.seq)
	md := make(map[string]string, len(p.Metadata))
	for k, v := range p.Metadata {
		md[k] = v
	}
	a := &Authorization{
		ID:           id,
		ClientSecret: id + "_secret",
		Amount:       p.Amount,
		Currency:     p.Currency,
		Status:       StatusRequiresCapture,
		Metadata:     md,
	}
	m.holds[id] = a
	cp := *a
	return &cp, nil
}

func (m *Memory) Retrieve(_ context.Context, id string) (*Authorization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.holds[id]
	if !ok {
		return nil, fmt.Errorf("payment intent %s not found", id)
	}
	cp := *a
	return &cp, nil
}

func (m *Memory) Capture(_ context.Context, id string) error {
	return m.transition(id, StatusSucceeded, m.CaptureErr)
}

func (m *Memory) Cancel(_ context.Context, id string) error {
	return m.transition(id, StatusCanceled, m.CancelErr)
}

// Status returns a hold's current status, or "" if unknown.
func (m *Memory) Status(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.holds[id]; ok {
		return a.Status
	}
	return ""
}

func (m *Memory) transition(id, to string, injected error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if injected != nil {
		return injected
	}
	a, ok := m.holds[id]
	if !ok {
		return fmt.Errorf("payment intent %s not found", id)
	}
	if a.Status != StatusRequiresCapture {
		return fmt.Errorf("payment intent %s is %s", id, a.Status)
	}
	a.Status = to
	return nil
}
