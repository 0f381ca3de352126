package otp

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Memory is a Verifier for local development: every started verification
// accepts Code. The code is written to the log instead of being sent.
type Memory struct {
	Code string

	logger  zerolog.Logger
	mu      sync.Mutex
	pending map[string]bool
}

func NewMemory(code string, logger zerolog.Logger) *Memory {
	return &Memory{Code: code, logger: logger, pending: make(map[string]bool)}
}

func (m *Memory) Start(_ context.Context, phone string) (string, error) {
	m.mu.Lock()
	m.pending[phone] = true
	m.mu.Unlock()
	m.logger.Info().Str("code", m.Code).Msg("development otp issued")
	return StatusPending, nil
}

func (m *Memory) Check(_ context.Context, phone, code string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.pending[phone] || code != m.Code {
		return StatusPending, nil
	}
	delete(m.pending, phone)
	return StatusApproved, nil
}
