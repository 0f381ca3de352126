// Package blobstore provides the key-value JSON store that holds every piece
// of durable intake state: submission logs, analytics sessions, affiliates,
// form-session snapshots and rate-limit windows. It defines the Store
// interface, a namespacing wrapper, and an in-memory implementation suitable
// for development and tests. Postgres and S3 backends live alongside.
package blobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("blob not found")

// Store is a flat key-value store of JSON documents. Keys may contain "/"
// to form date partitions; List returns keys in ascending lexical order.
type Store interface {
	Get(ctx context.Context, key string, dst any) error
	SetJSON(ctx context.Context, key string, v any) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
}

// Names of the stores used by the service.
const (
	SubmissionLogs    = "submission-logs"
	AnalyticsSessions = "analytics-sessions"
	Affiliates        = "affiliates"
	FormSessions      = "form-sessions"
	RateLimits        = "rate-limits"
)

// ---------------------------------------------------------------------------
// Namespaced store
// ---------------------------------------------------------------------------

type namespaced struct {
	inner  Store
	prefix string
}

// Namespace scopes s to the named store. Keys written through the returned
// Store are prefixed with "name/" in the backend and List strips the prefix.
func Namespace(s Store, name string) Store {
	return &namespaced{inner: s, prefix: name + "/"}
}

func (n *namespaced) Get(ctx context.Context, key string, dst any) error {
	return n.inner.Get(ctx, n.prefix+key, dst)
}

func (n *namespaced) SetJSON(ctx context.Context, key string, v any) error {
	return n.inner.SetJSON(ctx, n.prefix+key, v)
}

func (n *namespaced) Delete(ctx context.Context, key string) error {
	return n.inner.Delete(ctx, n.prefix+key)
}

func (n *namespaced) List(ctx context.Context, prefix string) ([]string, error) {
	keys, err := n.inner.List(ctx, n.prefix+prefix)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, strings.TrimPrefix(k, n.prefix))
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// In-memory store
// ---------------------------------------------------------------------------

// Memory is a thread-safe in-memory Store. Values are held as encoded JSON
// so reads observe the same decoding rules as the durable backends.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string, dst any) error {
	m.mu.RLock()
	raw, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (m *Memory) SetJSON(_ context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	m.mu.Lock()
	m.data[key] = raw
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
