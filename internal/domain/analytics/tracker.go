package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DeviceClass buckets a viewport width.
func DeviceClass(width int) string {
	switch {
	case width < 768:
		return DeviceMobile
	case width < 1024:
		return DeviceTablet
	default:
		return DeviceDesktop
	}
}

// ReferrerHost keeps only the host of a referring URL, or "".
func ReferrerHost(ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// Sender delivers a session snapshot to the collector.
type Sender interface {
	Send(ctx context.Context, s Session) error
}

// Tracker accumulates screen visits for one tab. It is owned by the
// caller driving the questionnaire and is safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	session Session
	now     func() time.Time
}

type TrackerOption func(*Tracker)

// WithSessionID continues a session id already issued to this tab.
func WithSessionID(id string) TrackerOption {
	return func(t *Tracker) {
		if id != "" {
			t.session.SessionID = id
		}
	}
}

// NewTracker starts a session. clock may be nil.
func NewTracker(lang, device, referrer string, clock func() time.Time, opts ...TrackerOption) *Tracker {
	if clock == nil {
		clock = time.Now
	}
	t := &Tracker{
		session: Session{
			SessionID:  uuid.NewString(),
			StartedAt:  clock().UTC().Format(time.RFC3339Nano),
			Lang:       lang,
			DeviceType: device,
			Referrer:   referrer,
			Screens:    []ScreenVisit{},
		},
		now: clock,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

func (t *Tracker) SessionID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session.SessionID
}

func (v *ScreenVisit) close(at int64) {
	v.ExitedAt = &at
	v.DurationMs = at - v.EnteredAt
}

// Enter opens a visit to screenID, closing the previous one if it is
// still open.
func (t *Tracker) Enter(screenID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now().UnixMilli()
	if n := len(t.session.Screens); n > 0 && t.session.Screens[n-1].ExitedAt == nil {
		t.session.Screens[n-1].close(now)
	}
	t.session.Screens = append(t.session.Screens, ScreenVisit{ScreenID: screenID, EnteredAt: now})
	t.session.LastScreenID = screenID
}

// Leave closes the most recent open visit to screenID.
func (t *Tracker) Leave(screenID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.session.Screens) - 1; i >= 0; i-- {
		v := &t.session.Screens[i]
		if v.ScreenID == screenID && v.ExitedAt == nil {
			v.close(t.now().UnixMilli())
			return
		}
	}
}

func (t *Tracker) MarkCompleted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.session.Completed = true
}

// Snapshot returns a copy of the session as it stands.
func (t *Tracker) Snapshot() Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.session
	s.Screens = make([]ScreenVisit, len(t.session.Screens))
	for i, v := range t.session.Screens {
		if v.ExitedAt != nil {
			at := *v.ExitedAt
			v.ExitedAt = &at
		}
		s.Screens[i] = v
	}
	return s
}

// Flush sends the current snapshot. It may be called any number of times;
// the collector merges them.
func (t *Tracker) Flush(ctx context.Context, sender Sender) error {
	return sender.Send(ctx, t.Snapshot())
}

// HTTPSender posts snapshots to the event endpoint.
type HTTPSender struct {
	URL    string
	Client *http.Client
}

func NewHTTPSender(endpoint string) *HTTPSender {
	return &HTTPSender{URL: endpoint, Client: &http.Client{Timeout: 5 * time.Second}}
}

func (h *HTTPSender) Send(ctx context.Context, s Session) error {
	body, err := json.Marshal(Event{
		SessionID:    s.SessionID,
		Lang:         s.Lang,
		DeviceType:   s.DeviceType,
		Referrer:     s.Referrer,
		StartedAt:    s.StartedAt,
		LastScreenID: s.LastScreenID,
		Completed:    s.Completed,
		Screens:      s.Screens,
	})
	if err != nil {
		return fmt.Errorf("encode analytics event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build analytics request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send analytics event: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("analytics collector returned %d", resp.StatusCode)
	}
	return nil
}
