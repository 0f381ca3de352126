package analytics

import (
	"github.com/gever/intake/internal/platform/validate"
)

// Device classes reported by the browser.
const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
)

const maxScreenVisits = 50

// ScreenVisit is one stay on a screen. Times are unix milliseconds;
// ExitedAt is nil while the screen is still open.
type ScreenVisit struct {
	ScreenID   string `json:"screenId"`
	EnteredAt  int64  `json:"enteredAt"`
	ExitedAt   *int64 `json:"exitedAt"`
	DurationMs int64  `json:"durationMs"`
}

// Session is the anonymous record of one browser tab going through the
// questionnaire. It carries no patient data.
type Session struct {
	SessionID    string        `json:"sessionId"`
	StartedAt    string        `json:"startedAt"`
	UpdatedAt    string        `json:"updatedAt"`
	Lang         string        `json:"lang"`
	DeviceType   string        `json:"deviceType"`
	Referrer     string        `json:"referrer"`
	Screens      []ScreenVisit `json:"screens"`
	LastScreenID string        `json:"lastScreenId"`
	Completed    bool          `json:"completed"`
}

// Date is the UTC day the session started, used as its key prefix.
func (s *Session) Date() string {
	if len(s.StartedAt) < 10 {
		return s.StartedAt
	}
	return s.StartedAt[:10]
}

// Event is the beacon body: the full current state of a session.
type Event struct {
	SessionID    string        `json:"sessionId"`
	Lang         string        `json:"lang"`
	DeviceType   string        `json:"deviceType"`
	Referrer     string        `json:"referrer"`
	StartedAt    string        `json:"startedAt"`
	LastScreenID string        `json:"lastScreenId"`
	Completed    bool          `json:"completed"`
	Screens      []ScreenVisit `json:"screens"`
}

func (e *Event) Validate() error {
	var v validate.Checker
	v.Len("sessionId", e.SessionID, 1, 100)
	v.OneOf("lang", e.Lang, "he", "en")
	v.OneOf("deviceType", e.DeviceType, DeviceMobile, DeviceTablet, DeviceDesktop)
	v.Len("referrer", e.Referrer, 0, 200)
	v.Len("startedAt", e.StartedAt, 10, 30)
	v.Len("lastScreenId", e.LastScreenID, 0, 50)
	if len(e.Screens) > maxScreenVisits {
		v.Fail("screens", "at most %d visits", maxScreenVisits)
	}
	for _, s := range e.Screens {
		v.Len("screens.screenId", s.ScreenID, 0, 50)
		if s.EnteredAt < 0 || s.DurationMs < 0 {
			v.Fail("screens", "times must not be negative")
		}
	}
	if e.Screens == nil {
		e.Screens = []ScreenVisit{}
	}
	return v.Err()
}
