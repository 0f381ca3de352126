package middleware

import (
	"context"
	"net/http"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/gever/intake/internal/platform/besteffort"
	"github.com/gever/intake/internal/platform/blobstore"
)

// window is a fixed rate-limit window. The JSON shape is what gets
// persisted to the rate-limits store.
type window struct {
	Count   int   `json:"count"`
	ResetAt int64 `json:"resetAt"` // unix ms
}

// Decision is the outcome of a single Limiter check.
type Decision struct {
	Allowed   bool
	Remaining int
	Limit     int
	ResetAt   time.Time
}

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// BlobKey maps a limiter key onto the character set accepted by every blob
// backend: "ip:1.2.3.4:send-otp" becomes "ip_1_2_3_4_send-otp".
func BlobKey(key string) string {
	return unsafeKeyChars.ReplaceAllString(key, "_")
}

// Limiter counts requests per key in fixed windows. Counters live in memory
// and are mirrored to a blob store so a restarted process picks up where the
// previous one left off. Persistence is best effort.
type Limiter struct {
	mem     *cache.Cache
	store   blobstore.Store
	runner  *besteffort.Runner
	logger  zerolog.Logger
	mu      sync.Mutex
	nowFunc func() time.Time
}

// NewLimiter creates a Limiter. store and runner may be nil, in which case
// counters are memory only.
func NewLimiter(store blobstore.Store, runner *besteffort.Runner, logger zerolog.Logger) *Limiter {
	return &Limiter{
		mem:     cache.New(cache.NoExpiration, 5*time.Minute),
		store:   store,
		runner:  runner,
		logger:  logger,
		nowFunc: time.Now,
	}
}

// Allow reports whether another request under key fits in the current
// window, and how many remain.
func (l *Limiter) Allow(ctx context.Context, key string, max int, win time.Duration) (bool, int) {
	d := l.Check(ctx, key, max, win)
	return d.Allowed, d.Remaining
}

// Check counts one request under key and returns the full decision.
func (l *Limiter) Check(ctx context.Context, key string, max int, win time.Duration) Decision {
	now := l.nowFunc()

	if _, found := l.mem.Get(key); !found {
		if restored := l.restore(ctx, key, now); restored != nil {
			l.mu.Lock()
			if _, found := l.mem.Get(key); !found {
				l.mem.Set(key, restored, time.UnixMilli(restored.ResetAt).Sub(now))
			}
			l.mu.Unlock()
		}
	}

	l.mu.Lock()
	var w *window
	if v, found := l.mem.Get(key); found {
		w = v.(*window)
	}
	if w == nil || now.UnixMilli() > w.ResetAt {
		w = &window{Count: 1, ResetAt: now.Add(win).UnixMilli()}
		l.mem.Set(key, w, win)
	} else {
		w.Count++
	}
	snapshot := *w
	l.mu.Unlock()

	l.persist(key, snapshot)

	d := Decision{Limit: max, ResetAt: time.UnixMilli(snapshot.ResetAt)}
	if snapshot.Count > max {
		return d
	}
	d.Allowed = true
	d.Remaining = max - snapshot.Count
	return d
}

func (l *Limiter) restore(ctx context.Context, key string, now time.Time) *window {
	if l.store == nil {
		return nil
	}
	var w window
	if err := l.store.Get(ctx, BlobKey(key), &w); err != nil {
		return nil
	}
	if now.UnixMilli() > w.ResetAt {
		return nil
	}
	return &w
}

func (l *Limiter) persist(key string, w window) {
	if l.store == nil || l.runner == nil {
		return
	}
	l.runner.Go("rate-limit persist", func(ctx context.Context) error {
		return l.store.SetJSON(ctx, BlobKey(key), w)
	})
}

// RateLimitRule configures the RateLimit middleware for one route.
type RateLimitRule struct {
	Name    string
	Max     int
	Window  time.Duration
	Message string
	// Key overrides the default "ip:{ip}:{name}" key.
	Key func(c echo.Context) string
}

// RateLimit rejects requests over rule.Max per rule.Window with 429. dev
// selects the development client IP fallbacks.
func RateLimit(l *Limiter, rule RateLimitRule, dev bool) echo.MiddlewareFunc {
	if rule.Message == "" {
		rule.Message = "Too many requests. Please try again later."
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := "ip:" + ClientIP(c, dev) + ":" + rule.Name
			if rule.Key != nil {
				key = rule.Key(c)
			}

			d := l.Check(c.Request().Context(), key, rule.Max, rule.Window)
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(rule.Max))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			if !d.Allowed {
				retry := int(time.Until(d.ResetAt).Seconds()) + 1
				if retry < 1 {
					retry = 1
				}
				h.Set("Retry-After", strconv.Itoa(retry))
				return echo.NewHTTPError(http.StatusTooManyRequests, rule.Message)
			}
			return next(c)
		}
	}
}
