package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/gever/intake/internal/platform/besteffort"
	"github.com/gever/intake/internal/platform/blobstore"
)

func newTestLimiter(store blobstore.Store, now *time.Time) (*Limiter, *besteffort.Runner) {
	runner := besteffort.NewRunner(zerolog.Nop(), time.Second)
	l := NewLimiter(store, runner, zerolog.Nop())
	l.nowFunc = func() time.Time { return *now }
	return l, runner
}

func TestBlobKey(t *testing.T) {
	if got := BlobKey("ip:10.0.0.1:send-otp"); got != "ip_10_0_0_1_send-otp" {
		t.Errorf("unexpected blob key %q", got)
	}
	if got := BlobKey("phone:+972501234567:send-otp"); got != "phone__972501234567_send-otp" {
		t.Errorf("unexpected blob key %q", got)
	}
}

func TestLimiter_FixedWindow(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	l, runner := newTestLimiter(nil, &now)
	defer runner.Wait()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		ok, remaining := l.Allow(ctx, "ip:1.2.3.4:send-otp", 3, time.Minute)
		if !ok {
			t.Fatalf("request %d: expected allowed", i)
		}
		if remaining != 3-i {
			t.Errorf("request %d: expected remaining %d, got %d", i, 3-i, remaining)
		}
	}

	if ok, remaining := l.Allow(ctx, "ip:1.2.3.4:send-otp", 3, time.Minute); ok || remaining != 0 {
		t.Fatalf("expected 4th request rejected with 0 remaining, got %v %d", ok, remaining)
	}

	// other keys are independent
	if ok, _ := l.Allow(ctx, "ip:5.6.7.8:send-otp", 3, time.Minute); !ok {
		t.Error("expected a different key to be allowed")
	}

	// the whole window resets at resetAt
	now = now.Add(time.Minute + time.Millisecond)
	if ok, remaining := l.Allow(ctx, "ip:1.2.3.4:send-otp", 3, time.Minute); !ok || remaining != 2 {
		t.Errorf("expected fresh window, got %v %d", ok, remaining)
	}
}

func TestLimiter_PersistsAndRestores(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := blobstore.NewMemory()
	ctx := context.Background()

	first, runner := newTestLimiter(store, &now)
	for i := 0; i < 2; i++ {
		first.Allow(ctx, "ip:1.2.3.4:submit-visit", 2, time.Hour)
		runner.Wait()
	}

	var persisted window
	if err := store.Get(ctx, "ip_1_2_3_4_submit-visit", &persisted); err != nil {
		t.Fatalf("expected persisted window: %v", err)
	}
	if persisted.Count != 2 {
		t.Errorf("expected persisted count 2, got %d", persisted.Count)
	}

	// a fresh process sees the same window
	second, runner2 := newTestLimiter(store, &now)
	defer runner2.Wait()
	if ok, _ := second.Allow(ctx, "ip:1.2.3.4:submit-visit", 2, time.Hour); ok {
		t.Error("expected restored window to reject the third request")
	}
}

func TestLimiter_IgnoresExpiredPersistedWindow(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := blobstore.NewMemory()
	ctx := context.Background()
	store.SetJSON(ctx, "analytics_1_2_3_4", window{Count: 500, ResetAt: now.Add(-time.Second).UnixMilli()})

	l, runner := newTestLimiter(store, &now)
	defer runner.Wait()
	if ok, remaining := l.Allow(ctx, "analytics:1.2.3.4", 200, time.Hour); !ok || remaining != 199 {
		t.Errorf("expected a new window, got %v %d", ok, remaining)
	}
}

func TestRateLimit_RequestsWithinLimit(t *testing.T) {
	now := time.Now()
	l, runner := newTestLimiter(nil, &now)
	defer runner.Wait()

	e := echo.New()
	handler := RateLimit(l, RateLimitRule{Name: "create-pi", Max: 5, Window: time.Hour}, true)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		if err := handler(c); err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
		if got := rec.Header().Get("X-RateLimit-Limit"); got != "5" {
			t.Errorf("request %d: expected X-RateLimit-Limit '5', got %q", i+1, got)
		}
		if got := rec.Header().Get("X-RateLimit-Remaining"); got != strconv.Itoa(4-i) {
			t.Errorf("request %d: expected remaining %d, got %q", i+1, 4-i, got)
		}
	}
}

func TestRateLimit_ExceedsLimit(t *testing.T) {
	now := time.Now()
	l, runner := newTestLimiter(nil, &now)
	defer runner.Wait()

	e := echo.New()
	handler := RateLimit(l, RateLimitRule{Name: "form-session", Max: 2, Window: time.Hour, Message: "Too many requests"}, true)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	for i := 0; i < 2; i++ {
		c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), httptest.NewRecorder())
		if err := handler(c); err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
	err := handler(c)
	if err == nil {
		t.Fatal("expected error for rate-limited request")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", httpErr.Code)
	}
	if httpErr.Message != "Too many requests" {
		t.Errorf("unexpected message %v", httpErr.Message)
	}
	retry, convErr := strconv.Atoi(rec.Header().Get("Retry-After"))
	if convErr != nil || retry < 1 {
		t.Errorf("expected positive Retry-After, got %q", rec.Header().Get("Retry-After"))
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("expected X-RateLimit-Remaining 0, got %q", rec.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestRateLimit_KeysByClientIP(t *testing.T) {
	now := time.Now()
	l, runner := newTestLimiter(nil, &now)
	defer runner.Wait()

	e := echo.New()
	handler := RateLimit(l, RateLimitRule{Name: "validate-discount", Max: 1, Window: time.Hour}, false)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	call := func(ip string) error {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set(EdgeClientIPHeader, ip)
		return handler(e.NewContext(req, httptest.NewRecorder()))
	}

	if err := call("10.0.0.1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := call("10.0.0.2"); err != nil {
		t.Fatalf("expected separate budget per IP, got %v", err)
	}
	if err := call("10.0.0.1"); err == nil {
		t.Fatal("expected second call from the same IP to be limited")
	}
}
