package intake

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/gever/intake/internal/platform/besteffort"
	"github.com/gever/intake/internal/platform/blobstore"
	"github.com/gever/intake/internal/platform/middleware"
)

func newTestServer(t *testing.T) (*echo.Echo, *besteffort.Runner) {
	t.Helper()
	mem := blobstore.NewMemory()
	runner := besteffort.NewRunner(zerolog.Nop(), 0)
	limiter := middleware.NewLimiter(blobstore.Namespace(mem, blobstore.RateLimits), runner, zerolog.Nop())
	sessions := NewFormSessions(NewFormSessionRepoBlob(mem), nil, runner, zerolog.Nop())

	e := echo.New()
	e.HTTPErrorHandler = middleware.HTTPErrorHandler(zerolog.Nop())
	NewHandler(DefaultFlow(), sessions, limiter, true, zerolog.Nop()).RegisterRoutes(e.Group("/api/v1"))
	t.Cleanup(runner.Wait)
	return e, runner
}

func doJSON(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("X-Forwarded-For", "10.1.1.1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Step(t *testing.T) {
	e, _ := newTestServer(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantScreen string
		wantCount  int
	}{
		{"next into no branch", `{"answers":{"anaphylaxis":"No"},"currentStep":3,"action":"next"}`, http.StatusOK, "allergic-symptoms", 26},
		{"prev", `{"answers":{},"currentStep":13,"action":"prev"}`, http.StatusOK, "anaphylaxis", 22},
		{"goto clamps", `{"currentStep":0,"action":"goto","target":500}`, http.StatusOK, "checkout", 22},
		{"unknown action", `{"currentStep":0,"action":"jump"}`, http.StatusBadRequest, "", 0},
		{"malformed body", `{`, http.StatusBadRequest, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(e, http.MethodPost, "/api/v1/flow/step", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var resp stepResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.ScreenID != tt.wantScreen || resp.VisibleStepCount != tt.wantCount {
				t.Errorf("got %+v", resp)
			}
		})
	}
}

func TestHandler_ScreensAndProducts(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/api/v1/screens", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("screens status %d", rec.Code)
	}
	var screens struct {
		Screens      []Screen `json:"screens"`
		CheckoutStep int      `json:"checkoutStep"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &screens); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(screens.Screens) != 34 || screens.CheckoutStep != 33 {
		t.Errorf("unexpected catalog: %d screens, checkout %d", len(screens.Screens), screens.CheckoutStep)
	}
	if len(screens.Screens[6].ShowIf) != 2 {
		t.Errorf("conjunctive rule lost in transit: %+v", screens.Screens[6].ShowIf)
	}

	rec = doJSON(e, http.MethodGet, "/api/v1/products", "")
	if !strings.Contains(rec.Body.String(), `"consultationFee":30`) || !strings.Contains(rec.Body.String(), "neffy_single") {
		t.Errorf("unexpected products body %s", rec.Body.String())
	}
}

func TestHandler_FormSessionRoundTrip(t *testing.T) {
	e, runner := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/api/v1/form-session", `{"paymentIntentId":"pi_9","formData":{"city":"Haifa"},"lang":"en"}`)
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"ok":true}` {
		t.Fatalf("save: %d %s", rec.Code, rec.Body.String())
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == CheckoutCookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("expected checkout cookie")
	}
	if cookie.HttpOnly || cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("checkout cookie must be script-readable and Lax, got %+v", cookie)
	}
	if d, ok := DecodeCheckoutCookie(cookie.Value); !ok || d.City != "Haifa" {
		t.Errorf("cookie does not decode: %v %+v", ok, d)
	}

	rec = doJSON(e, http.MethodGet, "/api/v1/form-session?piId=pi_9", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get: %d %s", rec.Code, rec.Body.String())
	}
	var got FormSession
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Lang != "en" || !strings.Contains(string(got.FormData), "Haifa") {
		t.Errorf("unexpected session %+v", got)
	}

	runner.Wait()
	rec = doJSON(e, http.MethodGet, "/api/v1/form-session?piId=pi_9", "")
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), `"Not found"`) {
		t.Errorf("second read: %d %s", rec.Code, rec.Body.String())
	}
}

func TestHandler_FormSessionErrors(t *testing.T) {
	e, _ := newTestServer(t)

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
		wantError  string
	}{
		{"missing pi", http.MethodPost, "/api/v1/form-session", `{"formData":{}}`, http.StatusBadRequest, "Missing paymentIntentId"},
		{"numeric pi", http.MethodPost, "/api/v1/form-session", `{"paymentIntentId":7,"formData":{}}`, http.StatusBadRequest, "Missing paymentIntentId"},
		{"missing form", http.MethodPost, "/api/v1/form-session", `{"paymentIntentId":"pi_1"}`, http.StatusBadRequest, "Missing formData"},
		{"form not object", http.MethodPost, "/api/v1/form-session", `{"paymentIntentId":"pi_1","formData":"x"}`, http.StatusBadRequest, "Missing formData"},
		{"missing piId", http.MethodGet, "/api/v1/form-session", "", http.StatusBadRequest, "Missing piId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(e, tt.method, tt.target, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body middleware.ErrorBody
			_ = json.Unmarshal(rec.Body.Bytes(), &body)
			if body.Error != tt.wantError {
				t.Errorf("error = %q, want %q", body.Error, tt.wantError)
			}
		})
	}
}

func TestHandler_FormSessionRateLimited(t *testing.T) {
	e, _ := newTestServer(t)

	body := `{"paymentIntentId":"pi_rl","formData":{}}`
	for i := 0; i < 20; i++ {
		if rec := doJSON(e, http.MethodPost, "/api/v1/form-session", body); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i+1, rec.Code)
		}
	}
	rec := doJSON(e, http.MethodPost, "/api/v1/form-session", body)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"Too many requests"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}
