package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/gever/intake/internal/config"
	"github.com/gever/intake/internal/platform/blobstore"
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	cfg := &config.Config{
		Env:            "development",
		BlobBackend:    "memory",
		MaxBodySize:    "100K",
		RequestTimeout: 5 * time.Second,
		AdminLogToken:  "operator-secret",
	}
	e, runner, err := newServer(cfg, blobstore.NewMemory(), nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("newServer: %v", err)
	}
	t.Cleanup(runner.Wait)
	return e
}

func request(e *echo.Echo, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderXForwardedFor, "10.9.9.9")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	e := newTestServer(t)

	rec := request(e, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), version) {
		t.Errorf("/health: %d %s", rec.Code, rec.Body.String())
	}
	rec = request(e, http.MethodGet, "/health/db", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"backend":"memory"`) {
		t.Errorf("/health/db: %d %s", rec.Code, rec.Body.String())
	}
}

func TestServer_PublicRoutes(t *testing.T) {
	e := newTestServer(t)
	for _, target := range []string{"/api/v1/screens", "/api/v1/products"} {
		if rec := request(e, http.MethodGet, target, "", nil); rec.Code != http.StatusOK {
			t.Errorf("%s: %d", target, rec.Code)
		}
	}
	rec := request(e, http.MethodPost, "/api/v1/validate-discount", `{"code":"nope"}`, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"valid":false`) {
		t.Errorf("validate-discount: %d %s", rec.Code, rec.Body.String())
	}
	rec = request(e, http.MethodGet, "/api/v1/screens", "", map[string]string{echo.HeaderOrigin: "https://evil.example"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("foreign origin: %d", rec.Code)
	}
}

func TestServer_AdminRoutesRequireToken(t *testing.T) {
	e := newTestServer(t)
	admin := map[string]string{"x-admin-token": "operator-secret"}

	for _, target := range []string{
		"/api/v1/logs",
		"/api/v1/admin/affiliates",
		"/api/v1/admin/analytics?startDate=2025-06-01&endDate=2025-06-01",
		"/api/v1/admin/affiliate-report?startDate=2025-06-01&endDate=2025-06-01",
	} {
		if rec := request(e, http.MethodGet, target, "", nil); rec.Code != http.StatusUnauthorized {
			t.Errorf("%s without token: %d", target, rec.Code)
		}
		if rec := request(e, http.MethodGet, target, "", admin); rec.Code != http.StatusOK {
			t.Errorf("%s with token: %d %s", target, rec.Code, rec.Body.String())
		}
	}
}

func TestServer_SubmissionIsAudited(t *testing.T) {
	e := newTestServer(t)

	body, _ := json.Marshal(map[string]any{
		"formData": map[string]any{
			"firstName": "Dana", "lastName": "Levi", "dob": "01/02/1990",
			"email": "dana@example.com", "address": "Herzl 1", "city": "Haifa",
		},
	})
	rec := request(e, http.MethodPost, "/api/v1/submit-visit", string(body), nil)
	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), "Service unavailable") {
		t.Fatalf("submit-visit without credentials: %d %s", rec.Code, rec.Body.String())
	}

	rec = request(e, http.MethodGet, "/api/v1/logs", "", map[string]string{"x-admin-token": "operator-secret"})
	var logs struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &logs); err != nil || logs.Count != 1 {
		t.Errorf("expected one audit entry, got %s", rec.Body.String())
	}
}

func TestScreensCmd(t *testing.T) {
	cmd := screensCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	if err := cmd.RunE(cmd, nil); err != nil {
		t.Fatalf("screens: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 34 {
		t.Fatalf("expected 34 screens, got %d", len(lines))
	}
	if !strings.Contains(out.String(), "anaphylaxis == Yes AND anaphylaxis-epi-use == Yes") {
		t.Error("conjunctive rule missing from listing")
	}
}
