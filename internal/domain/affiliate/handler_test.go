package affiliate

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

func newTestServer(t *testing.T) (*echo.Echo, *Service) {
	t.Helper()
	mem := blobstore.NewMemory()
	runner := besteffort.NewRunner(zerolog.Nop(), 0)
	t.Cleanup(runner.Wait)
	limiter := middleware.NewLimiter(blobstore.Namespace(mem, blobstore.RateLimits), runner, zerolog.Nop())
	svc := NewService(NewRepoBlob(mem), zerolog.Nop())

	e := echo.New()
	e.HTTPErrorHandler = middleware.HTTPErrorHandler(zerolog.Nop())
	api := e.Group("/api/v1")
	NewHandler(svc, limiter, true, zerolog.Nop()).RegisterRoutes(api, api.Group("/admin"))
	return e, svc
}

func doJSON(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("X-Forwarded-For", "10.2.2.2")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandler_ValidateDiscount(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/api/v1/admin/affiliates",
		`{"name":"Clinic","code":"Save15","discountType":"percentage","discountValue":15,"commissionValue":10}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{"valid with padding", `{"code":"  save15 "}`, http.StatusOK, `"discountType":"percentage"`},
		{"unknown", `{"code":"nope"}`, http.StatusOK, `"message":"Invalid or expired discount code"`},
		{"blank", `{"code":"   "}`, http.StatusBadRequest, `"Invalid request"`},
		{"too long", `{"code":"` + strings.Repeat("x", 51) + `"}`, http.StatusBadRequest, `"Invalid request"`},
		{"not a string", `{"code":5}`, http.StatusBadRequest, `"Invalid request"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(e, http.MethodPost, "/api/v1/validate-discount", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body %s missing %s", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestHandler_ValidateDiscountRateLimited(t *testing.T) {
	e, _ := newTestServer(t)
	for i := 0; i < 20; i++ {
		if rec := doJSON(e, http.MethodPost, "/api/v1/validate-discount", `{"code":"abc"}`); rec.Code != http.StatusOK {
			t.Fatalf("request %d: %d", i+1, rec.Code)
		}
	}
	rec := doJSON(e, http.MethodPost, "/api/v1/validate-discount", `{"code":"abc"}`)
	if rec.Code != http.StatusTooManyRequests || !strings.Contains(rec.Body.String(), `"Too many requests"`) {
		t.Errorf("got %d %s", rec.Code, rec.Body.String())
	}
}

func TestHandler_AdminCRUD(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/api/v1/admin/affiliates", `{"name":"","code":"x","discountValue":0}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid create: %d", rec.Code)
	}
	var invalid struct {
		Error   string   `json:"error"`
		Details []string `json:"details"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &invalid); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if invalid.Error != "Invalid data" || len(invalid.Details) == 0 {
		t.Errorf("unexpected invalid body %+v", invalid)
	}

	body := `{"name":"Clinic","code":"DR_COHEN","discountValue":20,"commissionValue":10,"maxUses":100}`
	if rec := doJSON(e, http.MethodPost, "/api/v1/admin/affiliates", body); rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	if rec := doJSON(e, http.MethodPost, "/api/v1/admin/affiliates", body); rec.Code != http.StatusConflict {
		t.Errorf("duplicate create: %d", rec.Code)
	}

	rec = doJSON(e, http.MethodGet, "/api/v1/admin/affiliates", "")
	var list struct {
		Affiliates []Affiliate `json:"affiliates"`
		Total      int         `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Total != 1 || list.Affiliates[0].MaxUses == nil || *list.Affiliates[0].MaxUses != 100 {
		t.Errorf("unexpected list %+v", list)
	}

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
		wantError  string
	}{
		{"update without originalCode", http.MethodPut, "/api/v1/admin/affiliates", `{"name":"x"}`, http.StatusBadRequest, "originalCode is required"},
		{"update missing", http.MethodPut, "/api/v1/admin/affiliates", `{"originalCode":"ghost","name":"n","code":"ghost","discountValue":1,"commissionValue":1}`, http.StatusNotFound, "Affiliate not found"},
		{"update invalid", http.MethodPut, "/api/v1/admin/affiliates", `{"originalCode":"dr_cohen","name":"n","code":"dr cohen","discountValue":1,"commissionValue":1}`, http.StatusBadRequest, "Invalid data"},
		{"delete without code", http.MethodDelete, "/api/v1/admin/affiliates", "", http.StatusBadRequest, "code query param is required"},
		{"delete missing", http.MethodDelete, "/api/v1/admin/affiliates?code=ghost", "", http.StatusNotFound, "Affiliate not found"},
		{"report without dates", http.MethodGet, "/api/v1/admin/affiliate-report?startDate=2025-06-01", "", http.StatusBadRequest, "startDate and endDate (YYYY-MM-DD) are required"},
		{"report without sales source", http.MethodGet, "/api/v1/admin/affiliate-report?startDate=2025-06-01&endDate=2025-06-02", "", http.StatusInternalServerError, "Failed to generate report"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(e, tt.method, tt.target, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			var body middleware.ErrorBody
			_ = json.Unmarshal(rec.Body.Bytes(), &body)
			if body.Error != tt.wantError {
				t.Errorf("error = %q, want %q", body.Error, tt.wantError)
			}
		})
	}

	rec = doJSON(e, http.MethodPut, "/api/v1/admin/affiliates",
		`{"originalCode":"dr_cohen","name":"Dr. Cohen","code":"COHEN10","discountValue":10,"commissionValue":5,"active":false}`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"code":"COHEN10"`) || !strings.Contains(rec.Body.String(), `"active":false`) {
		t.Fatalf("update: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(e, http.MethodDelete, "/api/v1/admin/affiliates?code=cohen10", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"success":true}` {
		t.Errorf("delete: %d %s", rec.Code, rec.Body.String())
	}
}

func TestHandler_Report(t *testing.T) {
	e, svc := newTestServer(t)
	svc.SetSalesSource(&fakeSales{sales: []Sale{{AffiliateCode: "walkin", DiscountAmount: 10, PaymentAmount: 189}}})

	rec := doJSON(e, http.MethodGet, "/api/v1/admin/affiliate-report?startDate=2025-06-01&endDate=2025-06-02", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var rep Report
	if err := json.Unmarshal(rec.Body.Bytes(), &rep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rep.Totals.AffiliateCount != 1 || rep.Rows[0].TotalRevenue != 189 || rep.Rows[0].CommissionType != "unknown" {
		t.Errorf("unexpected report %+v", rep)
	}
}
