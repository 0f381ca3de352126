package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// AdminAuthMethodKey is the context key under which the admin guard records
// how the caller authenticated ("cookie" or "header").
const AdminAuthMethodKey = "admin_auth_method"

// AdminAuditEntry describes one access to an admin endpoint. Submission logs
// and affiliate reports expose patient data, so every access is recorded.
type AdminAuditEntry struct {
	RequestID  string
	Action     string
	Resource   string
	Method     string
	Path       string
	AuthMethod string
	IPAddress  string
	UserAgent  string
	StatusCode int
	Timestamp  time.Time
}

// AdminAudit logs every request that reaches the wrapped group, including
// rejected ones.
func AdminAudit(logger zerolog.Logger, dev bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}

			entry := AdminAuditEntry{
				Action:     httpMethodToAction(req.Method),
				Resource:   adminResource(req.URL.Path),
				Method:     req.Method,
				Path:       req.URL.Path,
				IPAddress:  ClientIP(c, dev),
				UserAgent:  req.UserAgent(),
				StatusCode: status,
				Timestamp:  time.Now().UTC(),
			}
			entry.RequestID, _ = c.Get("request_id").(string)
			entry.AuthMethod, _ = c.Get(AdminAuthMethodKey).(string)

			evt := logger.Info()
			if status == http.StatusUnauthorized || status == http.StatusForbidden {
				evt = logger.Warn()
			}
			evt.
				Str("type", "admin_audit").
				Str("request_id", entry.RequestID).
				Str("action", entry.Action).
				Str("resource", entry.Resource).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("auth", entry.AuthMethod).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Time("at", entry.Timestamp).
				Msg("admin_access")

			return err
		}
	}
}

func httpMethodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// adminResource names the resource behind an admin path:
// /api/v1/admin/affiliates -> affiliates, /api/v1/logs -> logs.
func adminResource(path string) string {
	rest := strings.TrimPrefix(path, "/api/v1/")
	rest = strings.TrimPrefix(rest, "admin/")
	if seg, _, _ := strings.Cut(rest, "/"); seg != "" {
		return seg
	}
	return "unknown"
}
