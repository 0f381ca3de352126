package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const maxHeaderValueSize = 8192

var scriptPattern = regexp.MustCompile(`(?i)(<script|javascript\s*:|on\w+\s*=)`)

// Sanitize rejects API requests whose path, headers or query parameters
// carry traversal sequences, null bytes, header injection or script
// payloads. Rejections are logged without the offending value.
func Sanitize(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !strings.HasPrefix(req.URL.Path, "/api/") {
				return next(c)
			}
			if reason := inspect(req); reason != "" {
				rid, _ := c.Get("request_id").(string)
				logger.Warn().
					Str("request_id", rid).
					Str("path", req.URL.Path).
					Str("reason", reason).
					Msg("request rejected by sanitizer")
				return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
			}
			return next(c)
		}
	}
}

func inspect(req *http.Request) string {
	raw := req.URL.RawPath
	if raw == "" {
		raw = req.URL.Path
	}
	for _, p := range []string{req.URL.Path, raw} {
		if containsPathTraversal(p) {
			return "path traversal"
		}
		if containsNullByte(p) {
			return "null byte in path"
		}
	}

	for name, values := range req.Header {
		for _, v := range values {
			if len(v) > maxHeaderValueSize {
				return "oversized header " + name
			}
			if strings.ContainsAny(v, "\r\n") {
				return "header injection " + name
			}
		}
	}

	for key, values := range req.URL.Query() {
		if containsNullByte(key) || scriptPattern.MatchString(key) {
			return "query key"
		}
		for _, v := range values {
			if containsNullByte(v) {
				return "null byte in query"
			}
			if scriptPattern.MatchString(v) {
				return "script in query"
			}
		}
	}
	return ""
}

func containsPathTraversal(s string) bool {
	if strings.Contains(s, "..") {
		return true
	}
	lower := strings.ToLower(s)
	return strings.Contains(lower, "%2e%2e") || strings.Contains(lower, "%252e")
}

func containsNullByte(s string) bool {
	return strings.ContainsRune(s, '\x00') || strings.Contains(strings.ToLower(s), "%00")
}
