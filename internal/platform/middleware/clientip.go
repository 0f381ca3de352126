package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// EdgeClientIPHeader is set by the hosting edge and cannot be forged by the
// client.
const EdgeClientIPHeader = "X-Nf-Client-Connection-Ip"

// ClientIP returns the caller address used for rate-limit keys and CAPTCHA
// checks. Outside development only the edge header is trusted; forwarded
// headers are client controlled.
func ClientIP(c echo.Context, dev bool) string {
	h := c.Request().Header
	if ip := strings.TrimSpace(h.Get(EdgeClientIPHeader)); ip != "" {
		return ip
	}
	if !dev {
		return "unknown"
	}
	if xff := h.Get(echo.HeaderXForwardedFor); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := h.Get(echo.HeaderXRealIP); ip != "" {
		return ip
	}
	return "127.0.0.1"
}
