package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// Origin guards the /api/ surface: requests carrying an Origin outside the
// allow-list are refused with 403, allowed origins receive credentialed CORS
// headers and preflights are answered with 204. Requests without an Origin
// header (same-origin navigations, server-to-server) pass through.
func Origin(allowed []string) echo.MiddlewareFunc {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}

	cors := echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     allowed,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, "x-admin-token"},
		AllowCredentials: true,
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		withCORS := cors(next)
		return func(c echo.Context) error {
			if !strings.HasPrefix(c.Request().URL.Path, "/api/") {
				return next(c)
			}
			if origin := c.Request().Header.Get(echo.HeaderOrigin); origin != "" {
				if _, ok := set[origin]; !ok {
					return echo.NewHTTPError(http.StatusForbidden, "Forbidden")
				}
			}
			return withCORS(c)
		}
	}
}
