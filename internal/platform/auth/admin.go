// Package auth guards the operator-facing endpoints. There is a single
// shared operator secret; a successful login exchanges it for a short-lived
// signed session cookie so the secret itself never sits in the browser.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/gever/intake/internal/platform/middleware"
)

const (
	// CookieName holds the admin session token.
	CookieName = "admin_token"
	// HeaderName lets scripts authenticate with the raw secret.
	HeaderName = "x-admin-token"
	// SessionTTL is the lifetime of a login.
	SessionTTL = 8 * time.Hour

	issuer = "gever-intake"
)

// SessionClaims is the payload of an admin session token.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// AdminSessions issues and checks admin sessions.
type AdminSessions struct {
	token   string
	key     []byte
	secure  bool
	nowFunc func() time.Time
}

// NewAdminSessions creates the guard. An empty token disables every admin
// endpoint. secure controls the cookie Secure flag and is only turned off
// for plain-http local development.
func NewAdminSessions(token string, secure bool) *AdminSessions {
	a := &AdminSessions{token: token, secure: secure, nowFunc: time.Now}
	if token != "" {
		sum := sha256.Sum256([]byte("admin-session:" + token))
		a.key = sum[:]
	}
	return a
}

// Enabled reports whether an admin token is configured.
func (a *AdminSessions) Enabled() bool {
	return a.token != ""
}

// RegisterRoutes mounts the login/logout endpoints.
func (a *AdminSessions) RegisterRoutes(api *echo.Group) {
	api.POST("/admin/login", a.Login)
	api.POST("/admin/logout", a.Logout)
}

type loginRequest struct {
	Token string `json:"token"`
}

// Login exchanges the operator secret for a session cookie.
func (a *AdminSessions) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}
	if !a.Enabled() || !a.matches(req.Token) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	signed, err := a.Issue()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}

	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteStrictMode,
	})
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// Logout clears the session cookie.
func (a *AdminSessions) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteStrictMode,
	})
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// Issue signs a new session token.
func (a *AdminSessions) Issue() (string, error) {
	now := a.nowFunc()
	claims := SessionClaims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   "admin",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(SessionTTL)),
	}}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.key)
}

// Verify checks a session token's signature, issuer and expiry.
func (a *AdminSessions) Verify(signed string) bool {
	if !a.Enabled() || signed == "" {
		return false
	}
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(signed, claims, func(t *jwt.Token) (interface{}, error) {
		return a.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(a.nowFunc),
	)
	return err == nil && token.Valid
}

// RequireAdmin accepts a valid session cookie or the raw secret in the
// x-admin-token header; everything else is 401.
func (a *AdminSessions) RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !a.Enabled() {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}
			if cookie, err := c.Cookie(CookieName); err == nil && a.Verify(cookie.Value) {
				c.Set(middleware.AdminAuthMethodKey, "cookie")
				return next(c)
			}
			if h := c.Request().Header.Get(HeaderName); h != "" && a.matches(h) {
				c.Set(middleware.AdminAuthMethodKey, "header")
				return next(c)
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
		}
	}
}

func (a *AdminSessions) matches(candidate string) bool {
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(a.token)) == 1
}
