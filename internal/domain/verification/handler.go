package verification

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/gever/intake/internal/platform/middleware"
	"github.com/gever/intake/internal/platform/otp"
)

const otpWindow = 15 * time.Minute

type Handler struct {
	svc     *Service
	limiter *middleware.Limiter
	dev     bool
	logger  zerolog.Logger
}

func NewHandler(svc *Service, limiter *middleware.Limiter, dev bool, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, limiter: limiter, dev: dev, logger: logger}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/send-otp", h.SendOTP)
	api.POST("/verify-otp", h.VerifyOTP)
}

type result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, result{Error: msg})
}

func (h *Handler) allow(c echo.Context, key string, max int) bool {
	ok, _ := h.limiter.Allow(c.Request().Context(), key, max, otpWindow)
	return ok
}

func (h *Handler) SendOTP(c echo.Context) error {
	ip := middleware.ClientIP(c, h.dev)
	if !h.allow(c, "ip:"+ip+":send-otp", 5) {
		return fail(c, http.StatusTooManyRequests, "Too many requests. Please try again later.")
	}

	var req SendRequest
	if err := c.Bind(&req); err != nil || req.Validate() != nil {
		return fail(c, http.StatusBadRequest, "Invalid request")
	}

	if !h.allow(c, "phone:"+req.Phone+":send-otp", 3) {
		return fail(c, http.StatusTooManyRequests, "Too many codes sent to this number. Please try again later.")
	}

	err := h.svc.Send(c.Request().Context(), req, ip)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, result{Success: true})
	case errors.Is(err, ErrCaptchaRequired):
		return fail(c, http.StatusForbidden, "CAPTCHA verification required")
	case errors.Is(err, ErrCaptchaFailed):
		return fail(c, http.StatusForbidden, "CAPTCHA verification failed")
	case errors.Is(err, ErrSendFailed):
		return fail(c, http.StatusBadRequest, "Failed to send verification code")
	case errors.Is(err, otp.ErrNotConfigured):
		return fail(c, http.StatusInternalServerError, "SMS service not configured")
	}
	h.logger.Error().Err(err).Msg("send otp failed")
	return fail(c, http.StatusInternalServerError, "Internal server error")
}

func (h *Handler) VerifyOTP(c echo.Context) error {
	ip := middleware.ClientIP(c, h.dev)
	if !h.allow(c, "ip:"+ip+":verify-otp", 10) {
		return fail(c, http.StatusTooManyRequests, "Too many attempts. Please try again later.")
	}

	var req CheckRequest
	if err := c.Bind(&req); err != nil || req.Validate() != nil {
		return fail(c, http.StatusBadRequest, "Invalid request")
	}

	err := h.svc.Check(c.Request().Context(), req)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, result{Success: true})
	case errors.Is(err, ErrInvalidCode):
		return fail(c, http.StatusBadRequest, "Invalid verification code")
	case errors.Is(err, otp.ErrNotConfigured):
		return fail(c, http.StatusInternalServerError, "SMS service not configured")
	}
	h.logger.Error().Err(err).Msg("verify otp failed")
	return fail(c, http.StatusInternalServerError, "Internal server error")
}
