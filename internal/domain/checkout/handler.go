package checkout

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/gever/intake/internal/platform/middleware"
	"github.com/gever/intake/internal/platform/validate"
)

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
	limit := middleware.RateLimit(h.limiter, middleware.RateLimitRule{
		Name:   "create-pi",
		Max:    10,
		Window: time.Hour,
	}, h.dev)
	api.POST("/create-payment-intent", h.CreatePaymentIntent, limit)
}

func (h *Handler) CreatePaymentIntent(c echo.Context) error {
	var req Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}

	intent, err := h.svc.CreateIntent(c.Request().Context(), req)
	if err != nil {
		switch {
		case validate.Problems(err) != nil:
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
		case errors.Is(err, ErrPlanRequired):
			return echo.NewHTTPError(http.StatusBadRequest, "Product selection required with discount code")
		case errors.Is(err, ErrUnknownPlan):
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid product")
		case errors.Is(err, ErrInvalidCode):
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid or expired discount code")
		case errors.Is(err, ErrInvalidDiscount):
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid discount")
		}
		h.logger.Error().Err(err).Msg("create payment intent failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create payment")
	}
	return c.JSON(http.StatusOK, intent)
}
