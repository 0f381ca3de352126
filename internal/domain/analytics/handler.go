package analytics

import (
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

// RegisterRoutes mounts the beacon collector on api and the dashboard on
// admin.
func (h *Handler) RegisterRoutes(api *echo.Group, admin *echo.Group) {
	limit := middleware.RateLimit(h.limiter, middleware.RateLimitRule{
		Name:    "analytics",
		Max:     200,
		Window:  time.Hour,
		Message: "Rate limited",
		Key: func(c echo.Context) string {
			return "analytics:" + middleware.ClientIP(c, h.dev)
		},
	}, h.dev)
	api.POST("/analytics/event", h.Event, limit)
	admin.GET("/analytics", h.Dashboard)
}

func (h *Handler) Event(c echo.Context) error {
	var ev Event
	if err := c.Bind(&ev); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Bad request")
	}
	if err := h.svc.Record(c.Request().Context(), ev); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid payload")
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) Dashboard(c echo.Context) error {
	r, err := validate.ParseDateRange(c.QueryParam("startDate"), c.QueryParam("endDate"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "startDate and endDate (YYYY-MM-DD) are required")
	}
	rep, err := h.svc.Report(c.Request().Context(), r)
	if err != nil {
		h.logger.Error().Err(err).Msg("analytics report failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to compute analytics")
	}
	return c.JSON(http.StatusOK, rep)
}
