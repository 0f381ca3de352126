package affiliate

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/gever/intake/internal/platform/middleware"
	"github.com/gever/intake/internal/platform/validate"
	"github.com/gever/intake/pkg/pagination"
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

// RegisterRoutes mounts the public discount check on api and the
// management endpoints on admin, which must already require an admin.
func (h *Handler) RegisterRoutes(api *echo.Group, admin *echo.Group) {
	validateLimit := middleware.RateLimit(h.limiter, middleware.RateLimitRule{
		Name:    "validate-discount",
		Max:     20,
		Window:  time.Hour,
		Message: "Too many requests",
	}, h.dev)
	api.POST("/validate-discount", h.ValidateDiscount, validateLimit)

	admin.GET("/affiliates", h.List)
	admin.POST("/affiliates", h.Create)
	admin.PUT("/affiliates", h.Update)
	admin.DELETE("/affiliates", h.Delete)
	admin.GET("/affiliate-report", h.Report)
}

type validateDiscountRequest struct {
	Code string `json:"code"`
}

func (h *Handler) ValidateDiscount(c echo.Context) error {
	var req validateDiscountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}
	code := strings.TrimSpace(req.Code)
	var v validate.Checker
	v.Len("code", code, 1, 50)
	if !v.OK() {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}

	a, ok := h.svc.Validate(c.Request().Context(), code)
	if !ok {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"valid":   false,
			"message": "Invalid or expired discount code",
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"valid":         true,
		"discountType":  a.DiscountType,
		"discountValue": a.DiscountValue,
	})
}

func (h *Handler) List(c echo.Context) error {
	all, err := h.svc.List(c.Request().Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("list affiliates failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load affiliates")
	}
	p := pagination.FromContext(c, pagination.MaxLimit)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"affiliates": pagination.Slice(all, p),
		"total":      len(all),
		"hasMore":    p.HasNext(len(all)),
	})
}

func invalidData(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, map[string]interface{}{
		"error":   "Invalid data",
		"details": validate.Problems(err),
	})
}

func (h *Handler) Create(c echo.Context) error {
	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid data")
	}
	a, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		switch {
		case validate.Problems(err) != nil:
			return invalidData(c, err)
		case errors.Is(err, ErrDuplicateCode):
			return echo.NewHTTPError(http.StatusConflict, "An affiliate with this code already exists")
		}
		h.logger.Error().Err(err).Msg("create affiliate failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create affiliate")
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"affiliate": a})
}

type updateRequest struct {
	OriginalCode string `json:"originalCode"`
	Input
}

func (h *Handler) Update(c echo.Context) error {
	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid data")
	}
	if req.OriginalCode == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "originalCode is required")
	}
	a, err := h.svc.Update(c.Request().Context(), req.OriginalCode, req.Input)
	if err != nil {
		switch {
		case validate.Problems(err) != nil:
			return invalidData(c, err)
		case errors.Is(err, ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Affiliate not found")
		case errors.Is(err, ErrDuplicateCode):
			return echo.NewHTTPError(http.StatusConflict, "An affiliate with this code already exists")
		}
		h.logger.Error().Err(err).Msg("update affiliate failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update affiliate")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"affiliate": a})
}

func (h *Handler) Delete(c echo.Context) error {
	code := c.QueryParam("code")
	if code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code query param is required")
	}
	if err := h.svc.Delete(c.Request().Context(), code); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Affiliate not found")
		}
		h.logger.Error().Err(err).Msg("delete affiliate failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete affiliate")
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) Report(c echo.Context) error {
	r, err := validate.ParseDateRange(c.QueryParam("startDate"), c.QueryParam("endDate"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "startDate and endDate (YYYY-MM-DD) are required")
	}
	rep, err := h.svc.Report(c.Request().Context(), r)
	if err != nil {
		h.logger.Error().Err(err).Msg("affiliate report failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate report")
	}
	return c.JSON(http.StatusOK, rep)
}
