package submission

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/gever/intake/internal/platform/middleware"
	"github.com/gever/intake/pkg/pagination"
)

const defaultLogLimit = 50

type Handler struct {
	pipeline *Pipeline
	logs     LogRepository
	limiter  *middleware.Limiter
	dev      bool
	logger   zerolog.Logger
}

func NewHandler(pipeline *Pipeline, logs LogRepository, limiter *middleware.Limiter, dev bool, logger zerolog.Logger) *Handler {
	return &Handler{pipeline: pipeline, logs: logs, limiter: limiter, dev: dev, logger: logger}
}

// RegisterRoutes mounts the submission endpoint and the audit log reader.
// adminOnly guards the reader.
func (h *Handler) RegisterRoutes(api *echo.Group, adminOnly ...echo.MiddlewareFunc) {
	limit := middleware.RateLimit(h.limiter, middleware.RateLimitRule{
		Name:   "submit-visit",
		Max:    5,
		Window: time.Hour,
	}, h.dev)
	api.POST("/submit-visit", h.SubmitVisit, limit)
	api.GET("/logs", h.ListLogs, adminOnly...)
}

type submitResponse struct {
	Success  *bool           `json:"success,omitempty"`
	Error    string          `json:"error,omitempty"`
	Debug    []string        `json:"_debug,omitempty"`
	VisitID  json.RawMessage `json:"visitId,omitempty"`
	MasterID string          `json:"masterId,omitempty"`
}

func (h *Handler) SubmitVisit(c echo.Context) error {
	ctx := c.Request().Context()
	var req VisitRequest
	var out Outcome
	if err := c.Bind(&req); err != nil {
		out = h.pipeline.Unreadable(ctx, req, err)
	} else {
		out = h.pipeline.Submit(ctx, req)
	}

	var resp submitResponse
	switch out.Status {
	case StatusSuccess, StatusCaptureFailed, StatusBelugaError:
		ok := out.Status == StatusSuccess
		resp = submitResponse{Success: &ok, Error: out.Message, VisitID: out.VisitID, MasterID: out.MasterID}
	default:
		resp = submitResponse{Error: out.Message, Debug: out.Debug}
	}
	return c.JSON(out.HTTPCode, resp)
}

func (h *Handler) ListLogs(c echo.Context) error {
	ctx := c.Request().Context()
	p := pagination.FromContext(c, defaultLogLimit)

	keys, err := h.logs.List(ctx, c.QueryParam("date"), 0)
	if err != nil {
		h.logger.Error().Err(err).Msg("list submission logs failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch logs")
	}
	entries := h.logs.GetMany(ctx, pagination.Slice(keys, p))
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":   len(entries),
		"entries": entries,
	})
}
