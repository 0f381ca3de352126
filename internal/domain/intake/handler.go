package intake

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/gever/intake/internal/platform/middleware"
)

// maxCookieValue keeps the checkout cookie under the 4 KB browser limit
// together with its attributes.
const maxCookieValue = 3800

type Handler struct {
	flow     *Flow
	sessions *FormSessions
	limiter  *middleware.Limiter
	dev      bool
	logger   zerolog.Logger
}

func NewHandler(flow *Flow, sessions *FormSessions, limiter *middleware.Limiter, dev bool, logger zerolog.Logger) *Handler {
	return &Handler{flow: flow, sessions: sessions, limiter: limiter, dev: dev, logger: logger}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/screens", h.ListScreens)
	api.POST("/flow/step", h.Step)
	api.GET("/products", h.ListProducts)

	saveLimit := middleware.RateLimit(h.limiter, middleware.RateLimitRule{
		Name:    "form-session",
		Max:     20,
		Window:  time.Hour,
		Message: "Too many requests",
	}, h.dev)
	api.POST("/form-session", h.SaveFormSession, saveLimit)
	api.GET("/form-session", h.GetFormSession)
}

func (h *Handler) ListScreens(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"screens":      h.flow.Screens(),
		"checkoutStep": h.flow.IndexOf(ScreenCheckout),
	})
}

func (h *Handler) ListProducts(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"products":        Products(),
		"consultationFee": ConsultationFee,
		"shippingFee":     ShippingFee,
	})
}

type stepRequest struct {
	Answers     map[string]string `json:"answers"`
	CurrentStep int               `json:"currentStep"`
	Action      string            `json:"action"`
	Target      int               `json:"target"`
}

type stepResponse struct {
	Step             int        `json:"step"`
	ScreenID         string     `json:"screenId"`
	ScreenType       ScreenType `json:"screenType"`
	VisibleStepIndex int        `json:"visibleStepIndex"`
	VisibleStepCount int        `json:"visibleStepCount"`
}

// Step evaluates one movement against the posted answers without keeping
// any state.
func (h *Handler) Step(c echo.Context) error {
	var req stepRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}
	if req.Answers == nil {
		req.Answers = map[string]string{}
	}

	cur := h.flow.Clamp(req.CurrentStep)
	var next int
	switch req.Action {
	case "next":
		next = h.flow.Advance(cur, req.Answers)
	case "prev":
		next = h.flow.Retreat(cur, req.Answers)
	case "goto":
		next = h.flow.Clamp(req.Target)
	case "", "current":
		next = cur
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}

	screen := h.flow.Screen(next)
	return c.JSON(http.StatusOK, stepResponse{
		Step:             next,
		ScreenID:         screen.ID,
		ScreenType:       screen.Type,
		VisibleStepIndex: h.flow.VisibleStepIndex(next, req.Answers),
		VisibleStepCount: h.flow.VisibleStepCount(req.Answers),
	})
}

type saveFormSessionRequest struct {
	PaymentIntentID json.RawMessage `json:"paymentIntentId"`
	FormData        json.RawMessage `json:"formData"`
	Lang            string          `json:"lang"`
}

func (h *Handler) SaveFormSession(c echo.Context) error {
	var req saveFormSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}

	var piID string
	if err := json.Unmarshal(req.PaymentIntentID, &piID); err != nil || piID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing paymentIntentId")
	}
	if !isJSONObject(req.FormData) {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing formData")
	}

	if err := h.sessions.Save(c.Request().Context(), piID, req.FormData, req.Lang); err != nil {
		h.logger.Error().Err(err).Msg("form session save failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save")
	}

	h.setCheckoutCookie(c, req.FormData)
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// setCheckoutCookie gives the browser a copy of the form that survives the
// payment redirect even when tab storage is cleared. It must stay readable
// by page scripts and be sent on the top-level return navigation.
func (h *Handler) setCheckoutCookie(c echo.Context, formData json.RawMessage) {
	value, err := encodeSnapshot(formData)
	if err != nil {
		return
	}
	if len(value) > maxCookieValue {
		h.logger.Debug().Int("size", len(value)).Msg("checkout snapshot too large for a cookie")
		return
	}
	c.SetCookie(&http.Cookie{
		Name:     CheckoutCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(time.Hour / time.Second),
		Secure:   !h.dev,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) GetFormSession(c echo.Context) error {
	piID := c.QueryParam("piId")
	if piID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing piId")
	}
	session, err := h.sessions.Take(c.Request().Context(), piID)
	if err != nil {
		if errors.Is(err, ErrFormSessionNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve")
	}
	return c.JSON(http.StatusOK, session)
}
