package notification

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Handler exposes the notification manager over HTTP.
type Handler struct {
	manager *Manager
}

func NewHandler(mgr *Manager) *Handler {
	return &Handler{manager: mgr}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/notifications/sms", h.SendSMS)
	g.POST("/notifications/voice", h.PlaceCall)
	g.GET("/notifications/stats", h.Stats)
	g.GET("/notifications", h.List)
	g.GET("/notifications/:id", h.Get)
	g.POST("/notifications/:id/retry", h.Retry)
}

// sendRequest carries either a literal body or a template reference.
type sendRequest struct {
	To         string            `json:"to"`
	Body       string            `json:"body"`
	TemplateID string            `json:"template_id"`
	Data       map[string]string `json:"data"`
}

func (h *Handler) SendSMS(c echo.Context) error {
	return h.send(c, ChannelSMS)
}

func (h *Handler) PlaceCall(c echo.Context) error {
	return h.send(c, ChannelVoice)
}

func (h *Handler) send(c echo.Context, ch Channel) error {
	var req sendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.To == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "to is required")
	}
	ctx := c.Request().Context()

	n := &Notification{Channel: ch, Recipient: req.To, Body: req.Body}
	if req.TemplateID != "" {
		tpl, body, err := h.manager.templates.Render(req.TemplateID, req.Data)
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if tpl.Channel != ch {
			return echo.NewHTTPError(http.StatusBadRequest, "template "+req.TemplateID+" is not a "+string(ch)+" template")
		}
		n.Body = body
		n.TemplateID = req.TemplateID
		n.TemplateData = req.Data
	}
	if n.Body == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "body or template_id is required")
	}

	// a failed delivery is still recorded; the caller sees its status
	_ = h.manager.Send(ctx, n)
	got, err := h.manager.Get(ctx, n.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, got)
}

func (h *Handler) Get(c echo.Context) error {
	n, err := h.manager.Get(c.Request().Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "notification not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) List(c echo.Context) error {
	recipient := c.QueryParam("recipient")
	if recipient == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "recipient query parameter is required")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = 50
	}
	return c.JSON(http.StatusOK, h.manager.ListByRecipient(c.Request().Context(), recipient, limit))
}

func (h *Handler) Retry(c echo.Context) error {
	n, err := h.manager.Retry(c.Request().Context(), c.Param("id"))
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "notification not found")
	case errors.Is(err, ErrNotRetryable):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case n == nil && err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) Stats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.manager.Stats(c.Request().Context()))
}
