package trackboard

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/carepoint/trackboard/internal/platform/auth"
	"github.com/carepoint/trackboard/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// admin passes RequireRole implicitly
	readGroup := api.Group("/tracking-board", auth.RequireRole("physician", "nurse"))
	readGroup.GET("", h.GetBoard)
	readGroup.GET("/sections/:section", h.GetSection)
	readGroup.GET("/patients/:id", h.GetPatient)
	readGroup.GET("/vitals/classify", h.ClassifyVital)
}

func (h *Handler) GetBoard(c echo.Context) error {
	board, err := h.svc.Board(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, board)
}

type sectionResponse struct {
	Section        Section              `json:"section"`
	Title          string               `json:"title"`
	SLATarget      string               `json:"slaTarget,omitempty"`
	Total          int                  `json:"total"`
	NeedsAttention int                  `json:"needsAttention"`
	Page           *pagination.Response `json:"page"`
}

func (h *Handler) GetSection(c echo.Context) error {
	section, err := ParseSection(c.Param("section"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sv, err := h.svc.Section(c.Request().Context(), section)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	pg := pagination.FromContext(c)
	return c.JSON(http.StatusOK, sectionResponse{
		Section:        sv.Section,
		Title:          sv.Title,
		SLATarget:      sv.SLATarget,
		Total:          sv.Total,
		NeedsAttention: sv.NeedsAttention,
		Page:           pagination.NewResponse(pagination.Slice(sv.Patients, pg), sv.Total, pg),
	})
}

func (h *Handler) GetPatient(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	v, err := h.svc.Patient(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, v)
}

type classifyResponse struct {
	Name    VitalName    `json:"name"`
	Value   string       `json:"value"`
	Status  VitalStatus  `json:"status"`
	Concern *PainConcern `json:"concern,omitempty"`
}

func (h *Handler) ClassifyVital(c echo.Context) error {
	name := VitalName(c.QueryParam("name"))
	value := c.QueryParam("value")
	if name == "" || value == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name and value are required")
	}

	status, err := ParseVital(name, value)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	resp := classifyResponse{Name: name, Value: value, Status: status}
	if name == VitalPainScale {
		score, err := strconv.Atoi(value)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "painScale must be an integer")
		}
		concern := ClassifyPain(score)
		resp.Concern = &concern
	}
	return c.JSON(http.StatusOK, resp)
}
