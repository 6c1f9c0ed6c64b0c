package trackboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func newTestHandler(records ...*PatientRecord) (*Handler, *echo.Echo) {
	svc, _ := newTestService(records...)
	return NewHandler(svc), echo.New()
}

func assertHTTPError(t *testing.T, err error, want int) {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	if he.Code != want {
		t.Errorf("expected %d, got %d", want, he.Code)
	}
}

func TestHandler_GetBoard(t *testing.T) {
	h, e := newTestHandler(
		patient("A", SectionUntriaged, 9*time.Minute),
		patient("B", SectionUntriaged, 3*time.Minute),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tracking-board", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.GetBoard(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Sections []struct {
			Section        string `json:"section"`
			NeedsAttention int    `json:"needsAttention"`
			Patients       []struct {
				ID   string `json:"id"`
				Wait struct {
					Label  string `json:"label"`
					Urgent bool   `json:"urgent"`
				} `json:"wait"`
			} `json:"patients"`
		} `json:"sections"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Sections) != 5 {
		t.Fatalf("expected 5 sections, got %d", len(body.Sections))
	}
	untriaged := body.Sections[0]
	if untriaged.Section != "untriaged" || untriaged.NeedsAttention != 1 {
		t.Errorf("unexpected untriaged section: %+v", untriaged)
	}
	if len(untriaged.Patients) != 2 || untriaged.Patients[0].ID != "A" || untriaged.Patients[0].Wait.Label != "9m" {
		t.Errorf("unexpected patients: %+v", untriaged.Patients)
	}
}

func TestHandler_GetSection_Paginated(t *testing.T) {
	h, e := newTestHandler(
		patient("c1", SectionConcierge, 30*time.Hour),
		patient("c2", SectionConcierge, 20*time.Hour),
		patient("c3", SectionConcierge, 2*time.Hour),
	)

	req := httptest.NewRequest(http.MethodGet, "/?limit=2&offset=1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("section")
	c.SetParamValues("concierge")

	if err := h.GetSection(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var body struct {
		Total          int    `json:"total"`
		NeedsAttention int    `json:"needsAttention"`
		SLATarget      string `json:"slaTarget"`
		Page           struct {
			Data []struct {
				ID string `json:"id"`
			} `json:"data"`
			Total      int  `json:"total"`
			HasMore    bool `json:"has_more"`
			NextOffset *int `json:"next_offset"`
			PrevOffset *int `json:"prev_offset"`
		} `json:"page"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 3 || body.NeedsAttention != 1 || body.SLATarget != "<24 hrs" {
		t.Errorf("unexpected section summary: %+v", body)
	}
	if len(body.Page.Data) != 2 || body.Page.Data[0].ID != "c2" || body.Page.Data[1].ID != "c3" {
		t.Errorf("unexpected page: %+v", body.Page.Data)
	}
	if body.Page.HasMore || body.Page.NextOffset != nil {
		t.Errorf("last page should have no next offset: %+v", body.Page)
	}
	if body.Page.PrevOffset == nil || *body.Page.PrevOffset != 0 {
		t.Errorf("expected prev_offset 0, got %v", body.Page.PrevOffset)
	}
}

func TestHandler_GetSection_Unknown(t *testing.T) {
	h, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("section")
	c.SetParamValues("hallway")

	assertHTTPError(t, h.GetSection(c), http.StatusBadRequest)
}

func TestHandler_GetPatient(t *testing.T) {
	h, e := newTestHandler(patient("pt-1", SectionUntriaged, time.Minute))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("pt-1")

	if err := h.GetPatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("missing")
	assertHTTPError(t, h.GetPatient(c), http.StatusNotFound)
}

func TestHandler_ClassifyVital(t *testing.T) {
	h, e := newTestHandler()

	tests := []struct {
		query       string
		wantStatus  VitalStatus
		wantConcern PainConcern
	}{
		{"?name=heartRate&value=120", VitalCritical, ""},
		{"?name=heartRate&value=130.0", VitalCritical, ""},
		{"?name=oxygenSaturation&value=89.5", VitalCritical, ""},
		{"?name=bloodPressure&value=190/95", VitalAbnormal, ""},
		{"?name=painScale&value=5", VitalNormal, PainMedium},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/"+tt.query, nil), rec)
			if err := h.ClassifyVital(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var got classifyResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.Status != tt.wantStatus {
				t.Errorf("status: got %s, want %s", got.Status, tt.wantStatus)
			}
			if tt.wantConcern != "" && (got.Concern == nil || *got.Concern != tt.wantConcern) {
				t.Errorf("concern: got %v, want %s", got.Concern, tt.wantConcern)
			}
		})
	}
}

func TestHandler_ClassifyVital_BadRequest(t *testing.T) {
	h, e := newTestHandler()

	for _, q := range []string{
		"/",
		"/?name=heartRate",
		"/?name=painScale&value=lots",
		"/?name=oxygenSaturation&value=low",
		"/?name=heartRate&value=fast",
		"/?name=bloodPressure&value=120",
	} {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, q, nil), httptest.NewRecorder())
		assertHTTPError(t, h.ClassifyVital(c), http.StatusBadRequest)
	}
}
