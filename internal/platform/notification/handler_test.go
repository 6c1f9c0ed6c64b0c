package notification

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func setupHandler() (*echo.Echo, *Manager, *MockSMSSender) {
	sms := &MockSMSSender{}
	m := NewManager(sms, &MockVoiceCaller{}, nil, nil, zerolog.Nop())
	e := echo.New()
	NewHandler(m).RegisterRoutes(e.Group("/api/v1"))
	return e, m, sms
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandler_SendSMS(t *testing.T) {
	e, _, sms := setupHandler()
	rec := do(e, http.MethodPost, "/api/v1/notifications/sms", `{"to":"+15550001111","body":"hello"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var n Notification
	if err := json.Unmarshal(rec.Body.Bytes(), &n); err != nil {
		t.Fatal(err)
	}
	if n.Channel != ChannelSMS || n.Status != StatusSent {
		t.Errorf("n = %+v", n)
	}
	if len(sms.Calls()) != 1 {
		t.Errorf("calls = %d", len(sms.Calls()))
	}
}

func TestHandler_PlaceCallFromTemplate(t *testing.T) {
	e, _, _ := setupHandler()
	rec := do(e, http.MethodPost, "/api/v1/notifications/voice",
		`{"to":"+1","template_id":"callback","data":{"patient_name":"Ana","clinic":"North ED","callback_number":"555-0100"}}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), "North ED") {
		t.Errorf("body = %s", rec.Body)
	}
}

func TestHandler_SendValidation(t *testing.T) {
	e, _, _ := setupHandler()
	tests := []struct {
		name string
		path string
		body string
	}{
		{"missing to", "/api/v1/notifications/sms", `{"body":"x"}`},
		{"missing body", "/api/v1/notifications/sms", `{"to":"+1"}`},
		{"unknown template", "/api/v1/notifications/sms", `{"to":"+1","template_id":"nope"}`},
		{"channel mismatch", "/api/v1/notifications/sms", `{"to":"+1","template_id":"callback"}`},
		{"bad json", "/api/v1/notifications/voice", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(e, http.MethodPost, tt.path, tt.body); rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestHandler_FailedDeliveryStillCreated(t *testing.T) {
	e, _, sms := setupHandler()
	sms.ShouldFail = true
	sms.FailError = "boom"

	rec := do(e, http.MethodPost, "/api/v1/notifications/sms", `{"to":"+1","body":"x"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	var n Notification
	_ = json.Unmarshal(rec.Body.Bytes(), &n)
	if n.Status != StatusFailed {
		t.Errorf("status = %s", n.Status)
	}

	sms.ShouldFail = false
	rec = do(e, http.MethodPost, "/api/v1/notifications/"+n.ID+"/retry", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("retry status = %d, body %s", rec.Code, rec.Body)
	}
	rec = do(e, http.MethodPost, "/api/v1/notifications/"+n.ID+"/retry", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("second retry status = %d, want 409", rec.Code)
	}
}

func TestHandler_GetAndList(t *testing.T) {
	e, _, _ := setupHandler()
	rec := do(e, http.MethodPost, "/api/v1/notifications/sms", `{"to":"+1","body":"x"}`)
	var n Notification
	_ = json.Unmarshal(rec.Body.Bytes(), &n)

	if rec := do(e, http.MethodGet, "/api/v1/notifications/"+n.ID, ""); rec.Code != http.StatusOK {
		t.Errorf("get status = %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/api/v1/notifications/missing", ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing status = %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/api/v1/notifications", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("list without recipient status = %d", rec.Code)
	}

	rec = do(e, http.MethodGet, "/api/v1/notifications?recipient=%2B1", "")
	var list []Notification
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil || len(list) != 1 {
		t.Errorf("list = %s (err %v)", rec.Body, err)
	}
}

func TestHandler_Stats(t *testing.T) {
	e, _, _ := setupHandler()
	do(e, http.MethodPost, "/api/v1/notifications/sms", `{"to":"+1","body":"x"}`)

	rec := do(e, http.MethodGet, "/api/v1/notifications/stats", "")
	var stats map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatal(err)
	}
	if stats["sent"] != 1 {
		t.Errorf("stats = %v", stats)
	}
}
