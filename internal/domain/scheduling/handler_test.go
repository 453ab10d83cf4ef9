package scheduling

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/carelink/hms/internal/platform/auth"
)

func request(method, body string, p auth.Principal) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, "/", nil)
	} else {
		req = httptest.NewRequest(method, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	return req.WithContext(auth.WithPrincipal(req.Context(), p))
}

func TestHandler_Book(t *testing.T) {
	f := newFixture(t)
	h, e := NewHandler(f.svc), echo.New()
	body := `{"doctor_id":"` + f.doctor.ID.String() + `","date":"2026-05-04","time":"10:00","symptoms":"chest pain"}`
	rec := httptest.NewRecorder()

	if err := h.Book(e.NewContext(request(http.MethodPost, body, f.patientCaller()), rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"doctor_name":"Ann Vega"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestHandler_UpdateStatus_Conflict(t *testing.T) {
	f := newFixture(t)
	h, e := NewHandler(f.svc), echo.New()
	a := f.book(t, "2026-05-04")

	for i, want := range []int{http.StatusOK, http.StatusConflict} {
		rec := httptest.NewRecorder()
		c := e.NewContext(request(http.MethodPatch, `{"status":"completed"}`, f.doctorCaller()), rec)
		c.SetParamNames("id")
		c.SetParamValues(a.ID.String())
		err := h.UpdateStatus(c)
		if want == http.StatusOK {
			if err != nil || rec.Code != http.StatusOK {
				t.Fatalf("call %d: expected 200, got %v / %d", i, err, rec.Code)
			}
			continue
		}
		var he *echo.HTTPError
		if !errors.As(err, &he) || he.Code != want {
			t.Errorf("call %d: expected %d, got %v", i, want, err)
		}
	}
}

func TestHandler_List_InvalidStatus(t *testing.T) {
	f := newFixture(t)
	h, e := NewHandler(f.svc), echo.New()
	req := request(http.MethodGet, "", f.patientCaller())
	req.URL.RawQuery = "status=lost"

	err := h.List(e.NewContext(req, httptest.NewRecorder()))
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_RegisterRoutes(t *testing.T) {
	f := newFixture(t)
	e := echo.New()
	NewHandler(f.svc).RegisterRoutes(e.Group("/api/v1"))

	want := map[string]bool{
		"GET:/api/v1/appointments":              false,
		"GET:/api/v1/appointments/:id":          false,
		"POST:/api/v1/appointments":             false,
		"PATCH:/api/v1/appointments/:id/status": false,
		"DELETE:/api/v1/appointments/:id":       false,
	}
	for _, r := range e.Routes() {
		key := r.Method + ":" + r.Path
		if _, ok := want[key]; ok {
			want[key] = true
		}
	}
	for k, found := range want {
		if !found {
			t.Errorf("missing route: %s", k)
		}
	}
}
