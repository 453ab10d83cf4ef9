package triage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/carelink/hms/internal/domain/identity"
)

func newTestHandler(t *testing.T, f *fakeFinder) (*Handler, *echo.Echo) {
	t.Helper()
	svc := NewService(newTestClassifier(t), NewRanker(f, zerolog.Nop()))
	return NewHandler(svc), echo.New()
}

func TestService_Analyze_Medical(t *testing.T) {
	f := &fakeFinder{bySpec: map[string][]identity.Doctor{"Dermatology": {doctor("derm", "Dermatology", 6)}}}
	svc := NewService(newTestClassifier(t), NewRanker(f, zerolog.Nop()))

	got := svc.Analyze(context.Background(), "itchy rash")
	if got.Kind != KindMedical || got.Category != "Dermatology" {
		t.Fatalf("unexpected analysis: %+v", got.Analysis)
	}
	if len(got.FollowUps) != 4 {
		t.Errorf("expected 4 follow-ups, got %d", len(got.FollowUps))
	}
	if len(got.Doctors) != 1 || got.Doctors[0].Name != "derm" {
		t.Errorf("unexpected doctors: %v", names(got.Doctors))
	}
}

func TestService_Analyze_GreetingSkipsLookup(t *testing.T) {
	f := &fakeFinder{}
	svc := NewService(newTestClassifier(t), NewRanker(f, zerolog.Nop()))

	got := svc.Analyze(context.Background(), "hello")
	if got.Kind != KindGreeting || len(got.Doctors) != 0 || len(got.FollowUps) != 0 {
		t.Errorf("unexpected consultation: %+v", got)
	}
	if len(f.calls) != 0 {
		t.Errorf("expected no doctor lookups, got %v", f.calls)
	}
}

func TestHandler_Analyze(t *testing.T) {
	h, e := newTestHandler(t, &fakeFinder{})
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"message":"severe chest pain"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.Analyze(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got Consultation
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Category != "Cardiology" || got.Urgency != UrgencyHigh {
		t.Errorf("unexpected consultation: %+v", got.Analysis)
	}
}

func TestHandler_Analyze_EmptyMessage(t *testing.T) {
	h, e := newTestHandler(t, &fakeFinder{})
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"message":"   "}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	err := h.Analyze(e.NewContext(req, httptest.NewRecorder()))
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_FollowUps(t *testing.T) {
	h, e := newTestHandler(t, &fakeFinder{})
	req := httptest.NewRequest(http.MethodGet, "/?category=Psychiatry", nil)
	rec := httptest.NewRecorder()

	if err := h.FollowUps(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), "How long have you been feeling this way?") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestHandler_RankDoctors(t *testing.T) {
	f := &fakeFinder{bySpec: map[string][]identity.Doctor{
		"ENT":       {doctor("ent", "ENT", 3)},
		"Neurology": {doctor("neuro", "Neurology", 8)},
	}}
	h, e := newTestHandler(t, f)
	req := httptest.NewRequest(http.MethodGet, "/?specialization=ENT,%20Neurology", nil)
	rec := httptest.NewRecorder()

	if err := h.RankDoctors(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var docs []identity.Doctor
	json.Unmarshal(rec.Body.Bytes(), &docs)
	if len(docs) != 2 || docs[0].Name != "neuro" {
		t.Errorf("unexpected doctors: %v", names(docs))
	}
}

func TestHandler_RegisterRoutes(t *testing.T) {
	h, e := newTestHandler(t, &fakeFinder{})
	h.RegisterRoutes(e.Group("/api/v1"))

	want := map[string]bool{
		"POST:/api/v1/triage/analyze":   false,
		"GET:/api/v1/triage/follow-ups": false,
		"GET:/api/v1/triage/categories": false,
		"GET:/api/v1/triage/doctors":    false,
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
