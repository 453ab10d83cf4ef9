package reports

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/hms/internal/domain/identity"
	"github.com/carelink/hms/internal/domain/scheduling"
	"github.com/carelink/hms/internal/platform/auth"
	"github.com/carelink/hms/internal/platform/blobstore"
	"github.com/carelink/hms/internal/platform/db"
)

type mockNotifier struct {
	mu      sync.Mutex
	reports []MedicalReport
	changes []scheduling.Status
}

func (m *mockNotifier) ReportCreated(_ context.Context, r MedicalReport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, r)
}

func (m *mockNotifier) AppointmentStatusChanged(_ context.Context, a scheduling.Appointment, _ scheduling.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changes = append(m.changes, a.Status)
}

func (m *mockNotifier) AppointmentBooked(context.Context, scheduling.Appointment) {}

type fixture struct {
	svc      *Service
	repo     *MemoryRepository
	sched    *scheduling.Service
	blobs    *blobstore.MemoryStore
	notifier *mockNotifier
	patient  *identity.Account
	doctor   *identity.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	users := identity.NewMemoryRepository()
	patient := &identity.Account{User: identity.User{Email: "pat@x.test", Name: "Pat Doe", Role: identity.RolePatient}, Profile: identity.PatientProfile{}}
	doctor := &identity.Account{User: identity.User{Email: "doc@x.test", Name: "Ann Vega", Role: identity.RoleDoctor}, Profile: identity.DoctorProfile{}}
	for _, a := range []*identity.Account{patient, doctor} {
		if err := users.Create(ctx, a); err != nil {
			t.Fatal(err)
		}
	}
	n := &mockNotifier{}
	sched := scheduling.NewService(scheduling.NewMemoryRepository(), users, n, zerolog.Nop())
	repo := NewMemoryRepository()
	blobs := blobstore.NewMemoryStore()
	return &fixture{
		svc:      NewService(repo, users, sched, blobs, db.NoTx{}, n, zerolog.Nop()),
		repo:     repo,
		sched:    sched,
		blobs:    blobs,
		notifier: n,
		patient:  patient,
		doctor:   doctor,
	}
}

func (f *fixture) doctorCaller() auth.Principal {
	return auth.Principal{UserID: f.doctor.ID, Role: "doctor"}
}

func (f *fixture) patientCaller() auth.Principal {
	return auth.Principal{UserID: f.patient.ID, Role: "patient"}
}

func (f *fixture) create(t *testing.T) *MedicalReport {
	t.Helper()
	r, err := f.svc.Create(context.Background(), f.doctorCaller(), CreateRequest{
		PatientID: f.patient.ID, Diagnosis: "Hypertension", Prescription: "Amlodipine 5mg",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return r
}

func TestService_Create(t *testing.T) {
	f := newFixture(t)
	r := f.create(t)

	if r.ReportType != TypeConsultation || r.DoctorName != "Ann Vega" || r.PatientName != "Pat Doe" {
		t.Errorf("unexpected report: %+v", r)
	}
	if len(f.notifier.reports) != 1 || f.notifier.reports[0].ID != r.ID {
		t.Errorf("expected one report notice, got %d", len(f.notifier.reports))
	}
}

func TestService_Create_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tests := []struct {
		name   string
		caller auth.Principal
		req    CreateRequest
		want   error
	}{
		{"missing diagnosis", f.doctorCaller(), CreateRequest{PatientID: f.patient.ID, Prescription: "x"}, ErrInvalid},
		{"missing prescription", f.doctorCaller(), CreateRequest{PatientID: f.patient.ID, Diagnosis: "x"}, ErrInvalid},
		{"patient cannot write", f.patientCaller(), CreateRequest{PatientID: f.patient.ID, Diagnosis: "x", Prescription: "y"}, ErrForbidden},
		{"unknown patient", f.doctorCaller(), CreateRequest{PatientID: uuid.New(), Diagnosis: "x", Prescription: "y"}, ErrInvalid},
		{"admin without doctor", auth.Principal{UserID: uuid.New(), Role: "admin"}, CreateRequest{PatientID: f.patient.ID, Diagnosis: "x", Prescription: "y"}, ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.Create(ctx, tt.caller, tt.req); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
	if len(f.notifier.reports) != 0 {
		t.Error("failed writes must not notify")
	}
}

func TestService_CreateFromAppointment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	symptoms := "headache"
	appt, err := f.sched.Book(ctx, f.patientCaller(), scheduling.BookRequest{
		DoctorID: f.doctor.ID, Date: "2026-05-04", Time: "10:00", Symptoms: &symptoms,
	})
	if err != nil {
		t.Fatal(err)
	}

	r, err := f.svc.CreateFromAppointment(ctx, f.doctorCaller(), appt.ID, CreateRequest{Diagnosis: "Migraine", Prescription: "Rest"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.AppointmentID == nil || *r.AppointmentID != appt.ID {
		t.Error("expected report linked to appointment")
	}
	if r.Symptoms == nil || *r.Symptoms != "headache" {
		t.Error("expected symptoms carried from appointment")
	}
	got, _ := f.sched.Get(ctx, f.doctorCaller(), appt.ID)
	if got.Status != scheduling.StatusCompleted {
		t.Errorf("expected completed appointment, got %s", got.Status)
	}
	if len(f.notifier.changes) != 1 || len(f.notifier.reports) != 1 {
		t.Errorf("expected status and report notices, got %d and %d", len(f.notifier.changes), len(f.notifier.reports))
	}

	_, err = f.svc.CreateFromAppointment(ctx, f.doctorCaller(), appt.ID, CreateRequest{Diagnosis: "x", Prescription: "y"})
	if !errors.Is(err, scheduling.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if _, total, _ := f.repo.List(ctx, Filter{}, 0, 0); total != 1 {
		t.Errorf("expected a single report, got %d", total)
	}
}

func TestService_UploadAndFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.svc.Upload(ctx, f.doctorCaller(), UploadRequest{
		PatientID: f.patient.ID, FileName: "xray.pdf", ContentType: "application/pdf",
		Content: strings.NewReader("%PDF-1.4 scan"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ReportType != TypeUploadedDocument || r.FileURL == nil || r.Diagnosis != "xray.pdf" {
		t.Errorf("unexpected report: %+v", r)
	}

	rc, meta, err := f.svc.File(ctx, f.patientCaller(), r.ID)
	if err != nil {
		t.Fatalf("file: %v", err)
	}
	body, _ := io.ReadAll(rc)
	rc.Close()
	if string(body) != "%PDF-1.4 scan" || meta.ContentType != "application/pdf" {
		t.Errorf("unexpected file %q (%s)", body, meta.ContentType)
	}

	if err := f.svc.Delete(ctx, f.doctorCaller(), r.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if f.blobs.Len() != 0 {
		t.Error("expected blob removed with report")
	}
}

func TestService_Upload_RejectsContentType(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Upload(context.Background(), f.doctorCaller(), UploadRequest{
		PatientID: f.patient.ID, FileName: "run.exe", ContentType: "application/x-msdownload",
		Content: strings.NewReader("MZ"),
	})
	if !errors.Is(err, blobstore.ErrInvalidContentType) {
		t.Errorf("expected ErrInvalidContentType, got %v", err)
	}
}

func TestService_Visibility(t *testing.T) {
	f := newFixture(t)
	r := f.create(t)
	ctx := context.Background()

	stranger := auth.Principal{UserID: uuid.New(), Role: "patient"}
	if _, err := f.svc.Get(ctx, stranger, r.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := f.svc.Get(ctx, f.patientCaller(), r.ID); err != nil {
		t.Errorf("patient should see own report: %v", err)
	}
	diag := "changed"
	if _, err := f.svc.Update(ctx, f.patientCaller(), r.ID, Update{Diagnosis: &diag}); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestService_Update(t *testing.T) {
	f := newFixture(t)
	r := f.create(t)
	plan := "Recheck in 2 weeks"
	followUp := "2026-06-01"

	got, err := f.svc.Update(context.Background(), f.doctorCaller(), r.ID, Update{TreatmentPlan: &plan, FollowUpDate: &followUp})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.TreatmentPlan == nil || *got.TreatmentPlan != plan || got.Diagnosis != "Hypertension" {
		t.Errorf("unexpected report: %+v", got)
	}
	if len(f.notifier.reports) != 1 {
		t.Error("edits must not notify")
	}

	empty := ""
	if _, err := f.svc.Update(context.Background(), f.doctorCaller(), r.ID, Update{Diagnosis: &empty}); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestService_List_Scoped(t *testing.T) {
	f := newFixture(t)
	f.create(t)
	f.create(t)
	ctx := context.Background()

	_, total, err := f.svc.List(ctx, f.patientCaller(), Filter{}, 10, 0)
	if err != nil || total != 2 {
		t.Errorf("expected 2 reports for patient, got %d (%v)", total, err)
	}
	_, total, _ = f.svc.List(ctx, auth.Principal{UserID: uuid.New(), Role: "doctor"}, Filter{}, 10, 0)
	if total != 0 {
		t.Errorf("expected none for unrelated doctor, got %d", total)
	}
	all, _ := f.svc.All(ctx)
	if len(all) != 2 {
		t.Errorf("expected 2 reports overall, got %d", len(all))
	}
}
