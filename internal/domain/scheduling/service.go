package scheduling

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/hms/internal/domain/identity"
	"github.com/carelink/hms/internal/platform/auth"
)

// Directory resolves the accounts an appointment refers to.
type Directory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*identity.Account, error)
}

// Notifier receives appointment events after the write has been committed.
// Implementations log their own failures.
type Notifier interface {
	AppointmentBooked(ctx context.Context, a Appointment)
	AppointmentStatusChanged(ctx context.Context, a Appointment, previous Status)
}

type Service struct {
	repo     Repository
	users    Directory
	notifier Notifier
	logger   zerolog.Logger
}

func NewService(repo Repository, users Directory, notifier Notifier, logger zerolog.Logger) *Service {
	return &Service{repo: repo, users: users, notifier: notifier, logger: logger}
}

// Book creates a scheduled appointment. Patients book for themselves;
// admins may book on behalf of any patient.
func (s *Service) Book(ctx context.Context, caller auth.Principal, req BookRequest) (*Appointment, error) {
	switch {
	case caller.IsAdmin():
		if req.PatientID == uuid.Nil {
			return nil, invalidf("patient_id is required")
		}
	case caller.Role == string(identity.RolePatient):
		req.PatientID = caller.UserID
	default:
		return nil, fmt.Errorf("%w: only patients can book appointments", ErrForbidden)
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	patient, err := s.account(ctx, req.PatientID, identity.RolePatient)
	if err != nil {
		return nil, err
	}
	doctor, err := s.account(ctx, req.DoctorID, identity.RoleDoctor)
	if err != nil {
		return nil, err
	}

	a := &Appointment{
		PatientID:   patient.ID,
		DoctorID:    doctor.ID,
		PatientName: patient.Name,
		DoctorName:  doctor.Name,
		Date:        req.Date,
		Time:        req.Time,
		Status:      StatusScheduled,
		Symptoms:    req.Symptoms,
		Notes:       req.Notes,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	s.notifier.AppointmentBooked(ctx, *a)
	return a, nil
}

func (s *Service) account(ctx context.Context, id uuid.UUID, role identity.Role) (*identity.Account, error) {
	acc, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, invalidf("%s %s not found", role, id)
		}
		return nil, err
	}
	if acc.Role != role {
		return nil, invalidf("user %s is not a %s", id, role)
	}
	return acc, nil
}

// canAccess: the appointment's patient and doctor, and admins.
func canAccess(caller auth.Principal, a *Appointment) bool {
	return caller.IsAdmin() || caller.UserID == a.PatientID || caller.UserID == a.DoctorID
}

func (s *Service) Get(ctx context.Context, caller auth.Principal, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAccess(caller, a) {
		return nil, ErrNotFound
	}
	return a, nil
}

// Transition moves an appointment to a terminal status without notifying.
// The returned status is the one before the change.
func (s *Service) Transition(ctx context.Context, caller auth.Principal, id uuid.UUID, to Status, notes *string) (*Appointment, Status, error) {
	if !to.Valid() {
		return nil, "", invalidf("invalid status: %q", to)
	}
	cur, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if !caller.IsAdmin() && caller.UserID != cur.DoctorID {
		if caller.UserID == cur.PatientID {
			return nil, "", ErrForbidden
		}
		return nil, "", ErrNotFound
	}
	if !cur.Status.CanTransition(to) {
		return nil, "", fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, cur.Status, to)
	}
	updated, err := s.repo.UpdateStatus(ctx, id, cur.Status, to, notes)
	if err != nil {
		return nil, "", err
	}
	return updated, cur.Status, nil
}

// UpdateStatus is Transition followed by the status-change notice.
func (s *Service) UpdateStatus(ctx context.Context, caller auth.Principal, id uuid.UUID, to Status, notes *string) (*Appointment, error) {
	a, prev, err := s.Transition(ctx, caller, id, to, notes)
	if err != nil {
		return nil, err
	}
	s.notifier.AppointmentStatusChanged(ctx, *a, prev)
	return a, nil
}

// List scopes the filter to the caller: patients see their own
// appointments, doctors theirs, admins everything.
func (s *Service) List(ctx context.Context, caller auth.Principal, f Filter, limit, offset int) ([]*Appointment, int, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, invalidf("invalid status: %q", f.Status)
	}
	switch caller.Role {
	case string(identity.RolePatient):
		f.PatientID = caller.UserID
	case string(identity.RoleDoctor):
		f.DoctorID = caller.UserID
	case string(identity.RoleAdmin):
	default:
		return nil, 0, ErrForbidden
	}
	return s.repo.List(ctx, f, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.List(ctx, Filter{PatientID: patientID}, limit, offset)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.List(ctx, Filter{DoctorID: doctorID}, limit, offset)
}

// ListBetween returns every appointment dated within [from, to].
func (s *Service) ListBetween(ctx context.Context, from, to string) ([]*Appointment, error) {
	items, _, err := s.repo.List(ctx, Filter{From: from, To: to}, 0, 0)
	return items, err
}

func (s *Service) Count(ctx context.Context, f Filter) (int, error) {
	return s.repo.Count(ctx, f)
}

// Recent returns the n most recent appointments.
func (s *Service) Recent(ctx context.Context, n int) ([]*Appointment, error) {
	items, _, err := s.repo.List(ctx, Filter{}, n, 0)
	return items, err
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
