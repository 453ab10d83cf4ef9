package reports

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/hms/internal/domain/identity"
	"github.com/carelink/hms/internal/domain/scheduling"
	"github.com/carelink/hms/internal/platform/auth"
	"github.com/carelink/hms/internal/platform/blobstore"
	"github.com/carelink/hms/internal/platform/db"
)

// Directory resolves the accounts a report refers to.
type Directory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*identity.Account, error)
}

// Appointments completes the appointment a consultation report is written for.
type Appointments interface {
	Transition(ctx context.Context, caller auth.Principal, id uuid.UUID, to scheduling.Status, notes *string) (*scheduling.Appointment, scheduling.Status, error)
}

// Notifier receives report events after commit. Implementations log their
// own failures.
type Notifier interface {
	ReportCreated(ctx context.Context, r MedicalReport)
	AppointmentStatusChanged(ctx context.Context, a scheduling.Appointment, previous scheduling.Status)
}

type Service struct {
	repo         Repository
	users        Directory
	appointments Appointments
	blobs        blobstore.Store
	tx           db.TxRunner
	notifier     Notifier
	logger       zerolog.Logger
}

func NewService(repo Repository, users Directory, appts Appointments, blobs blobstore.Store,
	tx db.TxRunner, notifier Notifier, logger zerolog.Logger) *Service {
	return &Service{
		repo:         repo,
		users:        users,
		appointments: appts,
		blobs:        blobs,
		tx:           tx,
		notifier:     notifier,
		logger:       logger,
	}
}

// authorOf resolves the doctor a report is written by: the caller itself,
// or the requested doctor when an admin writes on their behalf.
func (s *Service) authorOf(ctx context.Context, caller auth.Principal, requested uuid.UUID) (*identity.Account, error) {
	id := caller.UserID
	switch {
	case caller.IsAdmin():
		if requested == uuid.Nil {
			return nil, invalidf("doctor_id is required")
		}
		id = requested
	case caller.Role != string(identity.RoleDoctor):
		return nil, fmt.Errorf("%w: only doctors can write reports", ErrForbidden)
	}
	return s.account(ctx, id, identity.RoleDoctor)
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

// Create writes a consultation report and notifies the patient.
func (s *Service) Create(ctx context.Context, caller auth.Principal, req CreateRequest) (*MedicalReport, error) {
	if err := req.validateContent(); err != nil {
		return nil, err
	}
	doctor, err := s.authorOf(ctx, caller, req.DoctorID)
	if err != nil {
		return nil, err
	}
	patient, err := s.account(ctx, req.PatientID, identity.RolePatient)
	if err != nil {
		return nil, err
	}
	r := consultation(req, patient.ID, patient.Name, doctor.ID, doctor.Name)
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, err
	}
	s.notifier.ReportCreated(ctx, *r)
	return r, nil
}

func consultation(req CreateRequest, patientID uuid.UUID, patientName string, doctorID uuid.UUID, doctorName string) *MedicalReport {
	return &MedicalReport{
		PatientID:     patientID,
		DoctorID:      doctorID,
		PatientName:   patientName,
		DoctorName:    doctorName,
		Diagnosis:     req.Diagnosis,
		Prescription:  req.Prescription,
		Notes:         req.Notes,
		Symptoms:      req.Symptoms,
		TreatmentPlan: req.TreatmentPlan,
		FollowUpDate:  req.FollowUpDate,
		ReportType:    TypeConsultation,
	}
}

// CreateFromAppointment writes the consultation report for an appointment
// and marks the appointment completed in one transaction. Patient and
// doctor come from the appointment.
func (s *Service) CreateFromAppointment(ctx context.Context, caller auth.Principal, appointmentID uuid.UUID, req CreateRequest) (*MedicalReport, error) {
	if err := req.validateContent(); err != nil {
		return nil, err
	}
	var (
		r    *MedicalReport
		appt *scheduling.Appointment
		prev scheduling.Status
	)
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		appt, prev, err = s.appointments.Transition(ctx, caller, appointmentID, scheduling.StatusCompleted, nil)
		if err != nil {
			return err
		}
		r = consultation(req, appt.PatientID, appt.PatientName, appt.DoctorID, appt.DoctorName)
		r.AppointmentID = &appt.ID
		if r.Symptoms == nil {
			r.Symptoms = appt.Symptoms
		}
		return s.repo.Create(ctx, r)
	})
	if err != nil {
		return nil, err
	}
	s.notifier.AppointmentStatusChanged(ctx, *appt, prev)
	s.notifier.ReportCreated(ctx, *r)
	return r, nil
}

// UploadRequest describes a scanned report attached for a patient.
type UploadRequest struct {
	PatientID   uuid.UUID
	DoctorID    uuid.UUID
	Title       string
	FileName    string
	ContentType string
	Content     io.Reader
}

// Upload stores the file and records an uploaded_document report for it.
func (s *Service) Upload(ctx context.Context, caller auth.Principal, req UploadRequest) (*MedicalReport, error) {
	doctor, err := s.authorOf(ctx, caller, req.DoctorID)
	if err != nil {
		return nil, err
	}
	patient, err := s.account(ctx, req.PatientID, identity.RolePatient)
	if err != nil {
		return nil, err
	}
	meta, err := s.blobs.Put(ctx, blobstore.Metadata{
		FileName:    req.FileName,
		ContentType: req.ContentType,
		OwnerID:     doctor.ID,
	}, req.Content)
	if err != nil {
		return nil, fmt.Errorf("store report file: %w", err)
	}

	title := req.Title
	if title == "" {
		title = meta.FileName
	}
	r := &MedicalReport{
		ID:          uuid.New(),
		PatientID:   patient.ID,
		DoctorID:    doctor.ID,
		PatientName: patient.Name,
		DoctorName:  doctor.Name,
		Diagnosis:   title,
		ReportType:  TypeUploadedDocument,
		BlobID:      &meta.ID,
	}
	url := fmt.Sprintf("/api/v1/reports/%s/file", r.ID)
	r.FileURL = &url
	if err := s.repo.Create(ctx, r); err != nil {
		if delErr := s.blobs.Delete(ctx, meta.ID); delErr != nil {
			s.logger.Error().Err(delErr).Str("blob_id", meta.ID.String()).Msg("orphaned report blob")
		}
		return nil, err
	}
	s.notifier.ReportCreated(ctx, *r)
	return r, nil
}

// canView: the report's patient, its author and admins.
func canView(caller auth.Principal, r *MedicalReport) bool {
	return caller.IsAdmin() || caller.UserID == r.PatientID || caller.UserID == r.DoctorID
}

func canEdit(caller auth.Principal, r *MedicalReport) bool {
	return caller.IsAdmin() || caller.UserID == r.DoctorID
}

func (s *Service) Get(ctx context.Context, caller auth.Principal, id uuid.UUID) (*MedicalReport, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(caller, r) {
		return nil, ErrNotFound
	}
	return r, nil
}

// File opens the attachment of an uploaded_document report.
func (s *Service) File(ctx context.Context, caller auth.Principal, id uuid.UUID) (io.ReadCloser, *blobstore.Metadata, error) {
	r, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, nil, err
	}
	if r.BlobID == nil {
		return nil, nil, ErrNotFound
	}
	rc, meta, err := s.blobs.Get(ctx, *r.BlobID)
	if errors.Is(err, blobstore.ErrNotFound) {
		return nil, nil, ErrNotFound
	}
	return rc, meta, err
}

func (s *Service) Update(ctx context.Context, caller auth.Principal, id uuid.UUID, upd Update) (*MedicalReport, error) {
	r, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !canEdit(caller, r) {
		return nil, ErrForbidden
	}
	if err := upd.apply(r); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Delete removes the report and its attachment.
func (s *Service) Delete(ctx context.Context, caller auth.Principal, id uuid.UUID) error {
	r, err := s.Get(ctx, caller, id)
	if err != nil {
		return err
	}
	if !canEdit(caller, r) {
		return ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if r.BlobID != nil {
		if err := s.blobs.Delete(ctx, *r.BlobID); err != nil && !errors.Is(err, blobstore.ErrNotFound) {
			s.logger.Error().Err(err).Str("blob_id", r.BlobID.String()).Msg("delete report blob")
		}
	}
	return nil
}

// List scopes the listing to the caller: patients get their own reports,
// doctors the ones they wrote, admins everything.
func (s *Service) List(ctx context.Context, caller auth.Principal, f Filter, limit, offset int) ([]*MedicalReport, int, error) {
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

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicalReport, int, error) {
	return s.repo.List(ctx, Filter{PatientID: patientID}, limit, offset)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*MedicalReport, int, error) {
	return s.repo.List(ctx, Filter{DoctorID: doctorID}, limit, offset)
}

// All returns every report, newest first.
func (s *Service) All(ctx context.Context) ([]*MedicalReport, error) {
	items, _, err := s.repo.List(ctx, Filter{}, 0, 0)
	return items, err
}
