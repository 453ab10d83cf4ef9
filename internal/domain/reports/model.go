package reports

import (
	"time"

	"github.com/google/uuid"
)

type ReportType string

const (
	TypeConsultation     ReportType = "consultation"
	TypeUploadedDocument ReportType = "uploaded_document"
)

// MedicalReport snapshots patient and doctor names at creation.
type MedicalReport struct {
	ID            uuid.UUID  `json:"id"`
	PatientID     uuid.UUID  `json:"patient_id"`
	DoctorID      uuid.UUID  `json:"doctor_id"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	PatientName   string     `json:"patient_name"`
	DoctorName    string     `json:"doctor_name"`
	Diagnosis     string     `json:"diagnosis"`
	Prescription  string     `json:"prescription"`
	Notes         *string    `json:"notes,omitempty"`
	Symptoms      *string    `json:"symptoms,omitempty"`
	TreatmentPlan *string    `json:"treatment_plan,omitempty"`
	FollowUpDate  *string    `json:"follow_up_date,omitempty"`
	ReportType    ReportType `json:"report_type"`
	BlobID        *uuid.UUID `json:"-"`
	FileURL       *string    `json:"file_url,omitempty"`
	AISummary     *string    `json:"ai_summary,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// CreateRequest is the clinical content of a consultation report.
// DoctorID is only honored for admins.
type CreateRequest struct {
	PatientID     uuid.UUID `json:"patient_id"`
	DoctorID      uuid.UUID `json:"doctor_id"`
	Diagnosis     string    `json:"diagnosis"`
	Prescription  string    `json:"prescription"`
	Notes         *string   `json:"notes"`
	Symptoms      *string   `json:"symptoms"`
	TreatmentPlan *string   `json:"treatment_plan"`
	FollowUpDate  *string   `json:"follow_up_date"`
}

func (r CreateRequest) validateContent() error {
	if r.Diagnosis == "" {
		return invalidf("diagnosis is required")
	}
	if r.Prescription == "" {
		return invalidf("prescription is required")
	}
	if r.FollowUpDate != nil {
		if _, err := time.Parse("2006-01-02", *r.FollowUpDate); err != nil {
			return invalidf("follow_up_date must be YYYY-MM-DD")
		}
	}
	return nil
}

// Update is an explicit edit. Nil fields are unchanged.
type Update struct {
	Diagnosis     *string `json:"diagnosis"`
	Prescription  *string `json:"prescription"`
	Notes         *string `json:"notes"`
	Symptoms      *string `json:"symptoms"`
	TreatmentPlan *string `json:"treatment_plan"`
	FollowUpDate  *string `json:"follow_up_date"`
	AISummary     *string `json:"ai_summary"`
}

func (u Update) apply(r *MedicalReport) error {
	if u.Diagnosis != nil {
		if *u.Diagnosis == "" && r.ReportType == TypeConsultation {
			return invalidf("diagnosis cannot be empty")
		}
		r.Diagnosis = *u.Diagnosis
	}
	if u.Prescription != nil {
		if *u.Prescription == "" && r.ReportType == TypeConsultation {
			return invalidf("prescription cannot be empty")
		}
		r.Prescription = *u.Prescription
	}
	if u.FollowUpDate != nil {
		if _, err := time.Parse("2006-01-02", *u.FollowUpDate); err != nil {
			return invalidf("follow_up_date must be YYYY-MM-DD")
		}
		r.FollowUpDate = u.FollowUpDate
	}
	if u.Notes != nil {
		r.Notes = u.Notes
	}
	if u.Symptoms != nil {
		r.Symptoms = u.Symptoms
	}
	if u.TreatmentPlan != nil {
		r.TreatmentPlan = u.TreatmentPlan
	}
	if u.AISummary != nil {
		r.AISummary = u.AISummary
	}
	return nil
}

// Filter narrows report listings. Zero fields match everything.
type Filter struct {
	PatientID uuid.UUID
	DoctorID  uuid.UUID
}

func (f Filter) match(r *MedicalReport) bool {
	return (f.PatientID == uuid.Nil || r.PatientID == f.PatientID) &&
		(f.DoctorID == uuid.Nil || r.DoctorID == f.DoctorID)
}
