package scheduling

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition allows only scheduled -> completed|cancelled.
func (s Status) CanTransition(to Status) bool {
	return s == StatusScheduled && to.Terminal()
}

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Appointment carries snapshots of the patient and doctor names taken at
// booking time. They are not refreshed when the profiles change.
type Appointment struct {
	ID          uuid.UUID `json:"id"`
	PatientID   uuid.UUID `json:"patient_id"`
	DoctorID    uuid.UUID `json:"doctor_id"`
	PatientName string    `json:"patient_name"`
	DoctorName  string    `json:"doctor_name"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Status      Status    `json:"status"`
	Symptoms    *string   `json:"symptoms,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BookRequest is the input to Service.Book. PatientID is only honored for
// admins; everyone else books for themselves.
type BookRequest struct {
	PatientID uuid.UUID `json:"patient_id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Symptoms  *string   `json:"symptoms"`
	Notes     *string   `json:"notes"`
}

func (r BookRequest) validate() error {
	if r.DoctorID == uuid.Nil {
		return invalidf("doctor_id is required")
	}
	if _, err := time.Parse(DateLayout, r.Date); err != nil {
		return invalidf("date must be YYYY-MM-DD")
	}
	if _, err := time.Parse(TimeLayout, r.Time); err != nil {
		return invalidf("time must be HH:MM")
	}
	return nil
}

// Filter narrows appointment listings. Zero fields match everything.
type Filter struct {
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Status    Status
	// From and To bound Date inclusively, as YYYY-MM-DD.
	From string
	To   string
}

func (f Filter) match(a *Appointment) bool {
	if f.PatientID != uuid.Nil && a.PatientID != f.PatientID {
		return false
	}
	if f.DoctorID != uuid.Nil && a.DoctorID != f.DoctorID {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.From != "" && a.Date < f.From {
		return false
	}
	if f.To != "" && a.Date > f.To {
		return false
	}
	return true
}
