package notification

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeAppointment Type = "appointment"
	TypeMedical     Type = "medical"
	TypeSystem      Type = "system"
	TypeMessage     Type = "message"
)

func (t Type) Valid() bool {
	switch t {
	case TypeAppointment, TypeMedical, TypeSystem, TypeMessage:
		return true
	}
	return false
}

// Notification is one inbox record. After creation only Read changes.
type Notification struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Type      Type       `json:"type"`
	Read      bool       `json:"read"`
	CreatedAt time.Time  `json:"created_at"`
	RelatedID *uuid.UUID `json:"related_id,omitempty"`
	Link      *string    `json:"link,omitempty"`
}

const (
	linkDoctorAppointments  = "/doctor/appointments"
	linkPatientAppointments = "/patient/appointments"
	linkPatientReports      = "/patient/medical-reports"
	linkAdminSettings       = "/admin/settings"
)

func strptr(s string) *string { return &s }
