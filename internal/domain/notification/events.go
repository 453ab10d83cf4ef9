package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/carelink/hms/internal/domain/identity"
	"github.com/carelink/hms/internal/domain/reports"
	"github.com/carelink/hms/internal/domain/scheduling"
)

// Event is a domain event that produces notifications. The set of events
// is closed; see the types below.
type Event interface {
	name() string
}

type NewAppointment struct {
	Appointment scheduling.Appointment
}

type AppointmentStatusChanged struct {
	Appointment    scheduling.Appointment
	PreviousStatus scheduling.Status
}

type NewMedicalReport struct {
	Report reports.MedicalReport
}

// RoleBroadcast notifies every user currently holding Role.
type RoleBroadcast struct {
	Title   string
	Message string
	Role    identity.Role
	Link    *string
}

type NewUserRegistered struct {
	User     identity.User
	AdminIDs []uuid.UUID
}

func (NewAppointment) name() string           { return "new_appointment" }
func (AppointmentStatusChanged) name() string { return "appointment_status_changed" }
func (NewMedicalReport) name() string         { return "new_medical_report" }
func (RoleBroadcast) name() string            { return "role_broadcast" }
func (NewUserRegistered) name() string        { return "new_user_registered" }

// Recipients enumerates and resolves users at dispatch time.
type Recipients interface {
	ListAll(ctx context.Context) ([]*identity.Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*identity.Account, error)
}

// records expands ev into the notifications to write, one per recipient.
func records(ctx context.Context, users Recipients, ev Event) ([]Notification, error) {
	switch e := ev.(type) {
	case NewAppointment:
		a := e.Appointment
		return []Notification{
			{
				UserID:    a.DoctorID,
				Title:     "New Appointment",
				Message:   fmt.Sprintf("You have a new appointment with %s on %s at %s", a.PatientName, a.Date, a.Time),
				Type:      TypeAppointment,
				RelatedID: &a.ID,
				Link:      strptr(linkDoctorAppointments),
			},
			{
				UserID:    a.PatientID,
				Title:     "Appointment Confirmation",
				Message:   fmt.Sprintf("Your appointment with Dr. %s is confirmed for %s at %s", a.DoctorName, a.Date, a.Time),
				Type:      TypeAppointment,
				RelatedID: &a.ID,
				Link:      strptr(linkPatientAppointments),
			},
		}, nil

	case AppointmentStatusChanged:
		a := e.Appointment
		var msg string
		switch a.Status {
		case scheduling.StatusCompleted:
			msg = fmt.Sprintf("Your appointment with %s on %s has been marked as completed", a.DoctorName, a.Date)
		case scheduling.StatusCancelled:
			msg = fmt.Sprintf("Your appointment with %s on %s has been cancelled", a.DoctorName, a.Date)
		default:
			msg = fmt.Sprintf("Your appointment status has been updated from %s to %s", e.PreviousStatus, a.Status)
		}
		return []Notification{{
			UserID:    a.PatientID,
			Title:     "Appointment Update",
			Message:   msg,
			Type:      TypeAppointment,
			RelatedID: &a.ID,
			Link:      strptr(linkPatientAppointments),
		}}, nil

	case NewMedicalReport:
		r := e.Report
		return []Notification{{
			UserID:    r.PatientID,
			Title:     "New Medical Report",
			Message:   fmt.Sprintf("Dr. %s has created a new medical report for you", r.DoctorName),
			Type:      TypeMedical,
			RelatedID: &r.ID,
			Link:      strptr(linkPatientReports),
		}}, nil

	case RoleBroadcast:
		all, err := users.ListAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("enumerate recipients: %w", err)
		}
		var out []Notification
		for _, u := range all {
			if u.Role != e.Role {
				continue
			}
			out = append(out, Notification{
				UserID:  u.ID,
				Title:   e.Title,
				Message: e.Message,
				Type:    TypeSystem,
				Link:    e.Link,
			})
		}
		return out, nil

	case NewUserRegistered:
		u := e.User
		out := make([]Notification, 0, len(e.AdminIDs))
		for _, id := range e.AdminIDs {
			out = append(out, Notification{
				UserID:    id,
				Title:     "New User Registration",
				Message:   fmt.Sprintf("%s has registered as a %s", u.Name, u.Role),
				Type:      TypeSystem,
				RelatedID: &u.ID,
				Link:      strptr(linkAdminSettings),
			})
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown event %T", ev)
}
