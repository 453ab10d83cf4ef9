package dashboard

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/carelink/hms/internal/domain/scheduling"
)

const (
	// DefaultFeeMinor is charged per report when the doctor has no fee set.
	DefaultFeeMinor int64 = 50000
	// DefaultSpecialization labels doctors without a specialization.
	DefaultSpecialization = "General Medicine"
	RecentLimit           = 5
	TopLimit              = 5
)

type AdminStats struct {
	TotalDoctors      int                       `json:"total_doctors"`
	TotalPatients     int                       `json:"total_patients"`
	TotalAppointments int                       `json:"total_appointments"`
	Today             int                       `json:"today_appointments"`
	ThisMonth         int                       `json:"month_appointments"`
	Recent            []*scheduling.Appointment `json:"recent_appointments"`
}

// DoctorRevenue is the consultation income attributed to one doctor.
type DoctorRevenue struct {
	DoctorID       uuid.UUID `json:"doctor_id"`
	Name           string    `json:"name"`
	Specialization string    `json:"specialization"`
	Reports        int       `json:"reports"`
	RevenueMinor   int64     `json:"revenue_minor"`
}

// FormatMinor renders an amount in minor units with two decimals.
func FormatMinor(v int64) string {
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
