package settings

import (
	"strings"
	"time"
)

// DefaultHospitalName is used until an admin saves a configuration.
const DefaultHospitalName = "CareLink Hospital"

type WorkingHours struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// HospitalConfig is the single hospital-wide settings document.
type HospitalConfig struct {
	Name            string       `json:"name"`
	Address         string       `json:"address,omitempty"`
	Phone           string       `json:"phone,omitempty"`
	Email           string       `json:"email,omitempty"`
	EmergencyNumber string       `json:"emergency_number,omitempty"`
	Departments     []string     `json:"departments"`
	WorkingHours    WorkingHours `json:"working_hours"`
	MaxAppointments int          `json:"max_appointments"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

func Defaults() HospitalConfig {
	return HospitalConfig{
		Name:         DefaultHospitalName,
		Departments:  []string{},
		WorkingHours: WorkingHours{From: "09:00", To: "17:00"},
	}
}

// normalize trims fields and drops blank or repeated departments.
func (c *HospitalConfig) normalize() error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return invalidf("name is required")
	}
	if c.MaxAppointments < 0 {
		return invalidf("max_appointments must not be negative")
	}
	for _, t := range []string{c.WorkingHours.From, c.WorkingHours.To} {
		if t == "" {
			continue
		}
		if _, err := time.Parse("15:04", t); err != nil {
			return invalidf("working hours must be HH:MM, got %q", t)
		}
	}
	if c.WorkingHours.From != "" && c.WorkingHours.To != "" && c.WorkingHours.From >= c.WorkingHours.To {
		return invalidf("working hours must end after they start")
	}
	seen := make(map[string]bool, len(c.Departments))
	depts := make([]string, 0, len(c.Departments))
	for _, d := range c.Departments {
		d = strings.TrimSpace(d)
		key := strings.ToLower(d)
		if d == "" || seen[key] {
			continue
		}
		seen[key] = true
		depts = append(depts, d)
	}
	c.Departments = depts
	return nil
}
