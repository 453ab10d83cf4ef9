package identity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

// User is the record shared by every role.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Profile holds the role-specific part of an account. It is implemented
// only by PatientProfile, DoctorProfile and AdminProfile.
type Profile interface {
	profileRole() Role
}

type PatientProfile struct {
	Age              *int     `json:"age,omitempty"`
	DateOfBirth      *string  `json:"date_of_birth,omitempty"`
	BloodGroup       *string  `json:"blood_group,omitempty"`
	Address          *string  `json:"address,omitempty"`
	EmergencyContact *string  `json:"emergency_contact,omitempty"`
	Allergies        []string `json:"allergies,omitempty"`
	MedicalHistory   []string `json:"medical_history,omitempty"`
}

type TimeSlot struct {
	Day   string `json:"day"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type DoctorProfile struct {
	Specialization       string     `json:"specialization"`
	ExperienceYears      int        `json:"experience_years"`
	Qualification        string     `json:"qualification"`
	ConsultationFeeMinor int64      `json:"consultation_fee_minor"`
	Rating               *float64   `json:"rating,omitempty"`
	AvailableSlots       []TimeSlot `json:"available_slots,omitempty"`
}

type AdminProfile struct {
	Permissions []string `json:"permissions,omitempty"`
}

func (PatientProfile) profileRole() Role { return RolePatient }
func (DoctorProfile) profileRole() Role  { return RoleDoctor }
func (AdminProfile) profileRole() Role   { return RoleAdmin }

// Account is a user together with its role profile.
type Account struct {
	User
	Profile Profile `json:"profile"`
}

// NewAccount returns an account with an empty profile matching u.Role.
func NewAccount(u User) (*Account, error) {
	p, err := emptyProfile(u.Role)
	if err != nil {
		return nil, err
	}
	return &Account{User: u, Profile: p}, nil
}

func emptyProfile(r Role) (Profile, error) {
	switch r {
	case RolePatient:
		return PatientProfile{}, nil
	case RoleDoctor:
		return DoctorProfile{}, nil
	case RoleAdmin:
		return AdminProfile{}, nil
	}
	return nil, invalidf("invalid role: %q", r)
}

// decodeProfile parses raw into the profile variant of role r.
func decodeProfile(r Role, raw json.RawMessage) (Profile, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return emptyProfile(r)
	}
	switch r {
	case RolePatient:
		var p PatientProfile
		err := json.Unmarshal(raw, &p)
		return p, err
	case RoleDoctor:
		var p DoctorProfile
		err := json.Unmarshal(raw, &p)
		return p, err
	case RoleAdmin:
		var p AdminProfile
		err := json.Unmarshal(raw, &p)
		return p, err
	}
	return nil, invalidf("invalid role: %q", r)
}

// UnmarshalJSON picks the profile variant from the role field.
func (a *Account) UnmarshalJSON(data []byte) error {
	var aux struct {
		User
		Profile json.RawMessage `json:"profile"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p, err := decodeProfile(aux.Role, aux.Profile)
	if err != nil {
		return err
	}
	a.User = aux.User
	a.Profile = p
	return nil
}

// Doctor is the read model of a doctor account used for ranking and booking.
type Doctor struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Phone *string   `json:"phone,omitempty"`
	DoctorProfile
}

// AsDoctor returns the doctor view of a, or false if a is not a doctor.
func (a *Account) AsDoctor() (Doctor, bool) {
	switch p := a.Profile.(type) {
	case DoctorProfile:
		return Doctor{ID: a.ID, Name: a.Name, Email: a.Email, Phone: a.Phone, DoctorProfile: p}, true
	case *DoctorProfile:
		if p == nil {
			return Doctor{}, false
		}
		return Doctor{ID: a.ID, Name: a.Name, Email: a.Email, Phone: a.Phone, DoctorProfile: *p}, true
	default:
		return Doctor{}, false
	}
}

// Validate checks the base fields and that the profile variant matches the role.
func (a *Account) Validate() error {
	if a.Email == "" {
		return invalidf("email is required")
	}
	if a.Name == "" {
		return invalidf("name is required")
	}
	if !a.Role.Valid() {
		return invalidf("invalid role: %q", a.Role)
	}
	if a.Profile == nil {
		p, _ := emptyProfile(a.Role)
		a.Profile = p
	}
	if a.Profile.profileRole() != a.Role {
		return invalidf("profile does not match role %q", a.Role)
	}
	switch p := a.Profile.(type) {
	case DoctorProfile:
		if p.ExperienceYears < 0 {
			return invalidf("experience_years must not be negative")
		}
		if p.ConsultationFeeMinor < 0 {
			return invalidf("consultation_fee_minor must not be negative")
		}
		if p.Rating != nil && (*p.Rating < 0 || *p.Rating > 5) {
			return invalidf("rating must be between 0 and 5")
		}
	case PatientProfile:
		if p.Age != nil && (*p.Age < 0 || *p.Age > 150) {
			return invalidf("age out of range")
		}
	}
	return nil
}
