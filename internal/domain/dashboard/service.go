package dashboard

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/hms/internal/domain/identity"
	"github.com/carelink/hms/internal/domain/reports"
	"github.com/carelink/hms/internal/domain/scheduling"
)

type Users interface {
	List(ctx context.Context, role identity.Role, limit, offset int) ([]*identity.Account, int, error)
	ListDoctors(ctx context.Context) ([]identity.Doctor, error)
}

type Appointments interface {
	Count(ctx context.Context, f scheduling.Filter) (int, error)
	Recent(ctx context.Context, n int) ([]*scheduling.Appointment, error)
}

type Reports interface {
	All(ctx context.Context) ([]*reports.MedicalReport, error)
}

type Service struct {
	users   Users
	appts   Appointments
	reports Reports
}

func NewService(users Users, appts Appointments, reports Reports) *Service {
	return &Service{users: users, appts: appts, reports: reports}
}

// AdminStats summarizes users and appointments. Today and this month are
// evaluated in now's location.
func (s *Service) AdminStats(ctx context.Context, now time.Time) (*AdminStats, error) {
	var st AdminStats
	var err error
	if _, st.TotalDoctors, err = s.users.List(ctx, identity.RoleDoctor, 1, 0); err != nil {
		return nil, fmt.Errorf("count doctors: %w", err)
	}
	if _, st.TotalPatients, err = s.users.List(ctx, identity.RolePatient, 1, 0); err != nil {
		return nil, fmt.Errorf("count patients: %w", err)
	}

	today := now.Format(scheduling.DateLayout)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthEnd := monthStart.AddDate(0, 1, -1)
	counts := []struct {
		dst *int
		f   scheduling.Filter
	}{
		{&st.TotalAppointments, scheduling.Filter{}},
		{&st.Today, scheduling.Filter{From: today, To: today}},
		{&st.ThisMonth, scheduling.Filter{
			From: monthStart.Format(scheduling.DateLayout),
			To:   monthEnd.Format(scheduling.DateLayout),
		}},
	}
	for _, c := range counts {
		if *c.dst, err = s.appts.Count(ctx, c.f); err != nil {
			return nil, fmt.Errorf("count appointments: %w", err)
		}
	}

	if st.Recent, err = s.appts.Recent(ctx, RecentLimit); err != nil {
		return nil, fmt.Errorf("recent appointments: %w", err)
	}
	if st.Recent == nil {
		st.Recent = []*scheduling.Appointment{}
	}
	return &st, nil
}

// DoctorRevenue groups reports per authoring doctor. Every report earns the
// doctor's consultation fee, or DefaultFeeMinor when none is set. A
// non-empty specialization keeps only doctors of that specialization.
// Results are ordered by revenue, highest first.
func (s *Service) DoctorRevenue(ctx context.Context, specialization string) ([]DoctorRevenue, error) {
	doctors, err := s.users.ListDoctors(ctx)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	byID := make(map[uuid.UUID]identity.Doctor, len(doctors))
	for _, d := range doctors {
		byID[d.ID] = d
	}

	all, err := s.reports.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}

	grouped := make(map[uuid.UUID]*DoctorRevenue)
	for _, r := range all {
		row, ok := grouped[r.DoctorID]
		if !ok {
			row = newRow(r, byID)
			grouped[r.DoctorID] = row
		}
		row.Reports++
		row.RevenueMinor += feeOf(byID[r.DoctorID])
	}

	out := make([]DoctorRevenue, 0, len(grouped))
	for _, row := range grouped {
		if specialization != "" && row.Specialization != specialization {
			continue
		}
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RevenueMinor != out[j].RevenueMinor {
			return out[i].RevenueMinor > out[j].RevenueMinor
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// TopDoctors returns the first TopLimit rows of DoctorRevenue.
func (s *Service) TopDoctors(ctx context.Context, specialization string) ([]DoctorRevenue, error) {
	rows, err := s.DoctorRevenue(ctx, specialization)
	if err != nil {
		return nil, err
	}
	if len(rows) > TopLimit {
		rows = rows[:TopLimit]
	}
	return rows, nil
}

func newRow(r *reports.MedicalReport, doctors map[uuid.UUID]identity.Doctor) *DoctorRevenue {
	row := &DoctorRevenue{DoctorID: r.DoctorID, Name: r.DoctorName, Specialization: DefaultSpecialization}
	if d, ok := doctors[r.DoctorID]; ok {
		row.Name = d.Name
		if d.Specialization != "" {
			row.Specialization = d.Specialization
		}
	}
	if row.Name == "" {
		row.Name = "Unknown"
	}
	return row
}

func feeOf(d identity.Doctor) int64 {
	if d.ConsultationFeeMinor > 0 {
		return d.ConsultationFeeMinor
	}
	return DefaultFeeMinor
}
