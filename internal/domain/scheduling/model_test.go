package scheduling

import "testing"

func TestStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusScheduled, StatusCompleted, true},
		{StatusScheduled, StatusCancelled, true},
		{StatusScheduled, StatusScheduled, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCompleted, StatusScheduled, false},
		{StatusCancelled, StatusCompleted, false},
		{StatusScheduled, "no-show", false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s -> %s: expected %v, got %v", tt.from, tt.to, tt.want, got)
		}
	}
}

func TestBookRequest_Validate(t *testing.T) {
	valid := BookRequest{DoctorID: [16]byte{1}, Date: "2026-03-01", Time: "09:30"}
	if err := valid.validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bad := []BookRequest{
		{Date: "2026-03-01", Time: "09:30"},
		{DoctorID: [16]byte{1}, Date: "03/01/2026", Time: "09:30"},
		{DoctorID: [16]byte{1}, Date: "2026-03-01", Time: "9.30am"},
	}
	for i, r := range bad {
		if err := r.validate(); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}

func TestFilter_Match(t *testing.T) {
	a := &Appointment{Date: "2026-03-10", Status: StatusScheduled}
	if !(Filter{From: "2026-03-01", To: "2026-03-31"}).match(a) {
		t.Error("expected date inside range to match")
	}
	if (Filter{From: "2026-03-11"}).match(a) {
		t.Error("expected date before From to be excluded")
	}
	if (Filter{Status: StatusCompleted}).match(a) {
		t.Error("expected status mismatch to be excluded")
	}
}
