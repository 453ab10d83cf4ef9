package triage

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/hms/internal/domain/identity"
)

type fakeFinder struct {
	mu     sync.Mutex
	bySpec map[string][]identity.Doctor
	any    []identity.Doctor
	fail   map[string]bool
	calls  []string
	limits []int
}

func (f *fakeFinder) FindDoctors(_ context.Context, spec string, limit int) ([]identity.Doctor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, spec)
	f.limits = append(f.limits, limit)
	if f.fail[spec] {
		return nil, errors.New("store unavailable")
	}
	docs := f.bySpec[spec]
	if spec == "" {
		docs = f.any
	}
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

func doctor(name, spec string, years int) identity.Doctor {
	return identity.Doctor{
		ID:            uuid.New(),
		Name:          name,
		DoctorProfile: identity.DoctorProfile{Specialization: spec, ExperienceYears: years},
	}
}

func names(docs []identity.Doctor) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Name
	}
	return out
}

func TestRank_TopThreeByExperienceStable(t *testing.T) {
	f := &fakeFinder{bySpec: map[string][]identity.Doctor{
		"Cardiology": {
			doctor("two", "Cardiology", 2),
			doctor("ten-a", "Cardiology", 10),
			doctor("ten-b", "Cardiology", 10),
			doctor("one", "Cardiology", 1),
			doctor("seven", "Cardiology", 7),
		},
	}}
	r := NewRanker(f, zerolog.Nop())

	got := names(r.Rank(context.Background(), []string{"Cardiology"}))
	want := []string{"ten-a", "ten-b", "seven"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if f.limits[0] != DefaultLimitPerCategory {
		t.Errorf("expected limit %d, got %d", DefaultLimitPerCategory, f.limits[0])
	}
}

func TestRank_FallsBackToAnySpecialization(t *testing.T) {
	var pool []identity.Doctor
	for i := 0; i < 12; i++ {
		pool = append(pool, doctor("gp", "General Medicine", i))
	}
	f := &fakeFinder{any: pool}
	r := NewRanker(f, zerolog.Nop())

	for _, cats := range [][]string{nil, {"Ophthalmology"}} {
		docs := r.Rank(context.Background(), cats)
		if len(docs) != DefaultTopN {
			t.Fatalf("expected %d doctors, got %d", DefaultTopN, len(docs))
		}
		// Only the first ten are fetched, so the best is 9 years.
		if docs[0].ExperienceYears != 9 {
			t.Errorf("expected 9 years first, got %d", docs[0].ExperienceYears)
		}
	}
	if f.calls[len(f.calls)-1] != "" {
		t.Error("expected a lookup with no specialization filter")
	}
}

func TestRank_DeduplicatesAcrossCategories(t *testing.T) {
	shared := doctor("shared", "Cardiology", 20)
	f := &fakeFinder{bySpec: map[string][]identity.Doctor{
		"Cardiology":  {shared, doctor("card", "Cardiology", 5)},
		"Pulmonology": {shared, doctor("pulm", "Pulmonology", 3)},
	}}
	r := NewRanker(f, zerolog.Nop(), WithTopN(10))

	got := names(r.Rank(context.Background(), []string{"Cardiology", "Pulmonology"}))
	if len(got) != 3 || got[0] != "shared" {
		t.Errorf("expected shared once, got %v", got)
	}
}

func TestRank_FailedLookupContributesNothing(t *testing.T) {
	f := &fakeFinder{
		bySpec: map[string][]identity.Doctor{"Neurology": {doctor("neuro", "Neurology", 4)}},
		fail:   map[string]bool{"Cardiology": true},
	}
	r := NewRanker(f, zerolog.Nop())

	got := names(r.Rank(context.Background(), []string{"Cardiology", "Neurology"}))
	if len(got) != 1 || got[0] != "neuro" {
		t.Errorf("expected only neuro, got %v", got)
	}
}

func TestRank_AllLookupsFail(t *testing.T) {
	f := &fakeFinder{fail: map[string]bool{"Cardiology": true, "": true}}
	r := NewRanker(f, zerolog.Nop())
	if got := r.Rank(context.Background(), []string{"Cardiology"}); len(got) != 0 {
		t.Errorf("expected empty result, got %v", names(got))
	}
}

func TestRank_Options(t *testing.T) {
	f := &fakeFinder{bySpec: map[string][]identity.Doctor{"ENT": {
		doctor("a", "ENT", 1), doctor("b", "ENT", 2), doctor("c", "ENT", 3),
	}}}
	r := NewRanker(f, zerolog.Nop(), WithLimitPerCategory(2), WithTopN(1))
	got := r.Rank(context.Background(), []string{"ENT"})
	if len(got) != 1 || got[0].Name != "b" {
		t.Errorf("expected [b], got %v", names(got))
	}
}
