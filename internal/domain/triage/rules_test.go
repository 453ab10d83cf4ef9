package triage

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

const minimalRules = `
default_category: General
unclear_prompt: tell me more
greetings: {patterns: ["^hi$"], responses: ["hello"]}
casual: {patterns: ["^ok$"], responses: ["great"]}
categories:
  - name: General
    keywords: [Fever]
    empathy: [sorry]
    follow_ups: [how long?]
`

func TestDefaultRules(t *testing.T) {
	r, err := DefaultRules()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		"Dermatology", "Cardiology", "Gastroenterology", "Pulmonology", "Psychiatry",
		"Neurology", "Orthopedics", "Ophthalmology", "ENT", "General Medicine",
	}
	if got := r.CategoryNames(); !slices.Equal(got, want) {
		t.Errorf("unexpected category order: %v", got)
	}
}

func TestParseRules_LowercasesKeywords(t *testing.T) {
	r, err := ParseRules([]byte(minimalRules))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Categories[0].Keywords[0] != "fever" {
		t.Errorf("expected lowercased keyword, got %q", r.Categories[0].Keywords[0])
	}
}

func TestParseRules_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not yaml", "::"},
		{"no categories", "default_category: X\n"},
		{"missing default", strings.Replace(minimalRules, "default_category: General", "default_category: Other", 1)},
		{"bad regex", strings.Replace(minimalRules, `"^hi$"`, `"(hi"`, 1)},
		{"duplicate category", minimalRules + "  - name: General\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseRules([]byte(tt.doc)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadRules_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(minimalRules), 0o600); err != nil {
		t.Fatal(err)
	}
	r, err := LoadRules(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.DefaultCategory != "General" {
		t.Errorf("expected file rules, got default %q", r.DefaultCategory)
	}

	if _, err := LoadRules(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFollowUps(t *testing.T) {
	r, _ := DefaultRules()

	derm := r.FollowUps("Dermatology")
	if len(derm) != 4 || derm[0] != "How long have you been dealing with this skin issue?" {
		t.Errorf("unexpected dermatology follow-ups: %v", derm)
	}

	gm := r.FollowUps("General Medicine")
	if got := r.FollowUps("Astrology"); !slices.Equal(got, gm) {
		t.Errorf("unknown category should fall back, got %v", got)
	}
	if got := r.FollowUps("ENT"); !slices.Equal(got, gm) {
		t.Errorf("category without questions should fall back, got %v", got)
	}
}

func TestFollowUps_ReturnsCopy(t *testing.T) {
	r, _ := DefaultRules()
	q := r.FollowUps("Cardiology")
	q[0] = "changed"
	if r.FollowUps("Cardiology")[0] == "changed" {
		t.Error("follow-ups must not alias the rule table")
	}
}
