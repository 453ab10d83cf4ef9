package triage

import (
	"slices"
	"testing"
)

// lastRand always picks the last option.
type lastRand struct{}

func (lastRand) IntN(n int) int { return n - 1 }

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	rules, err := DefaultRules()
	if err != nil {
		t.Fatalf("DefaultRules: %v", err)
	}
	return NewClassifier(rules, nil)
}

func TestClassify_Greetings(t *testing.T) {
	c := newTestClassifier(t)
	for _, in := range []string{"hi", "  Hello ", "hey there", "Good Morning", "how are you doing?", "what's up", "nice to meet you"} {
		t.Run(in, func(t *testing.T) {
			a := c.Classify(in)
			if a.Kind != KindGreeting {
				t.Fatalf("expected greeting, got %s", a.Kind)
			}
			if a.Urgency != UrgencyLow || a.Category != "" || len(a.Tips) != 0 {
				t.Errorf("unexpected analysis: %+v", a)
			}
			if !slices.Contains(c.Rules().Greetings.Responses, a.Response) {
				t.Errorf("response not from greeting table: %q", a.Response)
			}
		})
	}
}

func TestClassify_Casual(t *testing.T) {
	c := newTestClassifier(t)
	for _, in := range []string{"i'm good thanks", "ok", "fine and you?", "nothing much", "thank you so much"} {
		t.Run(in, func(t *testing.T) {
			a := c.Classify(in)
			if a.Kind != KindCasual {
				t.Fatalf("expected casual, got %s", a.Kind)
			}
			if !slices.Contains(c.Rules().Casual.Responses, a.Response) {
				t.Errorf("response not from casual table: %q", a.Response)
			}
		})
	}
}

func TestClassify_SingleCategory(t *testing.T) {
	c := newTestClassifier(t)
	tests := []struct {
		input string
		want  string
	}{
		{"I have a rash", "Dermatology"},
		{"constant migraine", "Neurology"},
		{"my knee", "Orthopedics"},
		{"bloating", "Gastroenterology"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			a := c.Classify(tt.input)
			if a.Kind != KindMedical || a.Category != tt.want {
				t.Errorf("expected medical/%s, got %s/%s", tt.want, a.Kind, a.Category)
			}
		})
	}
}

func TestClassify_HighestCountWins(t *testing.T) {
	c := newTestClassifier(t)
	// Pulmonology: cough, wheezing. Cardiology: heart.
	a := c.Classify("cough and wheezing, also my heart")
	if a.Category != "Pulmonology" {
		t.Errorf("expected Pulmonology, got %s", a.Category)
	}
}

func TestClassify_TieGoesToFirstInTable(t *testing.T) {
	c := newTestClassifier(t)
	// "shortness of breath" is listed under both Cardiology and Pulmonology.
	a := c.Classify("shortness of breath")
	if a.Category != "Cardiology" {
		t.Errorf("expected Cardiology, got %s", a.Category)
	}
}

func TestClassify_Unclear(t *testing.T) {
	c := newTestClassifier(t)
	a := c.Classify("banana bread recipe")
	if a.Kind != KindUnclear || a.Category != "" || a.Urgency != UrgencyLow {
		t.Errorf("unexpected analysis: %+v", a)
	}
	if a.Response != c.Rules().UnclearPrompt {
		t.Errorf("expected unclear prompt, got %q", a.Response)
	}
}

func TestClassify_Urgency(t *testing.T) {
	c := newTestClassifier(t)
	tests := []struct {
		input string
		want  Urgency
	}{
		{"I have a rash", UrgencyMedium},
		{"mild rash", UrgencyLow},
		{"severe rash", UrgencyHigh},
		{"mild chest pain", UrgencyHigh},
		{"emergency, slight cough", UrgencyHigh},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := c.Classify(tt.input).Urgency; got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestClassify_MedicalResponseAndTips(t *testing.T) {
	rules, _ := DefaultRules()
	c := NewClassifier(rules, lastRand{})

	a := c.Classify("itchy skin")
	derm := rules.Categories[rules.byName["Dermatology"]]
	if a.Response != derm.Empathy[len(derm.Empathy)-1] {
		t.Errorf("expected last empathy line, got %q", a.Response)
	}
	if !slices.Equal(a.Tips, derm.Tips) {
		t.Errorf("expected dermatology tips, got %v", a.Tips)
	}
}

func TestClassify_FallsBackToDefaultCategoryText(t *testing.T) {
	c := newTestClassifier(t)
	rules := c.Rules()
	gm := rules.Categories[rules.byName[rules.DefaultCategory]]

	a := c.Classify("my ankle pain") // Orthopedics has no empathy lines
	if a.Category != "Orthopedics" {
		t.Fatalf("expected Orthopedics, got %s", a.Category)
	}
	if !slices.Contains(gm.Empathy, a.Response) {
		t.Errorf("expected default empathy, got %q", a.Response)
	}
	if !slices.Equal(a.Tips, gm.Tips) {
		t.Errorf("expected default tips, got %v", a.Tips)
	}
}

func TestClassify_TipsAreCopies(t *testing.T) {
	c := newTestClassifier(t)
	a := c.Classify("itchy skin")
	a.Tips[0] = "changed"
	if c.Classify("itchy skin").Tips[0] == "changed" {
		t.Error("tips must not alias the rule table")
	}
}
