package triage

import (
	"math/rand"
	"strings"
)

type Kind string

const (
	KindGreeting Kind = "greeting"
	KindCasual   Kind = "casual"
	KindMedical  Kind = "medical"
	KindUnclear  Kind = "unclear"
)

type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Analysis is the classifier verdict for one message.
type Analysis struct {
	Kind     Kind     `json:"kind"`
	Category string   `json:"category,omitempty"`
	Urgency  Urgency  `json:"urgency"`
	Response string   `json:"response"`
	Tips     []string `json:"tips"`
}

// Random picks an index in [0, n).
type Random interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.Intn(n) }

// Classifier maps free text onto the rule tables. It is safe for concurrent
// use as long as rnd is.
type Classifier struct {
	rules *Rules
	rnd   Random
}

// NewClassifier returns a classifier over rules. A nil rnd uses math/rand/v2.
func NewClassifier(rules *Rules, rnd Random) *Classifier {
	if rnd == nil {
		rnd = globalRand{}
	}
	return &Classifier{rules: rules, rnd: rnd}
}

func (c *Classifier) Rules() *Rules { return c.rules }

func (c *Classifier) pick(options []string) string {
	if len(options) == 0 {
		return ""
	}
	return options[c.rnd.IntN(len(options))]
}

// Classify never fails: text that matches nothing yields KindUnclear.
func (c *Classifier) Classify(text string) Analysis {
	input := strings.ToLower(strings.TrimSpace(text))

	for _, re := range c.rules.greetingRe {
		if re.MatchString(input) {
			return Analysis{Kind: KindGreeting, Urgency: UrgencyLow, Response: c.pick(c.rules.Greetings.Responses), Tips: []string{}}
		}
	}
	for _, re := range c.rules.casualRe {
		if re.MatchString(input) {
			return Analysis{Kind: KindCasual, Urgency: UrgencyLow, Response: c.pick(c.rules.Casual.Responses), Tips: []string{}}
		}
	}

	best, bestCount := "", 0
	for _, cat := range c.rules.Categories {
		n := 0
		for _, k := range cat.Keywords {
			if strings.Contains(input, k) {
				n++
			}
		}
		if n > bestCount {
			best, bestCount = cat.Name, n
		}
	}
	if bestCount == 0 {
		return Analysis{Kind: KindUnclear, Urgency: UrgencyLow, Response: c.rules.UnclearPrompt, Tips: []string{}}
	}

	empathy := c.rules.lookup(best, func(c Category) bool { return len(c.Empathy) > 0 })
	tips := c.rules.lookup(best, func(c Category) bool { return len(c.Tips) > 0 })
	return Analysis{
		Kind:     KindMedical,
		Category: best,
		Urgency:  c.urgency(input),
		Response: c.pick(empathy.Empathy),
		Tips:     append([]string{}, tips.Tips...),
	}
}

func (c *Classifier) urgency(input string) Urgency {
	if containsAny(input, c.rules.Urgency.High) {
		return UrgencyHigh
	}
	if containsAny(input, c.rules.Urgency.Low) {
		return UrgencyLow
	}
	return UrgencyMedium
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
