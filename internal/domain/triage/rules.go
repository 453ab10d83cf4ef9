package triage

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

type phraseSet struct {
	Patterns  []string `yaml:"patterns"`
	Responses []string `yaml:"responses"`
}

// Category is one row of the specialization table.
type Category struct {
	Name      string   `yaml:"name"`
	Keywords  []string `yaml:"keywords"`
	Empathy   []string `yaml:"empathy"`
	Tips      []string `yaml:"tips"`
	FollowUps []string `yaml:"follow_ups"`
}

// Rules are the immutable tables behind the classifier. Build them with
// DefaultRules, LoadRules or ParseRules.
type Rules struct {
	DefaultCategory string     `yaml:"default_category"`
	UnclearPrompt   string     `yaml:"unclear_prompt"`
	Greetings       phraseSet  `yaml:"greetings"`
	Casual          phraseSet  `yaml:"casual"`
	Categories      []Category `yaml:"categories"`
	Urgency         struct {
		High []string `yaml:"high"`
		Low  []string `yaml:"low"`
	} `yaml:"urgency"`

	greetingRe []*regexp.Regexp
	casualRe   []*regexp.Regexp
	byName     map[string]int
}

// DefaultRules returns the built-in tables.
func DefaultRules() (*Rules, error) {
	return ParseRules(defaultRulesYAML)
}

// LoadRules reads tables from path, or returns the built-in ones when path
// is empty.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return DefaultRules()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read triage rules: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes and validates a YAML rule document.
func ParseRules(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse triage rules: %w", err)
	}
	if err := r.compile(); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *Rules) compile() error {
	if len(r.Categories) == 0 {
		return fmt.Errorf("triage rules: no categories")
	}
	r.byName = make(map[string]int, len(r.Categories))
	for i, c := range r.Categories {
		if c.Name == "" {
			return fmt.Errorf("triage rules: category %d has no name", i)
		}
		if _, dup := r.byName[c.Name]; dup {
			return fmt.Errorf("triage rules: duplicate category %q", c.Name)
		}
		r.byName[c.Name] = i
		lowerAll(c.Keywords)
	}
	lowerAll(r.Urgency.High)
	lowerAll(r.Urgency.Low)
	def, ok := r.byName[r.DefaultCategory]
	if !ok {
		return fmt.Errorf("triage rules: default category %q not in table", r.DefaultCategory)
	}
	if d := r.Categories[def]; len(d.Empathy) == 0 || len(d.FollowUps) == 0 {
		return fmt.Errorf("triage rules: default category %q needs empathy and follow_ups", r.DefaultCategory)
	}
	if len(r.Greetings.Responses) == 0 || len(r.Casual.Responses) == 0 {
		return fmt.Errorf("triage rules: greeting and casual responses are required")
	}

	var err error
	if r.greetingRe, err = compileAll(r.Greetings.Patterns); err != nil {
		return err
	}
	if r.casualRe, err = compileAll(r.Casual.Patterns); err != nil {
		return err
	}
	return nil
}

func lowerAll(words []string) {
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("triage rules: pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// lookup returns the named category, or the default category when name is
// unknown or the row lacks the requested field.
func (r *Rules) lookup(name string, has func(Category) bool) Category {
	if i, ok := r.byName[name]; ok && has(r.Categories[i]) {
		return r.Categories[i]
	}
	return r.Categories[r.byName[r.DefaultCategory]]
}

// FollowUps returns the clarifying questions for category, falling back to
// the default category's list.
func (r *Rules) FollowUps(category string) []string {
	c := r.lookup(category, func(c Category) bool { return len(c.FollowUps) > 0 })
	return append([]string(nil), c.FollowUps...)
}

// CategoryNames lists categories in table order.
func (r *Rules) CategoryNames() []string {
	out := make([]string, len(r.Categories))
	for i, c := range r.Categories {
		out[i] = c.Name
	}
	return out
}
