package triage

import (
	"context"

	"github.com/carelink/hms/internal/domain/identity"
)

// Consultation is the reply to a patient message: the analysis plus, for
// medical messages, follow-up questions and suggested doctors.
type Consultation struct {
	Analysis
	FollowUps []string          `json:"follow_ups"`
	Doctors   []identity.Doctor `json:"doctors"`
}

type Service struct {
	classifier *Classifier
	ranker     *Ranker
}

func NewService(classifier *Classifier, ranker *Ranker) *Service {
	return &Service{classifier: classifier, ranker: ranker}
}

func (s *Service) Analyze(ctx context.Context, text string) Consultation {
	a := s.classifier.Classify(text)
	out := Consultation{Analysis: a, FollowUps: []string{}, Doctors: []identity.Doctor{}}
	if a.Kind != KindMedical {
		return out
	}
	out.FollowUps = s.classifier.Rules().FollowUps(a.Category)
	if docs := s.ranker.Rank(ctx, []string{a.Category}); len(docs) > 0 {
		out.Doctors = docs
	}
	return out
}

func (s *Service) FollowUps(category string) []string {
	return s.classifier.Rules().FollowUps(category)
}

func (s *Service) Categories() []string {
	return s.classifier.Rules().CategoryNames()
}

func (s *Service) Rank(ctx context.Context, categories []string) []identity.Doctor {
	return s.ranker.Rank(ctx, categories)
}
