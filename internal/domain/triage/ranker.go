package triage

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/hms/internal/domain/identity"
)

// DoctorFinder returns up to limit doctors with the given specialization.
// An empty specialization matches any doctor; limit 0 means no limit.
type DoctorFinder interface {
	FindDoctors(ctx context.Context, specialization string, limit int) ([]identity.Doctor, error)
}

const (
	DefaultLimitPerCategory = 10
	DefaultTopN             = 3
)

type Ranker struct {
	finder           DoctorFinder
	logger           zerolog.Logger
	limitPerCategory int
	topN             int
}

type RankerOption func(*Ranker)

func WithLimitPerCategory(n int) RankerOption {
	return func(r *Ranker) { r.limitPerCategory = n }
}

func WithTopN(n int) RankerOption {
	return func(r *Ranker) { r.topN = n }
}

func NewRanker(finder DoctorFinder, logger zerolog.Logger, opts ...RankerOption) *Ranker {
	r := &Ranker{
		finder:           finder,
		logger:           logger,
		limitPerCategory: DefaultLimitPerCategory,
		topN:             DefaultTopN,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Rank returns the most experienced doctors across categories. When none of
// the categories yields a doctor it falls back to doctors of any
// specialization. Lookup failures are logged and count as empty results.
func (r *Ranker) Rank(ctx context.Context, categories []string) []identity.Doctor {
	var all []identity.Doctor
	for _, cat := range categories {
		all = append(all, r.fetch(ctx, cat)...)
	}
	if len(all) == 0 {
		all = append(all, r.fetch(ctx, "")...)
	}

	seen := make(map[uuid.UUID]bool, len(all))
	out := all[:0]
	for _, d := range all {
		if seen[d.ID] {
			continue
		}
		seen[d.ID] = true
		out = append(out, d)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ExperienceYears > out[j].ExperienceYears
	})
	if len(out) > r.topN {
		out = out[:r.topN]
	}
	return out
}

func (r *Ranker) fetch(ctx context.Context, category string) []identity.Doctor {
	docs, err := r.finder.FindDoctors(ctx, category, r.limitPerCategory)
	if err != nil {
		r.logger.Warn().Err(err).Str("specialization", category).Msg("doctor lookup failed")
		return nil
	}
	return docs
}
