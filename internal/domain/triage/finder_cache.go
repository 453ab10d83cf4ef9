package triage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/carelink/hms/internal/domain/identity"
	"github.com/carelink/hms/internal/platform/cache"
)

// CachedFinder serves doctor lookups from a cache, falling through to the
// wrapped finder on a miss or a cache error.
type CachedFinder struct {
	next   DoctorFinder
	cache  cache.Cache
	ttl    time.Duration
	logger zerolog.Logger
}

func NewCachedFinder(next DoctorFinder, c cache.Cache, ttl time.Duration, logger zerolog.Logger) *CachedFinder {
	return &CachedFinder{next: next, cache: c, ttl: ttl, logger: logger}
}

func doctorsKey(specialization string, limit int) string {
	return fmt.Sprintf("doctors:%s:%d", specialization, limit)
}

func (f *CachedFinder) FindDoctors(ctx context.Context, specialization string, limit int) ([]identity.Doctor, error) {
	key := doctorsKey(specialization, limit)
	raw, ok, err := f.cache.Get(ctx, key)
	if err != nil {
		f.logger.Warn().Err(err).Str("key", key).Msg("doctor cache read failed")
	}
	if ok {
		var docs []identity.Doctor
		if err := json.Unmarshal(raw, &docs); err == nil {
			return docs, nil
		}
		f.logger.Warn().Str("key", key).Msg("discarding corrupt doctor cache entry")
	}

	docs, err := f.next.FindDoctors(ctx, specialization, limit)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(docs); err == nil {
		if err := f.cache.Set(ctx, key, raw, f.ttl); err != nil {
			f.logger.Warn().Err(err).Str("key", key).Msg("doctor cache write failed")
		}
	}
	return docs, nil
}
