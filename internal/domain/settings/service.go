package settings

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/carelink/hms/internal/platform/auth"
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Get returns the saved configuration, or Defaults before the first save.
func (s *Service) Get(ctx context.Context) (*HospitalConfig, error) {
	c, err := s.repo.Get(ctx)
	if errors.Is(err, ErrNotFound) {
		d := Defaults()
		return &d, nil
	}
	return c, err
}

// Update replaces the configuration. Admin only.
func (s *Service) Update(ctx context.Context, caller auth.Principal, c HospitalConfig) (*HospitalConfig, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	if err := c.normalize(); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, &c); err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", caller.UserID.String()).Msg("hospital settings updated")
	return &c, nil
}

// HospitalName returns the configured name, falling back to the default
// when settings cannot be read.
func (s *Service) HospitalName(ctx context.Context) string {
	c, err := s.Get(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("read hospital settings")
		return DefaultHospitalName
	}
	return c.Name
}
