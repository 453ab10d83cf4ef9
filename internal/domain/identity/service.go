package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/hms/internal/platform/auth"
)

// Notifier receives the registration event. Implementations must not fail
// the registration; they log their own errors.
type Notifier interface {
	UserRegistered(ctx context.Context, u User, adminIDs []uuid.UUID)
}

type Service struct {
	repo     Repository
	notifier Notifier
	logger   zerolog.Logger
}

func NewService(repo Repository, notifier Notifier, logger zerolog.Logger) *Service {
	return &Service{repo: repo, notifier: notifier, logger: logger}
}

// Register creates the caller's own account. Self-registration is limited to
// the patient and doctor roles and the account ID is the caller's subject;
// admins may create accounts of any role for anyone.
func (s *Service) Register(ctx context.Context, caller auth.Principal, a *Account) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if !caller.IsAdmin() {
		if a.Role == RoleAdmin {
			return fmt.Errorf("%w: cannot self-register as admin", ErrForbidden)
		}
		a.ID = caller.UserID
	}
	a.Email = strings.TrimSpace(strings.ToLower(a.Email))

	if err := s.repo.Create(ctx, a); err != nil {
		return err
	}

	s.notifier.UserRegistered(ctx, a.User, s.adminIDs(ctx))
	return nil
}

func (s *Service) adminIDs(ctx context.Context) []uuid.UUID {
	var ids []uuid.UUID
	offset := 0
	for {
		admins, total, err := s.repo.List(ctx, RoleAdmin, 100, offset)
		if err != nil {
			s.logger.Error().Err(err).Msg("list admins for registration notice")
			return ids
		}
		for _, a := range admins {
			ids = append(ids, a.ID)
		}
		offset += len(admins)
		if len(admins) == 0 || offset >= total {
			return ids
		}
	}
}

// canView: patient records are visible to the patient, doctors and admins;
// doctor and admin records to every authenticated user.
func canView(caller auth.Principal, a *Account) bool {
	if a.Role != RolePatient {
		return true
	}
	return caller.IsAdmin() || caller.Role == string(RoleDoctor) || caller.UserID == a.ID
}

func (s *Service) Get(ctx context.Context, caller auth.Principal, id uuid.UUID) (*Account, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(caller, a) {
		return nil, ErrNotFound
	}
	return a, nil
}

// ProfileUpdate is a partial edit of an account. Nil fields are unchanged.
// Role, when present, must equal the stored role.
type ProfileUpdate struct {
	Name    *string         `json:"name"`
	Email   *string         `json:"email"`
	Phone   *string         `json:"phone"`
	Role    Role            `json:"role"`
	Profile json.RawMessage `json:"profile"`
}

// UpdateProfile applies upd to the account. The role itself cannot change.
func (s *Service) UpdateProfile(ctx context.Context, caller auth.Principal, id uuid.UUID, upd ProfileUpdate) (*Account, error) {
	if !caller.IsAdmin() && caller.UserID != id {
		return nil, ErrForbidden
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Role != "" && upd.Role != a.Role {
		return nil, invalidf("role cannot be changed")
	}
	if upd.Name != nil {
		a.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Email != nil {
		a.Email = strings.TrimSpace(strings.ToLower(*upd.Email))
	}
	if upd.Phone != nil {
		a.Phone = upd.Phone
	}
	if len(upd.Profile) > 0 {
		p, err := decodeProfile(a.Role, upd.Profile)
		if err != nil {
			return nil, invalidf("invalid profile: %v", err)
		}
		a.Profile = p
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, role Role, limit, offset int) ([]*Account, int, error) {
	if role != "" && !role.Valid() {
		return nil, 0, invalidf("invalid role: %q", role)
	}
	return s.repo.List(ctx, role, limit, offset)
}

// ListDoctors returns every doctor, most experienced first.
func (s *Service) ListDoctors(ctx context.Context) ([]Doctor, error) {
	docs, err := s.repo.ListDoctors(ctx)
	if err != nil {
		return nil, err
	}
	sortByExperience(docs)
	return docs, nil
}

// SearchDoctors matches term case-insensitively against name and
// specialization. An empty term returns every doctor.
func (s *Service) SearchDoctors(ctx context.Context, term string) ([]Doctor, error) {
	docs, err := s.ListDoctors(ctx)
	if err != nil {
		return nil, err
	}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return docs, nil
	}
	out := docs[:0:0]
	for _, d := range docs {
		if strings.Contains(strings.ToLower(d.Name), term) ||
			strings.Contains(strings.ToLower(d.Specialization), term) {
			out = append(out, d)
		}
	}
	return out, nil
}

// FindDoctors exposes the specialization lookup used by ranking.
func (s *Service) FindDoctors(ctx context.Context, specialization string, limit int) ([]Doctor, error) {
	return s.repo.FindDoctors(ctx, specialization, limit)
}
