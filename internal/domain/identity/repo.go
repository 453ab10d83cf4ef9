package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrConflict  = errors.New("user already exists")
	ErrForbidden = errors.New("not allowed")
)

type Repository interface {
	Create(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	Update(ctx context.Context, a *Account) error
	Delete(ctx context.Context, id uuid.UUID) error
	// List returns accounts of role, or of every role when role is empty.
	List(ctx context.Context, role Role, limit, offset int) ([]*Account, int, error)
	// ListAll returns every account. Used for recipient enumeration.
	ListAll(ctx context.Context) ([]*Account, error)
	// FindDoctors returns up to limit doctors with the given specialization,
	// or of any specialization when it is empty.
	FindDoctors(ctx context.Context, specialization string, limit int) ([]Doctor, error)
	// ListDoctors returns all doctors.
	ListDoctors(ctx context.Context) ([]Doctor, error)
}

// ErrInvalid wraps input validation failures.
var ErrInvalid = errors.New("invalid input")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...)
}
