package scheduling

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("appointment not found")
	ErrForbidden         = errors.New("not allowed")
	ErrInvalid           = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid status transition")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...)
}

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// UpdateStatus sets the status only if the stored status equals from,
	// returning ErrInvalidTransition otherwise.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, notes *string) (*Appointment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// List orders by date and time, most recent first.
	List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error)
	Count(ctx context.Context, f Filter) (int, error)
}
