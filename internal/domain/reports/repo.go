package reports

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("medical report not found")
	ErrForbidden = errors.New("not allowed")
	ErrInvalid   = errors.New("invalid input")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...)
}

type Repository interface {
	Create(ctx context.Context, r *MedicalReport) error
	GetByID(ctx context.Context, id uuid.UUID) (*MedicalReport, error)
	Update(ctx context.Context, r *MedicalReport) error
	Delete(ctx context.Context, id uuid.UUID) error
	// List orders newest first. limit 0 returns every match.
	List(ctx context.Context, f Filter, limit, offset int) ([]*MedicalReport, int, error)
}
