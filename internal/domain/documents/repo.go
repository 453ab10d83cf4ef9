package documents

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("not allowed")
	ErrInvalid   = errors.New("invalid input")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...)
}

type Repository interface {
	CreateFolder(ctx context.Context, f *Folder) error
	GetFolder(ctx context.Context, id uuid.UUID) (*Folder, error)
	UpdateFolder(ctx context.Context, f *Folder) error
	// DeleteFolder removes the folder and every document in it.
	DeleteFolder(ctx context.Context, id uuid.UUID) error
	// ListFolders returns global folders plus the private folders of ownerID,
	// ordered by name.
	ListFolders(ctx context.Context, ownerID uuid.UUID) ([]*Folder, error)

	CreateDocument(ctx context.Context, d *Document) error
	GetDocument(ctx context.Context, id uuid.UUID) (*Document, error)
	DeleteDocument(ctx context.Context, id uuid.UUID) error
	// ListInFolder returns the documents of a folder, newest first.
	ListInFolder(ctx context.Context, folderID uuid.UUID) ([]*Document, error)
	// ListRoot returns ownerID's documents outside any folder, newest first.
	ListRoot(ctx context.Context, ownerID uuid.UUID) ([]*Document, error)
}
