package documents

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/hms/internal/platform/auth"
	"github.com/carelink/hms/internal/platform/blobstore"
	"github.com/carelink/hms/internal/platform/db"
)

type Service struct {
	repo   Repository
	blobs  blobstore.Store
	tx     db.TxRunner
	logger zerolog.Logger
}

func NewService(repo Repository, blobs blobstore.Store, tx db.TxRunner, logger zerolog.Logger) *Service {
	return &Service{repo: repo, blobs: blobs, tx: tx, logger: logger}
}

// =========== Folders ===========

func (s *Service) CreateFolder(ctx context.Context, caller auth.Principal, req FolderRequest) (*Folder, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	f := &Folder{Name: req.Name, OwnerID: caller.UserID, Privacy: req.Privacy}
	if err := s.repo.CreateFolder(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// ListFolders returns every global folder and the caller's private ones.
func (s *Service) ListFolders(ctx context.Context, caller auth.Principal) ([]*Folder, error) {
	return s.repo.ListFolders(ctx, caller.UserID)
}

// folder loads a folder the caller may read.
func (s *Service) folder(ctx context.Context, caller auth.Principal, id uuid.UUID) (*Folder, error) {
	f, err := s.repo.GetFolder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canRead(caller.UserID, f) {
		return nil, ErrNotFound
	}
	return f, nil
}

// managedFolder loads a folder the caller may rename, re-share or delete:
// its owner or an admin.
func (s *Service) managedFolder(ctx context.Context, caller auth.Principal, id uuid.UUID) (*Folder, error) {
	f, err := s.repo.GetFolder(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.IsAdmin() || f.OwnerID == caller.UserID {
		return f, nil
	}
	if canRead(caller.UserID, f) {
		return nil, ErrForbidden
	}
	return nil, ErrNotFound
}

func (s *Service) GetFolder(ctx context.Context, caller auth.Principal, id uuid.UUID) (*Folder, error) {
	return s.folder(ctx, caller, id)
}

func (s *Service) RenameFolder(ctx context.Context, caller auth.Principal, id uuid.UUID, name string) (*Folder, error) {
	f, err := s.managedFolder(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	req := FolderRequest{Name: name, Privacy: f.Privacy}
	if err := req.validate(); err != nil {
		return nil, err
	}
	f.Name = req.Name
	if err := s.repo.UpdateFolder(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Service) SetPrivacy(ctx context.Context, caller auth.Principal, id uuid.UUID, p Privacy) (*Folder, error) {
	if !p.Valid() {
		return nil, invalidf("privacy must be private or global")
	}
	f, err := s.managedFolder(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	f.Privacy = p
	if err := s.repo.UpdateFolder(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// DeleteFolder removes the folder with its documents, then their files.
// File removal failures are logged; the records are already gone.
func (s *Service) DeleteFolder(ctx context.Context, caller auth.Principal, id uuid.UUID) error {
	var docs []*Document
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.managedFolder(ctx, caller, id); err != nil {
			return err
		}
		var err error
		if docs, err = s.repo.ListInFolder(ctx, id); err != nil {
			return err
		}
		return s.repo.DeleteFolder(ctx, id)
	})
	if err != nil {
		return err
	}
	for _, d := range docs {
		s.removeBlob(ctx, d)
	}
	return nil
}

// =========== Documents ===========

type UploadRequest struct {
	FolderID    *uuid.UUID
	FileName    string
	ContentType string
	Content     io.Reader
}

// Upload stores a file in one of the caller's folders, or at the caller's
// root when FolderID is nil.
func (s *Service) Upload(ctx context.Context, caller auth.Principal, req UploadRequest) (*Document, error) {
	if req.FolderID != nil {
		f, err := s.folder(ctx, caller, *req.FolderID)
		if err != nil {
			return nil, err
		}
		if f.OwnerID != caller.UserID {
			return nil, fmt.Errorf("%w: only the folder owner can upload", ErrForbidden)
		}
	}
	meta, err := s.blobs.Put(ctx, blobstore.Metadata{
		FileName:    req.FileName,
		ContentType: req.ContentType,
		OwnerID:     caller.UserID,
	}, req.Content)
	if err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}
	d := &Document{
		ID:          uuid.New(),
		OwnerID:     caller.UserID,
		FolderID:    req.FolderID,
		Name:        meta.FileName,
		ContentType: meta.ContentType,
		Size:        meta.Size,
		BlobID:      meta.ID,
	}
	d.URL = fmt.Sprintf("/api/v1/documents/%s/file", d.ID)
	if err := s.repo.CreateDocument(ctx, d); err != nil {
		s.removeBlob(ctx, d)
		return nil, err
	}
	return d, nil
}

// List returns the documents of a readable folder, or the caller's root
// documents when folderID is nil.
func (s *Service) List(ctx context.Context, caller auth.Principal, folderID *uuid.UUID) ([]*Document, error) {
	if folderID == nil {
		return s.repo.ListRoot(ctx, caller.UserID)
	}
	if _, err := s.folder(ctx, caller, *folderID); err != nil {
		return nil, err
	}
	return s.repo.ListInFolder(ctx, *folderID)
}

// document loads a document the caller may read.
func (s *Service) document(ctx context.Context, caller auth.Principal, id uuid.UUID) (*Document, error) {
	d, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.FolderID == nil {
		if d.OwnerID != caller.UserID {
			return nil, ErrNotFound
		}
		return d, nil
	}
	if _, err := s.folder(ctx, caller, *d.FolderID); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) Get(ctx context.Context, caller auth.Principal, id uuid.UUID) (*Document, error) {
	return s.document(ctx, caller, id)
}

func (s *Service) Download(ctx context.Context, caller auth.Principal, id uuid.UUID) (io.ReadCloser, *blobstore.Metadata, error) {
	d, err := s.document(ctx, caller, id)
	if err != nil {
		return nil, nil, err
	}
	rc, meta, err := s.blobs.Get(ctx, d.BlobID)
	if errors.Is(err, blobstore.ErrNotFound) {
		return nil, nil, ErrNotFound
	}
	return rc, meta, err
}

// Delete removes a document. Allowed for its owner and admins.
func (s *Service) Delete(ctx context.Context, caller auth.Principal, id uuid.UUID) error {
	d, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	if !caller.IsAdmin() && d.OwnerID != caller.UserID {
		if _, err := s.document(ctx, caller, id); err != nil {
			return err
		}
		return ErrForbidden
	}
	if err := s.repo.DeleteDocument(ctx, id); err != nil {
		return err
	}
	s.removeBlob(ctx, d)
	return nil
}

func (s *Service) removeBlob(ctx context.Context, d *Document) {
	if err := s.blobs.Delete(ctx, d.BlobID); err != nil && !errors.Is(err, blobstore.ErrNotFound) {
		s.logger.Error().Err(err).
			Str("document_id", d.ID.String()).
			Str("blob_id", d.BlobID.String()).
			Msg("orphaned document blob")
	}
}
