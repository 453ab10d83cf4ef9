package documents

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/hms/internal/platform/auth"
	"github.com/carelink/hms/internal/platform/blobstore"
	"github.com/carelink/hms/internal/platform/db"
)

type fixture struct {
	svc   *Service
	repo  *MemoryRepository
	blobs *blobstore.MemoryStore
	owner auth.Principal
	other auth.Principal
	admin auth.Principal
}

func newFixture() *fixture {
	repo := NewMemoryRepository()
	blobs := blobstore.NewMemoryStore()
	return &fixture{
		svc:   NewService(repo, blobs, db.NoTx{}, zerolog.Nop()),
		repo:  repo,
		blobs: blobs,
		owner: auth.Principal{UserID: uuid.New(), Role: "doctor"},
		other: auth.Principal{UserID: uuid.New(), Role: "doctor"},
		admin: auth.Principal{UserID: uuid.New(), Role: "admin"},
	}
}

func (f *fixture) folder(t *testing.T, name string, p Privacy) *Folder {
	t.Helper()
	folder, err := f.svc.CreateFolder(context.Background(), f.owner, FolderRequest{Name: name, Privacy: p})
	if err != nil {
		t.Fatal(err)
	}
	return folder
}

func (f *fixture) upload(t *testing.T, caller auth.Principal, folderID *uuid.UUID, name string) *Document {
	t.Helper()
	d, err := f.svc.Upload(context.Background(), caller, UploadRequest{
		FolderID: folderID, FileName: name, ContentType: "text/plain", Content: strings.NewReader("notes"),
	})
	if err != nil {
		t.Fatalf("upload %s: %v", name, err)
	}
	return d
}

func TestCreateFolder_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	if _, err := f.svc.CreateFolder(ctx, f.owner, FolderRequest{Name: "  "}); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for blank name, got %v", err)
	}
	if _, err := f.svc.CreateFolder(ctx, f.owner, FolderRequest{Name: "x", Privacy: "shared"}); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for unknown privacy, got %v", err)
	}
	folder, err := f.svc.CreateFolder(ctx, f.owner, FolderRequest{Name: " Labs "})
	if err != nil {
		t.Fatal(err)
	}
	if folder.Name != "Labs" || folder.Privacy != PrivacyPrivate || folder.OwnerID != f.owner.UserID {
		t.Errorf("unexpected folder %+v", folder)
	}
}

func TestListFolders_GlobalAndOwnPrivate(t *testing.T) {
	f := newFixture()
	f.folder(t, "b-shared", PrivacyGlobal)
	f.folder(t, "a-mine", PrivacyPrivate)

	mine, _ := f.svc.ListFolders(context.Background(), f.owner)
	if len(mine) != 2 || mine[0].Name != "a-mine" {
		t.Errorf("owner: unexpected folders %+v", mine)
	}
	theirs, _ := f.svc.ListFolders(context.Background(), f.other)
	if len(theirs) != 1 || theirs[0].Name != "b-shared" {
		t.Errorf("other: unexpected folders %+v", theirs)
	}
}

func TestFolderAccessMatrix(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		privacy Privacy
		caller  func(f *fixture) auth.Principal
		read    error
		upload  error
		manage  error
	}{
		{"owner private", PrivacyPrivate, func(f *fixture) auth.Principal { return f.owner }, nil, nil, nil},
		{"other private", PrivacyPrivate, func(f *fixture) auth.Principal { return f.other }, ErrNotFound, ErrNotFound, ErrNotFound},
		{"owner global", PrivacyGlobal, func(f *fixture) auth.Principal { return f.owner }, nil, nil, nil},
		{"other global", PrivacyGlobal, func(f *fixture) auth.Principal { return f.other }, nil, ErrForbidden, ErrForbidden},
		{"admin private", PrivacyPrivate, func(f *fixture) auth.Principal { return f.admin }, ErrNotFound, ErrNotFound, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			folder := f.folder(t, "records", tt.privacy)
			caller := tt.caller(f)

			if _, err := f.svc.List(ctx, caller, &folder.ID); !errors.Is(err, tt.read) {
				t.Errorf("list: got %v, want %v", err, tt.read)
			}
			_, err := f.svc.Upload(ctx, caller, UploadRequest{
				FolderID: &folder.ID, FileName: "a.txt", ContentType: "text/plain", Content: strings.NewReader("x"),
			})
			if !errors.Is(err, tt.upload) {
				t.Errorf("upload: got %v, want %v", err, tt.upload)
			}
			if _, err := f.svc.RenameFolder(ctx, caller, folder.ID, "renamed"); !errors.Is(err, tt.manage) {
				t.Errorf("rename: got %v, want %v", err, tt.manage)
			}
		})
	}
}

func TestSetPrivacy_HidesFolder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	folder := f.folder(t, "shared", PrivacyGlobal)
	d := f.upload(t, f.owner, &folder.ID, "plan.txt")

	if _, err := f.svc.Get(ctx, f.other, d.ID); err != nil {
		t.Fatalf("global document should be readable: %v", err)
	}
	if _, err := f.svc.SetPrivacy(ctx, f.owner, folder.ID, PrivacyPrivate); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Get(ctx, f.other, d.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after making private, got %v", err)
	}
	if _, err := f.svc.SetPrivacy(ctx, f.owner, folder.ID, "public"); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestRootDocumentsBelongToOwner(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	d := f.upload(t, f.owner, nil, "cv.txt")

	root, _ := f.svc.List(ctx, f.owner, nil)
	if len(root) != 1 || root[0].ID != d.ID {
		t.Errorf("unexpected root listing %+v", root)
	}
	if other, _ := f.svc.List(ctx, f.other, nil); len(other) != 0 {
		t.Errorf("other user must not see root documents, got %d", len(other))
	}
	if _, _, err := f.svc.Download(ctx, f.other, d.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if d.URL != "/api/v1/documents/"+d.ID.String()+"/file" {
		t.Errorf("unexpected url %s", d.URL)
	}
}

func TestDownload(t *testing.T) {
	f := newFixture()
	d := f.upload(t, f.owner, nil, "notes.txt")
	rc, meta, err := f.svc.Download(context.Background(), f.owner, d.ID)
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "notes" || meta.FileName != "notes.txt" {
		t.Errorf("unexpected download %q %+v", data, meta)
	}
}

func TestDeleteDocument(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	folder := f.folder(t, "shared", PrivacyGlobal)
	d := f.upload(t, f.owner, &folder.ID, "a.txt")

	if err := f.svc.Delete(ctx, f.other, d.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for non-owner, got %v", err)
	}
	if err := f.svc.Delete(ctx, f.admin, d.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if f.blobs.Len() != 0 {
		t.Errorf("expected blob removed, %d left", f.blobs.Len())
	}
	if err := f.svc.Delete(ctx, f.owner, d.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteFolder_Cascades(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	folder := f.folder(t, "old", PrivacyPrivate)
	f.upload(t, f.owner, &folder.ID, "a.txt")
	f.upload(t, f.owner, &folder.ID, "b.txt")
	keep := f.upload(t, f.owner, nil, "keep.txt")

	if err := f.svc.DeleteFolder(ctx, f.other, folder.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for other user, got %v", err)
	}
	if err := f.svc.DeleteFolder(ctx, f.owner, folder.ID); err != nil {
		t.Fatal(err)
	}
	if f.repo.DocumentCount() != 1 || f.blobs.Len() != 1 {
		t.Errorf("expected only the root document left, got %d docs %d blobs", f.repo.DocumentCount(), f.blobs.Len())
	}
	if _, err := f.svc.Get(ctx, f.owner, keep.ID); err != nil {
		t.Errorf("root document should survive: %v", err)
	}
	if _, err := f.svc.GetFolder(ctx, f.owner, folder.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected folder gone, got %v", err)
	}
}

func TestUpload_RejectedTypeLeavesNothing(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Upload(context.Background(), f.owner, UploadRequest{
		FileName: "movie.mp4", ContentType: "video/mp4", Content: strings.NewReader("x"),
	})
	if !errors.Is(err, blobstore.ErrInvalidContentType) {
		t.Errorf("expected ErrInvalidContentType, got %v", err)
	}
	if f.repo.DocumentCount() != 0 || f.blobs.Len() != 0 {
		t.Error("expected nothing stored")
	}
}
