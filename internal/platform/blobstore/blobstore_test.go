package blobstore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestMemoryStore_PutGetDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	owner := uuid.New()

	meta, err := s.Put(ctx, Metadata{FileName: "xray.pdf", ContentType: "application/pdf", OwnerID: owner}, strings.NewReader("%PDF-1.4 test"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if meta.ID == uuid.Nil || meta.Size != int64(len("%PDF-1.4 test")) || len(meta.SHA256) != 64 {
		t.Errorf("unexpected metadata: %+v", meta)
	}

	rc, got, err := s.Get(ctx, meta.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	rc.Close()
	if string(body) != "%PDF-1.4 test" || got.OwnerID != owner {
		t.Errorf("unexpected content %q / meta %+v", body, got)
	}

	if err := s.Delete(ctx, meta.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Stat(ctx, meta.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete(ctx, meta.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestMemoryStore_Validation(t *testing.T) {
	s := NewMemoryStore()
	tests := []struct {
		name string
		meta Metadata
		size int
		want error
	}{
		{"missing name", Metadata{ContentType: "application/pdf"}, 1, ErrMissingFileName},
		{"bad content type", Metadata{FileName: "a.exe", ContentType: "application/x-msdownload"}, 1, ErrInvalidContentType},
		{"too large", Metadata{FileName: "big.pdf", ContentType: "application/pdf"}, MaxFileSize + 1, ErrFileTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Put(context.Background(), tt.meta, strings.NewReader(strings.Repeat("x", tt.size)))
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
	if s.Len() != 0 {
		t.Errorf("expected nothing stored, got %d", s.Len())
	}
}
