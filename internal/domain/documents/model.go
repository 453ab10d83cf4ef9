package documents

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Privacy string

const (
	PrivacyPrivate Privacy = "private"
	PrivacyGlobal  Privacy = "global"
)

func (p Privacy) Valid() bool {
	return p == PrivacyPrivate || p == PrivacyGlobal
}

// Folder groups documents. Global folders are readable by every
// authenticated user; private folders only by their owner.
type Folder struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Privacy   Privacy   `json:"privacy"`
	CreatedAt time.Time `json:"created_at"`
}

// Document is a stored file. A nil FolderID places it at the owner's root.
type Document struct {
	ID          uuid.UUID  `json:"id"`
	OwnerID     uuid.UUID  `json:"owner_id"`
	FolderID    *uuid.UUID `json:"folder_id,omitempty"`
	Name        string     `json:"name"`
	URL         string     `json:"url"`
	ContentType string     `json:"content_type"`
	Size        int64      `json:"size"`
	BlobID      uuid.UUID  `json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
}

type FolderRequest struct {
	Name    string  `json:"name"`
	Privacy Privacy `json:"privacy"`
}

func (r *FolderRequest) validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return invalidf("folder name is required")
	}
	if len(r.Name) > 120 {
		return invalidf("folder name must be at most 120 characters")
	}
	if r.Privacy == "" {
		r.Privacy = PrivacyPrivate
	}
	if !r.Privacy.Valid() {
		return invalidf("privacy must be private or global")
	}
	return nil
}

func canRead(callerID uuid.UUID, f *Folder) bool {
	return f.Privacy == PrivacyGlobal || f.OwnerID == callerID
}
