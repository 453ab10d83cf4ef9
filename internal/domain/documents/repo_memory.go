package documents

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-process Repository.
type MemoryRepository struct {
	mu      sync.RWMutex
	folders map[uuid.UUID]*Folder
	docs    []*Document
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{folders: make(map[uuid.UUID]*Folder)}
}

func (m *MemoryRepository) CreateFolder(_ context.Context, f *Folder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	f.CreatedAt = time.Now().UTC()
	cp := *f
	m.folders[f.ID] = &cp
	return nil
}

func (m *MemoryRepository) GetFolder(_ context.Context, id uuid.UUID) (*Folder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.folders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (m *MemoryRepository) UpdateFolder(_ context.Context, f *Folder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.folders[f.ID]; !ok {
		return ErrNotFound
	}
	cp := *f
	m.folders[f.ID] = &cp
	return nil
}

func (m *MemoryRepository) DeleteFolder(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.folders[id]; !ok {
		return ErrNotFound
	}
	delete(m.folders, id)
	kept := m.docs[:0]
	for _, d := range m.docs {
		if d.FolderID == nil || *d.FolderID != id {
			kept = append(kept, d)
		}
	}
	m.docs = kept
	return nil
}

func (m *MemoryRepository) ListFolders(_ context.Context, ownerID uuid.UUID) ([]*Folder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Folder
	for _, f := range m.folders {
		if canRead(ownerID, f) {
			cp := *f
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (m *MemoryRepository) CreateDocument(_ context.Context, d *Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.CreatedAt = time.Now().UTC()
	cp := *d
	m.docs = append(m.docs, &cp)
	return nil
}

func (m *MemoryRepository) GetDocument(_ context.Context, id uuid.UUID) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.docs {
		if d.ID == id {
			cp := *d
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryRepository) DeleteDocument(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, d := range m.docs {
		if d.ID == id {
			m.docs = append(m.docs[:i], m.docs[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryRepository) collect(match func(*Document) bool) []*Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Document
	for i := len(m.docs) - 1; i >= 0; i-- {
		if d := m.docs[i]; match(d) {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out
}

func (m *MemoryRepository) ListInFolder(_ context.Context, folderID uuid.UUID) ([]*Document, error) {
	return m.collect(func(d *Document) bool {
		return d.FolderID != nil && *d.FolderID == folderID
	}), nil
}

func (m *MemoryRepository) ListRoot(_ context.Context, ownerID uuid.UUID) ([]*Document, error) {
	return m.collect(func(d *Document) bool {
		return d.FolderID == nil && d.OwnerID == ownerID
	}), nil
}

// DocumentCount reports the number of stored documents.
func (m *MemoryRepository) DocumentCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}
