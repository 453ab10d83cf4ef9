package reports

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/hms/pkg/pagination"
)

// MemoryRepository is an in-process Repository.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*MedicalReport
	order []uuid.UUID
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[uuid.UUID]*MedicalReport)}
}

func (m *MemoryRepository) Create(_ context.Context, r *MedicalReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	now := time.Now().UTC()
	r.CreatedAt, r.UpdatedAt = now, now
	cp := *r
	m.items[r.ID] = &cp
	m.order = append(m.order, r.ID)
	return nil
}

func (m *MemoryRepository) GetByID(_ context.Context, id uuid.UUID) (*MedicalReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MemoryRepository) Update(_ context.Context, r *MedicalReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[r.ID]; !ok {
		return ErrNotFound
	}
	r.UpdatedAt = time.Now().UTC()
	cp := *r
	m.items[r.ID] = &cp
	return nil
}

func (m *MemoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryRepository) List(_ context.Context, f Filter, limit, offset int) ([]*MedicalReport, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*MedicalReport
	for i := len(m.order) - 1; i >= 0; i-- {
		r := m.items[m.order[i]]
		if f.match(r) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return pagination.Slice(out, limit, offset), len(out), nil
}
