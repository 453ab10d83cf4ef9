package identity

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/hms/pkg/pagination"
)

// MemoryRepository is an in-process Repository. Iteration follows creation
// order, matching the created_at ordering of the Postgres implementation.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*Account
	order []uuid.UUID
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[uuid.UUID]*Account)}
}

func (r *MemoryRepository) Create(_ context.Context, a *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if _, ok := r.items[a.ID]; ok {
		return ErrConflict
	}
	for _, existing := range r.items {
		if existing.Email == a.Email {
			return ErrConflict
		}
	}
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	cp := *a
	r.items[a.ID] = &cp
	r.order = append(r.order, a.ID)
	return nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *MemoryRepository) Update(_ context.Context, a *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[a.ID]; !ok {
		return ErrNotFound
	}
	a.UpdatedAt = time.Now().UTC()
	cp := *a
	r.items[a.ID] = &cp
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemoryRepository) all() []*Account {
	out := make([]*Account, 0, len(r.order))
	for _, id := range r.order {
		cp := *r.items[id]
		out = append(out, &cp)
	}
	return out
}

func (r *MemoryRepository) List(_ context.Context, role Role, limit, offset int) ([]*Account, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []*Account
	for _, a := range r.all() {
		if role == "" || a.Role == role {
			matched = append(matched, a)
		}
	}
	return pagination.Slice(matched, limit, offset), len(matched), nil
}

func (r *MemoryRepository) ListAll(_ context.Context) ([]*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.all(), nil
}

func (r *MemoryRepository) FindDoctors(_ context.Context, specialization string, limit int) ([]Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Doctor
	for _, a := range r.all() {
		d, ok := a.AsDoctor()
		if !ok || (specialization != "" && d.Specialization != specialization) {
			continue
		}
		out = append(out, d)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *MemoryRepository) ListDoctors(ctx context.Context) ([]Doctor, error) {
	return r.FindDoctors(ctx, "", 0)
}

// sortByExperience orders doctors by experience, most experienced first,
// keeping the input order of equals.
func sortByExperience(docs []Doctor) {
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].ExperienceYears > docs[j].ExperienceYears
	})
}
