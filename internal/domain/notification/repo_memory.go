package notification

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
	items []*Notification
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (m *MemoryRepository) Create(_ context.Context, n *Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	for _, existing := range m.items {
		if existing.ID == n.ID {
			return nil
		}
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	cp := *n
	m.items = append(m.items, &cp)
	return nil
}

func (m *MemoryRepository) find(userID, id uuid.UUID) (int, bool) {
	for i, n := range m.items {
		if n.ID == id && n.UserID == userID {
			return i, true
		}
	}
	return 0, false
}

func (m *MemoryRepository) List(_ context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*Notification, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Notification
	for i := len(m.items) - 1; i >= 0; i-- {
		n := m.items[i]
		if n.UserID != userID || (unreadOnly && n.Read) {
			continue
		}
		cp := *n
		out = append(out, &cp)
	}
	return pagination.Slice(out, limit, offset), len(out), nil
}

func (m *MemoryRepository) CountUnread(_ context.Context, userID uuid.UUID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, n := range m.items {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (m *MemoryRepository) MarkRead(_ context.Context, userID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.find(userID, id)
	if !ok {
		return ErrNotFound
	}
	m.items[i].Read = true
	return nil
}

func (m *MemoryRepository) MarkAllRead(_ context.Context, userID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, n := range m.items {
		if n.UserID == userID && !n.Read {
			n.Read = true
			count++
		}
	}
	return count, nil
}

func (m *MemoryRepository) Delete(_ context.Context, userID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.find(userID, id)
	if !ok {
		return ErrNotFound
	}
	m.items = append(m.items[:i], m.items[i+1:]...)
	return nil
}

// All returns every stored record in creation order.
func (m *MemoryRepository) All() []Notification {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Notification, len(m.items))
	for i, n := range m.items {
		out[i] = *n
	}
	return out
}
