package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carelink/hms/internal/platform/db"
)

var (
	ErrNotFound  = errors.New("settings not found")
	ErrForbidden = errors.New("not allowed")
	ErrInvalid   = errors.New("invalid input")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...)
}

type Repository interface {
	// Get returns ErrNotFound until the first Save.
	Get(ctx context.Context) (*HospitalConfig, error)
	Save(ctx context.Context, c *HospitalConfig) error
}

const hospitalKey = "hospital"

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type queryable interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *repoPG) Get(ctx context.Context) (*HospitalConfig, error) {
	var raw []byte
	var updated time.Time
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT value, updated_at FROM settings WHERE key = $1`, hospitalKey).Scan(&raw, &updated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var c HospitalConfig
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode hospital settings: %w", err)
	}
	c.UpdatedAt = updated
	return &c, nil
}

func (r *repoPG) Save(ctx context.Context, c *HospitalConfig) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
		RETURNING updated_at`, hospitalKey, raw).Scan(&c.UpdatedAt)
}

// MemoryRepository is an in-process Repository.
type MemoryRepository struct {
	mu  sync.RWMutex
	cfg *HospitalConfig
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (m *MemoryRepository) Get(context.Context) (*HospitalConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cfg == nil {
		return nil, ErrNotFound
	}
	cp := *m.cfg
	cp.Departments = append([]string(nil), m.cfg.Departments...)
	return &cp, nil
}

func (m *MemoryRepository) Save(_ context.Context, c *HospitalConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.UpdatedAt = time.Now().UTC()
	cp := *c
	cp.Departments = append([]string(nil), c.Departments...)
	m.cfg = &cp
	return nil
}
