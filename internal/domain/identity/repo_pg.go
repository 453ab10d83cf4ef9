package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carelink/hms/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const userCols = `id, email, role, name, phone, profile, created_at, updated_at`

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	var raw []byte
	if err := row.Scan(&a.ID, &a.Email, &a.Role, &a.Name, &a.Phone, &raw, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p, err := decodeProfile(a.Role, raw)
	if err != nil {
		return nil, fmt.Errorf("decode profile of %s: %w", a.ID, err)
	}
	a.Profile = p
	return &a, nil
}

func collectAccounts(rows pgx.Rows) ([]*Account, error) {
	defer rows.Close()
	var out []*Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *repoPG) Create(ctx context.Context, a *Account) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	profile, err := json.Marshal(a.Profile)
	if err != nil {
		return err
	}
	err = r.conn(ctx).QueryRow(ctx, `
		INSERT INTO users (id, email, role, name, phone, profile)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at, updated_at`,
		a.ID, a.Email, a.Role, a.Name, a.Phone, profile,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return scanAccount(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, a *Account) error {
	profile, err := json.Marshal(a.Profile)
	if err != nil {
		return err
	}
	err = r.conn(ctx).QueryRow(ctx, `
		UPDATE users SET email=$2, name=$3, phone=$4, profile=$5, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		a.ID, a.Email, a.Name, a.Phone, profile,
	).Scan(&a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, role Role, limit, offset int) ([]*Account, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE ($1 = '' OR role = $1)`, string(role),
	).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+userCols+` FROM users
		WHERE ($1 = '' OR role = $1)
		ORDER BY created_at, id LIMIT $2 OFFSET $3`, string(role), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := collectAccounts(rows)
	return items, total, err
}

func (r *repoPG) ListAll(ctx context.Context) ([]*Account, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+userCols+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	return collectAccounts(rows)
}

func (r *repoPG) FindDoctors(ctx context.Context, specialization string, limit int) ([]Doctor, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+userCols+` FROM users
		WHERE role = 'doctor' AND ($1 = '' OR profile->>'specialization' = $1)
		ORDER BY created_at, id
		LIMIT NULLIF($2, 0)`, specialization, limit)
	if err != nil {
		return nil, err
	}
	return doctorsOf(rows)
}

func (r *repoPG) ListDoctors(ctx context.Context) ([]Doctor, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+userCols+` FROM users WHERE role = 'doctor' ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	return doctorsOf(rows)
}

func doctorsOf(rows pgx.Rows) ([]Doctor, error) {
	accounts, err := collectAccounts(rows)
	if err != nil {
		return nil, err
	}
	out := make([]Doctor, 0, len(accounts))
	for _, a := range accounts {
		if d, ok := a.AsDoctor(); ok {
			out = append(out, d)
		}
	}
	return out, nil
}
