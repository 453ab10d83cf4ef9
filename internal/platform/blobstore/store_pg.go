package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore keeps blobs in the blobs table (bytea column).
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const blobMetaCols = `id, file_name, content_type, size, sha256, owner_id, created_at`

func scanMeta(row pgx.Row, extra ...any) (*Metadata, error) {
	var m Metadata
	dest := append([]any{&m.ID, &m.FileName, &m.ContentType, &m.Size, &m.SHA256, &m.OwnerID, &m.CreatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (s *PGStore) Put(ctx context.Context, meta Metadata, content io.Reader) (*Metadata, error) {
	meta, data, err := prepare(meta, content)
	if err != nil {
		return nil, err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO blobs (id, file_name, content_type, size, sha256, owner_id, created_at, content)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		meta.ID, meta.FileName, meta.ContentType, meta.Size, meta.SHA256, meta.OwnerID, meta.CreatedAt, data)
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *PGStore) Get(ctx context.Context, id uuid.UUID) (io.ReadCloser, *Metadata, error) {
	var data []byte
	meta, err := scanMeta(s.pool.QueryRow(ctx,
		`SELECT `+blobMetaCols+`, content FROM blobs WHERE id = $1`, id), &data)
	if err != nil {
		return nil, nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), meta, nil
}

func (s *PGStore) Stat(ctx context.Context, id uuid.UUID) (*Metadata, error) {
	return scanMeta(s.pool.QueryRow(ctx, `SELECT `+blobMetaCols+` FROM blobs WHERE id = $1`, id))
}

func (s *PGStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM blobs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
