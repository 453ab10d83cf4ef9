package documents

import (
	"context"
	"errors"

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

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// =========== Folders ===========

const folderCols = `id, name, owner_id, privacy, created_at`

func scanFolder(row pgx.Row) (*Folder, error) {
	var f Folder
	if err := row.Scan(&f.ID, &f.Name, &f.OwnerID, &f.Privacy, &f.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return &f, nil
}

func (r *repoPG) CreateFolder(ctx context.Context, f *Folder) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO folders (id, name, owner_id, privacy) VALUES ($1,$2,$3,$4)
		RETURNING created_at`, f.ID, f.Name, f.OwnerID, f.Privacy).Scan(&f.CreatedAt)
}

func (r *repoPG) GetFolder(ctx context.Context, id uuid.UUID) (*Folder, error) {
	return scanFolder(r.conn(ctx).QueryRow(ctx, `SELECT `+folderCols+` FROM folders WHERE id = $1`, id))
}

func (r *repoPG) UpdateFolder(ctx context.Context, f *Folder) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE folders SET name = $2, privacy = $3 WHERE id = $1`, f.ID, f.Name, f.Privacy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteFolder relies on documents.folder_id ON DELETE CASCADE.
func (r *repoPG) DeleteFolder(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM folders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ListFolders(ctx context.Context, ownerID uuid.UUID) ([]*Folder, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+folderCols+` FROM folders
		WHERE privacy = 'global' OR owner_id = $1 ORDER BY name, id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Folder
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// =========== Documents ===========

const documentCols = `id, owner_id, folder_id, name, url, content_type, size, blob_id, created_at`

func scanDocument(row pgx.Row) (*Document, error) {
	var d Document
	err := row.Scan(&d.ID, &d.OwnerID, &d.FolderID, &d.Name, &d.URL, &d.ContentType,
		&d.Size, &d.BlobID, &d.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}

func (r *repoPG) CreateDocument(ctx context.Context, d *Document) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO documents (id, owner_id, folder_id, name, url, content_type, size, blob_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at`,
		d.ID, d.OwnerID, d.FolderID, d.Name, d.URL, d.ContentType, d.Size, d.BlobID,
	).Scan(&d.CreatedAt)
}

func (r *repoPG) GetDocument(ctx context.Context, id uuid.UUID) (*Document, error) {
	return scanDocument(r.conn(ctx).QueryRow(ctx, `SELECT `+documentCols+` FROM documents WHERE id = $1`, id))
}

func (r *repoPG) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) listDocuments(ctx context.Context, where string, arg interface{}) ([]*Document, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+documentCols+` FROM documents WHERE `+where+`
		ORDER BY created_at DESC, id`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *repoPG) ListInFolder(ctx context.Context, folderID uuid.UUID) ([]*Document, error) {
	return r.listDocuments(ctx, `folder_id = $1`, folderID)
}

func (r *repoPG) ListRoot(ctx context.Context, ownerID uuid.UUID) ([]*Document, error) {
	return r.listDocuments(ctx, `folder_id IS NULL AND owner_id = $1`, ownerID)
}
