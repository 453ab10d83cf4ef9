package notification

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carelink/hms/internal/platform/db"
)

// pgPool connects to HMS_TEST_DATABASE_URL and applies the migrations.
// Tests using it are skipped when the variable is unset.
func pgPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("HMS_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("HMS_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, url, 4, 1)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	if _, err := db.NewMigrator(pool, os.DirFS("../../../migrations")).Up(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool
}

func TestRepoPG_Lifecycle(t *testing.T) {
	pool := pgPool(t)
	ctx := context.Background()
	repo := NewRepoPG(pool)
	user := uuid.New()
	other := uuid.New()
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM notifications WHERE user_id = ANY($1)`, []uuid.UUID{user, other})
	})

	var ids []uuid.UUID
	for _, title := range []string{"First", "Second", "Third"} {
		n := &Notification{UserID: user, Title: title, Message: "m", Type: TypeSystem}
		if err := repo.Create(ctx, n); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if n.CreatedAt.IsZero() {
			t.Fatal("expected created_at to be returned")
		}
		ids = append(ids, n.ID)
	}
	if err := repo.Create(ctx, &Notification{UserID: other, Title: "x", Message: "m", Type: TypeMessage}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	items, total, err := repo.List(ctx, user, false, 2, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 || len(items) != 2 {
		t.Fatalf("expected 2 of 3, got %d of %d", len(items), total)
	}
	if items[0].Title != "Third" {
		t.Errorf("expected newest first, got %q", items[0].Title)
	}

	if err := repo.MarkRead(ctx, user, ids[0]); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if err := repo.MarkRead(ctx, user, ids[0]); err != nil {
		t.Fatalf("MarkRead twice: %v", err)
	}
	if err := repo.MarkRead(ctx, other, ids[1]); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for another user's record, got %v", err)
	}

	unread, err := repo.CountUnread(ctx, user)
	if err != nil {
		t.Fatalf("CountUnread: %v", err)
	}
	if unread != 2 {
		t.Errorf("expected 2 unread, got %d", unread)
	}
	_, total, err = repo.List(ctx, user, true, 10, 0)
	if err != nil {
		t.Fatalf("List unread: %v", err)
	}
	if total != 2 {
		t.Errorf("expected 2 unread listed, got %d", total)
	}

	updated, err := repo.MarkAllRead(ctx, user)
	if err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if updated != 2 {
		t.Errorf("expected 2 updated, got %d", updated)
	}

	if err := repo.Delete(ctx, user, ids[2]); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, user, ids[2]); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
	if n, _ := repo.CountUnread(ctx, other); n != 1 {
		t.Errorf("expected the other user's record untouched, got %d unread", n)
	}
}

func TestRepoPG_CreateIsIdempotentOnID(t *testing.T) {
	pool := pgPool(t)
	ctx := context.Background()
	repo := NewRepoPG(pool)
	user := uuid.New()
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM notifications WHERE user_id = $1`, user)
	})

	n := &Notification{ID: uuid.New(), UserID: user, Title: "Once", Message: "m", Type: TypeAppointment}
	for i := 0; i < 2; i++ {
		rec := *n
		if err := repo.Create(ctx, &rec); err != nil {
			t.Fatalf("Create #%d: %v", i+1, err)
		}
	}
	if _, total, err := repo.List(ctx, user, false, 10, 0); err != nil || total != 1 {
		t.Errorf("expected 1 record, got %d (%v)", total, err)
	}

	bad := &Notification{UserID: user, Title: "Bad", Message: "m", Type: "carrier-pigeon"}
	if err := repo.Create(ctx, bad); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for a rejected type, got %v", err)
	}
}
