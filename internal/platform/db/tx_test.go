package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestTxFromContext_Empty(t *testing.T) {
	if tx := TxFromContext(context.Background()); tx != nil {
		t.Errorf("expected nil tx, got %v", tx)
	}
}

func TestNoTx_PropagatesError(t *testing.T) {
	want := errors.New("boom")
	called := false
	err := NoTx{}.InTx(context.Background(), func(ctx context.Context) error {
		called = true
		return want
	})
	if !called {
		t.Fatal("expected fn to run")
	}
	if !errors.Is(err, want) {
		t.Errorf("expected %v, got %v", want, err)
	}
}

type fakeTx struct{ pgx.Tx }

func TestWithoutTx(t *testing.T) {
	ctx := WithTx(context.Background(), fakeTx{})
	if TxFromContext(ctx) == nil {
		t.Fatal("expected transaction in context")
	}
	if TxFromContext(WithoutTx(ctx)) != nil {
		t.Error("expected transaction to be hidden")
	}
}
