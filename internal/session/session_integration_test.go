package session_test

import (
	"context"
	"testing"

	"github.com/dmitigr/pgspa/internal/session"
	"github.com/dmitigr/pgspa/internal/testinfra"
)

func TestOpenCommitLifecycle(t *testing.T) {
	cfg := testinfra.RequireConnectionConfig(t)
	ctx := context.Background()

	sess, err := session.Open(ctx, cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer sess.Close(ctx)

	if err := sess.Execute(ctx, "create table t_lifecycle (id int)"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if err := sess.Commit(ctx); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	sess2, err := session.Open(ctx, cfg)
	if err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	defer sess2.Close(ctx)
	if err := sess2.Execute(ctx, "drop table t_lifecycle"); err != nil {
		t.Fatalf("committed table not visible to new session: %v", err)
	}
	_ = sess2.Commit(ctx)
}

func TestCloseRollsBackWithoutCommit(t *testing.T) {
	cfg := testinfra.RequireConnectionConfig(t)
	ctx := context.Background()

	sess, err := session.Open(ctx, cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := sess.Execute(ctx, "create table t_rollback (id int)"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	sess.Close(ctx)

	sess2, err := session.Open(ctx, cfg)
	if err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	defer sess2.Close(ctx)
	if err := sess2.Execute(ctx, "select * from t_rollback"); err == nil {
		t.Fatalf("expected t_rollback to not exist after uncommitted Close")
	}
}

func TestSavepointRollback(t *testing.T) {
	cfg := testinfra.RequireConnectionConfig(t)
	ctx := context.Background()

	sess, err := session.Open(ctx, cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer sess.Close(ctx)

	if err := sess.Savepoint(ctx); err != nil {
		t.Fatalf("Savepoint() error = %v", err)
	}
	if err := sess.Execute(ctx, "select * from does_not_exist"); err == nil {
		t.Fatalf("expected error selecting from nonexistent table")
	}
	if err := sess.RollbackToSavepoint(ctx); err != nil {
		t.Fatalf("RollbackToSavepoint() error = %v", err)
	}
	if err := sess.Execute(ctx, "select 1"); err != nil {
		t.Fatalf("transaction should still be usable after rollback to savepoint: %v", err)
	}
}
