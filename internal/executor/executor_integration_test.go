package executor_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmitigr/pgspa/internal/batch"
	"github.com/dmitigr/pgspa/internal/executor"
	"github.com/dmitigr/pgspa/internal/session"
	"github.com/dmitigr/pgspa/internal/testinfra"
)

func writeSQL(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestRunForwardReferenceAgainstLiveDatabase(t *testing.T) {
	cfg := testinfra.RequireConnectionConfig(t)
	ctx := context.Background()

	sess, err := session.Open(ctx, cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer sess.Close(ctx)

	dir := t.TempDir()
	viewFile := writeSQL(t, dir, "view.sql", "create view v_fwd as select * from t_fwd;")
	tableFile := writeSQL(t, dir, "table.sql", "create table t_fwd (id int);")

	batches, err := batch.LoadAll([]string{viewFile, tableFile})
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}

	result, err := executor.Run(ctx, sess, batches)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !result.Ok {
		t.Fatalf("Run() Ok = false, failures = %+v", result.Failures)
	}
	if result.DoneCount != 2 {
		t.Errorf("DoneCount = %d, want 2", result.DoneCount)
	}

	if err := sess.Execute(ctx, "drop view v_fwd; drop table t_fwd"); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	_ = sess.Commit(ctx)
}

func TestRunFatalErrorAbortsAndReportsFailure(t *testing.T) {
	cfg := testinfra.RequireConnectionConfig(t)
	ctx := context.Background()

	sess, err := session.Open(ctx, cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer sess.Close(ctx)

	dir := t.TempDir()
	badFile := writeSQL(t, dir, "bad.sql", "select 1/0;")
	goodFile := writeSQL(t, dir, "good.sql", "create table t_never_created (id int);")

	batches, err := batch.LoadAll([]string{badFile, goodFile})
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}

	result, err := executor.Run(ctx, sess, batches)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Ok {
		t.Fatalf("Run() Ok = true, want false")
	}
	if len(result.Failures) == 0 {
		t.Fatalf("expected at least one failure")
	}

	sess.Close(ctx)
	verify, err := session.Open(ctx, cfg)
	if err != nil {
		t.Fatalf("verify Open() error = %v", err)
	}
	defer verify.Close(ctx)
	if err := verify.Execute(ctx, "select * from t_never_created"); err == nil {
		t.Fatalf("t_never_created should not exist: fatal error should have aborted the batch")
	}
}

func TestRunDuplicateToleratedAcrossRuns(t *testing.T) {
	cfg := testinfra.RequireConnectionConfig(t)
	ctx := context.Background()

	dir := t.TempDir()
	createFile := writeSQL(t, dir, "create.sql", "create table t_dup (id int);")

	batches, err := batch.LoadAll([]string{createFile})
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}

	sess, err := session.Open(ctx, cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if result, err := executor.Run(ctx, sess, batches); err != nil || !result.Ok {
		t.Fatalf("first Run() = %+v, err = %v", result, err)
	}
	if err := sess.Commit(ctx); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	sess.Close(ctx)

	batches2, err := batch.LoadAll([]string{createFile})
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	sess2, err := session.Open(ctx, cfg)
	if err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	defer sess2.Close(ctx)
	result, err := executor.Run(ctx, sess2, batches2)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if !result.Ok {
		t.Fatalf("second Run() Ok = false, want true (duplicate table create should be tolerated), failures = %+v", result.Failures)
	}
	if err := sess2.Execute(ctx, "drop table t_dup"); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	_ = sess2.Commit(ctx)
}
