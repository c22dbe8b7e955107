// Package executor runs a batch of statements against a live transaction
// to a fixed point: each pass attempts every statement that hasn't
// succeeded yet, classifying failures as Duplicate (already applied, skip
// it), Deferrable (may succeed once something else has run first, retry
// next pass), or Fatal (abort immediately). The loop stops once a pass
// completes nothing new — either everything has succeeded or the remaining
// statements are stuck on an unmet dependency.
package executor

import (
	"context"
	"fmt"

	"github.com/dmitigr/pgspa/internal/batch"
	"github.com/dmitigr/pgspa/internal/pgerr"
	"github.com/dmitigr/pgspa/pkg/pgspa"
)

// Driver is the subset of *session.Session the executor needs. Isolated as
// an interface so the fixed-point loop can be tested without a live
// PostgreSQL server.
type Driver interface {
	Savepoint(ctx context.Context) error
	RollbackToSavepoint(ctx context.Context) error
	Execute(ctx context.Context, sql string) error
}

type status int

const (
	untried status = iota
	done
	pending
)

// Failure describes one statement that never completed by the time the
// fixed-point loop gave up.
type Failure struct {
	Batch     *batch.Batch
	StmtIndex int
	Err       error
}

// Result is returned by Run. Ok is true when every non-empty statement
// across every batch reached the done state.
type Result struct {
	Ok        bool
	DoneCount int
	Failures  []Failure
}

// Run declares the reusable savepoint and then executes batches' statements
// to a fixed point: repeated passes over every batch, in order, until a
// full pass produces zero newly-done statements or a Fatal error is
// encountered. On a Fatal error the loop stops immediately, even mid-pass;
// any statement not yet in the done state — including ones a later batch
// never got to try — is reported as a Failure.
func Run(ctx context.Context, d Driver, batches []*batch.Batch) (Result, error) {
	if err := d.Savepoint(ctx); err != nil {
		return Result{}, fmt.Errorf("%w: declaring savepoint: %v", pgspa.ErrExecutionFailed, err)
	}

	states := make([][]status, len(batches))
	lastErr := make([][]error, len(batches))
	for i, b := range batches {
		states[i] = make([]status, len(b.Statements))
		lastErr[i] = make([]error, len(b.Statements))
	}

	doneCount := 0
	total := batch.TotalNonEmptyCount(batches)

	for {
		progress := 0
		fatal := false

	outer:
		for bi, b := range batches {
			for si, stmt := range b.Statements {
				if states[bi][si] == done {
					continue
				}
				if stmt.Empty {
					states[bi][si] = done
					progress++
					continue
				}

				execErr := d.Execute(ctx, stmt.Text)
				if execErr == nil {
					if err := d.Savepoint(ctx); err != nil {
						return Result{}, fmt.Errorf("%w: re-declaring savepoint: %v", pgspa.ErrExecutionFailed, err)
					}
					states[bi][si] = done
					doneCount++
					progress++
					continue
				}

				class, _ := pgerr.Classify(execErr)
				if err := d.RollbackToSavepoint(ctx); err != nil {
					return Result{}, fmt.Errorf("%w: rolling back to savepoint: %v", pgspa.ErrExecutionFailed, err)
				}

				switch class {
				case pgerr.Duplicate:
					states[bi][si] = done
					doneCount++
					progress++
				case pgerr.Deferrable:
					states[bi][si] = pending
					lastErr[bi][si] = execErr
				default: // Fatal
					states[bi][si] = pending
					lastErr[bi][si] = execErr
					fatal = true
					break outer
				}
			}
		}

		if fatal || progress == 0 {
			break
		}
	}

	if doneCount == total {
		return Result{Ok: true, DoneCount: doneCount}, nil
	}

	var failures []Failure
	for bi, b := range batches {
		for si := range b.Statements {
			if states[bi][si] != done && !b.Statements[si].Empty {
				failures = append(failures, Failure{Batch: b, StmtIndex: si, Err: lastErr[bi][si]})
			}
		}
	}
	return Result{Ok: false, DoneCount: doneCount, Failures: failures}, nil
}
