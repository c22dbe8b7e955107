package diagnostic

import (
	"fmt"
	"io"

	"github.com/dmitigr/pgspa/internal/executor"
	"github.com/dmitigr/pgspa/pkg/pgspa"
)

// ReportFailures writes one Diagnostic per unresolved statement to w and
// returns pgspa.ErrAlreadyReported, so the CLI layer knows not to print a
// second, generic error message on top of what was just written. Failures
// whose Err is nil (statements the fatal-error short-circuit never reached)
// produce no message: the transaction is already rolling back in full, and
// they were never actually tried.
func ReportFailures(w io.Writer, failures []executor.Failure) error {
	for _, f := range failures {
		if f.Err == nil {
			continue
		}
		stmt := f.Batch.Statements[f.StmtIndex]
		var d Diagnostic
		if f.Batch.Path != "" {
			d = FromFileError(f.Batch.Path, f.Batch.Source, stmt.Offset, stmt.Text, f.Err)
		} else {
			d = FromSyntheticError(stmt.Text, f.Err)
		}
		d.Write(w)
	}
	return fmt.Errorf("%w", pgspa.ErrAlreadyReported)
}
