// Package diagnostic turns a statement execution failure into a GNU-style
// file:line:col:Error message, mapping a server error back to the source
// location it came from: an absolute rune offset within the file, refined
// by the server's own reported query_position when one is available.
package diagnostic

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitigr/pgspa/internal/sqltext"
)

// Diagnostic is one formatted message ready to be written to a stream.
type Diagnostic struct {
	Path    string // empty for a synthetic (non-file-backed) statement
	Line    int
	Col     int
	Brief   string
	Detail  string
	Hint    string
	Context string
}

// FromFileError builds a Diagnostic for a statement that lives at
// stmtOffset (a rune offset) within source, read from path. If err carries
// a *pgconn.PgError with a Position, that position (1-based into the
// submitted statement text) locates the error precisely; otherwise the
// statement's own first significant character is used.
func FromFileError(path, source string, stmtOffset int, stmtText string, err error) Diagnostic {
	within := sqltext.FirstSignificant(stmtText)
	brief := err.Error()
	var detail, hint, context string

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Position > 0 {
			within = int(pgErr.Position) - 1
		}
		brief = pgErr.Message
		detail = pgErr.Detail
		hint = pgErr.Hint
		context = pgErr.Where
	}

	abs, absErr := filepath.Abs(path)
	if absErr != nil {
		abs = path
	}
	line, col := position([]rune(source), stmtOffset+within)

	return Diagnostic{
		Path:    abs,
		Line:    line,
		Col:     col,
		Brief:   brief,
		Detail:  detail,
		Hint:    hint,
		Context: context,
	}
}

// FromSyntheticError builds a Diagnostic for a bookkeeping statement (savepoint,
// begin, commit) issued directly by the driver rather than sourced from a
// resolved file.
func FromSyntheticError(text string, err error) Diagnostic {
	within := sqltext.FirstSignificant(text)
	brief := err.Error()
	var detail, hint string

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Position > 0 {
			within = int(pgErr.Position) - 1
		}
		brief = pgErr.Message
		detail = pgErr.Detail
		hint = pgErr.Hint
	}

	line, col := position([]rune(text), within)
	return Diagnostic{
		Line:    line,
		Col:     col,
		Brief:   brief,
		Detail:  detail,
		Hint:    hint,
		Context: text,
	}
}

// position converts a rune offset into a 1-based (line, column) pair.
// \n is the sole line separator; \r is counted as an ordinary column
// character, matching a plain-text editor's view of the file.
func position(content []rune, offset int) (line, col int) {
	line, col = 1, 1
	if offset > len(content) {
		offset = len(content)
	}
	for i := 0; i < offset; i++ {
		if content[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

// Write prints d in GNU diagnostic form:
//
//	<path>:<line>:<col>:Error: <brief>
//	  Detail: <detail>
//	  Hint: <hint>
//	  Context:
//	<context>
func (d Diagnostic) Write(w io.Writer) {
	path := d.Path
	if path == "" {
		path = "pgspa internal query (see below)"
	}
	fmt.Fprintf(w, "%s:%d:%d:Error: %s\n", path, d.Line, d.Col, d.Brief)
	if d.Detail != "" {
		fmt.Fprintf(w, "  Detail: %s\n", d.Detail)
	}
	if d.Hint != "" {
		fmt.Fprintf(w, "  Hint: %s\n", d.Hint)
	}
	if d.Context != "" {
		fmt.Fprintf(w, "  Context:\n%s\n", d.Context)
	}
}
