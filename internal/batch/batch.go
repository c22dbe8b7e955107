// Package batch pairs a resolved file's parsed statements with their
// absolute character offsets so the diagnostic reporter can later map a
// server error back to a source location.
package batch

import (
	"fmt"
	"os"

	"github.com/dmitigr/pgspa/internal/sqltext"
	"github.com/dmitigr/pgspa/pkg/pgspa"
)

// Batch is one resolved SQL file's parsed statements.
type Batch struct {
	Path       string
	Source     string
	Statements []sqltext.Statement
}

// Load reads path and splits its content into statements.
func Load(path string) (*Batch, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", pgspa.ErrIoError, path, err)
	}
	src := string(content)
	return &Batch{
		Path:       path,
		Source:     src,
		Statements: sqltext.Split(src),
	}, nil
}

// LoadAll loads every path in order, stopping at the first read error.
func LoadAll(paths []string) ([]*Batch, error) {
	batches := make([]*Batch, 0, len(paths))
	for _, p := range paths {
		b, err := Load(p)
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, nil
}

// NonEmptyCount returns the number of statements in b that are not purely
// whitespace/comments.
func (b *Batch) NonEmptyCount() int {
	n := 0
	for _, s := range b.Statements {
		if !s.Empty {
			n++
		}
	}
	return n
}

// TotalNonEmptyCount sums NonEmptyCount across every batch, the fixed-point
// executor's iteration bound N.
func TotalNonEmptyCount(batches []*Batch) int {
	total := 0
	for _, b := range batches {
		total += b.NonEmptyCount()
	}
	return total
}
