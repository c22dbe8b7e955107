// Package pgerr classifies PostgreSQL errors raised while executing a
// statement into the three outcomes the fixed-point executor understands:
// Duplicate, Deferrable, and Fatal, keyed off the error's SQLSTATE code.
package pgerr

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Class is the outcome of classifying a statement execution error.
type Class int

const (
	// Fatal errors abort the fixed-point loop immediately.
	Fatal Class = iota
	// Duplicate errors mean the statement's effect already exists; the
	// statement is marked done without having produced new state.
	Duplicate
	// Deferrable errors mean the statement depends on an object that does
	// not exist yet; the statement is left pending for a later iteration.
	Deferrable
)

// SQLSTATE codes recognized as Duplicate: the object the statement wanted
// to create already exists.
const (
	CodeDuplicateTable    = "42P07"
	CodeDuplicateFunction = "42723"
	CodeDuplicateObject   = "42710"
	CodeDuplicateSchema   = "42P06"
)

// SQLSTATE codes recognized as Deferrable: the statement referenced an
// object that does not exist yet, or could not be dropped because
// something else still depends on it.
const (
	CodeUndefinedTable          = "42P01"
	CodeUndefinedFunction       = "42883"
	CodeUndefinedObject         = "42704"
	CodeInvalidSchemaName       = "3F000"
	CodeDependentObjectsExist   = "2BP01"
)

var duplicateCodes = map[string]struct{}{
	CodeDuplicateTable:    {},
	CodeDuplicateFunction: {},
	CodeDuplicateObject:   {},
	CodeDuplicateSchema:   {},
}

var deferrableCodes = map[string]struct{}{
	CodeUndefinedTable:        {},
	CodeUndefinedFunction:     {},
	CodeUndefinedObject:       {},
	CodeInvalidSchemaName:     {},
	CodeDependentObjectsExist: {},
}

// Classify inspects err and returns its Class along with the underlying
// *pgconn.PgError, if any. A nil err has no meaningful classification and
// should never be passed in; a non-nil err that is not a *pgconn.PgError
// (a dropped connection, for instance) classifies as Fatal.
func Classify(err error) (Class, *pgconn.PgError) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return Fatal, nil
	}
	if _, ok := duplicateCodes[pgErr.Code]; ok {
		return Duplicate, pgErr
	}
	if _, ok := deferrableCodes[pgErr.Code]; ok {
		return Deferrable, pgErr
	}
	return Fatal, pgErr
}

func (c Class) String() string {
	switch c {
	case Duplicate:
		return "duplicate"
	case Deferrable:
		return "deferrable"
	default:
		return "fatal"
	}
}
