package pgspa

import (
	"errors"
	"strings"
)

// Sentinel errors returned by pgspa's internal packages. The CLI layer
// checks these with errors.Is rather than inspecting error strings, except
// where it has to cope with cobra's own synthetic usage errors.
var (
	// ErrInvalidConfig is returned by internal/config when a per-directory
	// policy file names an unrecognized key or an unparsable value.
	ErrInvalidConfig = errors.New("pgspa: invalid configuration")

	// ErrResolution is returned by internal/resolver when a reference
	// cannot be resolved to any SQL file: a bad leaf name, a cyclic
	// include chain, an explicit-only directory reached transitively, or
	// a reference matching none of the resolver's cases.
	ErrResolution = errors.New("pgspa: reference resolution failed")

	// ErrConnectionFailed is returned by internal/session when the
	// PostgreSQL connection cannot be established.
	ErrConnectionFailed = errors.New("pgspa: connection failed")

	// ErrExecutionFailed is returned by internal/executor when declaring,
	// re-declaring or rolling back to the reusable savepoint fails.
	// Statements left unresolved by the fixed-point loop are not reported
	// through it: they come back as Result failures.
	ErrExecutionFailed = errors.New("pgspa: execution failed")

	// ErrIoError is returned when a file or directory the resolver or
	// batch loader needs to read cannot be read: permission denied, the
	// path vanished mid-run, or similar.
	ErrIoError = errors.New("pgspa: cannot read file")

	// ErrAlreadyReported marks an error whose diagnostic has already been
	// written by internal/diagnostic. The CLI's top-level handler checks
	// for it with errors.Is so it does not print a second, generic
	// message on top of the one already on stderr. This is this
	// project's analogue of a caught-and-silenced exception: the error
	// still carries a non-zero exit code, it just isn't re-described.
	ErrAlreadyReported = errors.New("pgspa: already reported")
)

// ExitCodeForError maps an error returned from the CLI layer to a process
// exit code. Every error this project's own packages return is a wrapped
// sentinel from the var block above, or one of cobra's synthetic
// argument-/flag-parsing errors (which arrive as plain strings, so a
// handful of substring checks catch those) — both are named, expected
// failures and exit 1. Anything matching neither is outside that taxonomy
// and exits 2, the code reserved for truly unknown failures.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if isUsageError(err) || isKnownError(err) {
		return ExitError
	}
	return ExitUnknownError
}

func isKnownError(err error) bool {
	for _, sentinel := range []error{
		ErrInvalidConfig,
		ErrResolution,
		ErrConnectionFailed,
		ErrExecutionFailed,
		ErrAlreadyReported,
		ErrIoError,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func isUsageError(err error) bool {
	msg := err.Error()
	for _, marker := range []string{
		"unknown flag",
		"unknown shorthand flag",
		"unknown command",
		"arg(s), received",
		"not set",
		"invalid argument",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
