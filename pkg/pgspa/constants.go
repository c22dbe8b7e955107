// Package pgspa exposes the small set of types and sentinel errors shared
// between pgspa's internal packages: the CLI layer, the resolver, and the
// executor all speak these types rather than reaching into each other's
// internals.
package pgspa

import "time"

// Process exit codes. pgspa only ever distinguishes three outcomes: the CLI
// layer maps everything else back down to one of these before the process
// exits. Every named, expected failure (bad usage, a bad config file, a
// reference that won't resolve, a file that can't be read, a connection
// that can't be established, or a Fatal/unresolved-Deferrable fixed-point
// outcome) is a "user-visible error" and exits 1; ExitUnknownError is
// reserved for a failure outside that taxonomy entirely — a panic, or an
// error this project never anticipated.
const (
	ExitSuccess      = 0
	ExitError        = 1
	ExitUnknownError = 2
)

// DefaultAddress is the TCP address dialed when --address is not given.
const DefaultAddress = "127.0.0.1"

// DefaultHost is the TCP host name used for TLS certificate verification
// when --host is not given.
const DefaultHost = "localhost"

// DefaultPort is the PostgreSQL server port used when --port is not given.
const DefaultPort = 5432

// DefaultConnectTimeout is used when --connect_timeout is not given.
const DefaultConnectTimeout = 8 * time.Second

// PolicyFileName is the name of the per-directory policy file consulted by
// the reference resolver.
const PolicyFileName = ".pgspa"
