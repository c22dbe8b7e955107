package pgspa

import (
	"os"
	"strconv"
	"time"
)

// Logger is the narrow logging surface every internal package depends on.
// Verbose messages are only shown when the CLI's --verbose flag is set;
// Info and Error are always shown.
type Logger interface {
	Verbose(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// ConnectionConfig carries the connection parameters accepted by exec's
// flags. Host and Address are kept distinct: Address is the literal network
// endpoint dialed, Host is the name a server certificate is checked against
// when the connection negotiates TLS (internal/session wires it into the
// pgx TLS config's ServerName); it has no effect on a plaintext connection.
type ConnectionConfig struct {
	Host           string
	Address        string
	Port           int
	Database       string
	Username       string
	Password       string
	ClientEncoding string
	ConnectTimeout time.Duration
}

// WithDefaults returns a copy of cfg with zero-valued fields resolved in
// libpq's own order: an explicit flag value (already present on cfg) wins,
// then the like-named PG* environment variable, then this project's
// built-in default. Username falls back to the OS user, and Database to the
// resolved Username, only once neither a flag nor an environment variable
// supplied one.
func (cfg ConnectionConfig) WithDefaults(osUser string) ConnectionConfig {
	out := cfg
	if out.Host == "" {
		out.Host = os.Getenv("PGHOST")
	}
	if out.Host == "" {
		out.Host = DefaultHost
	}
	if out.Address == "" {
		out.Address = os.Getenv("PGHOSTADDR")
	}
	if out.Address == "" {
		out.Address = DefaultAddress
	}
	if out.Port == 0 {
		if p, err := strconv.Atoi(os.Getenv("PGPORT")); err == nil && p > 0 {
			out.Port = p
		}
	}
	if out.Port == 0 {
		out.Port = DefaultPort
	}
	if out.Username == "" {
		out.Username = os.Getenv("PGUSER")
	}
	if out.Username == "" {
		out.Username = osUser
	}
	if out.Password == "" {
		out.Password = os.Getenv("PGPASSWORD")
	}
	if out.Database == "" {
		out.Database = os.Getenv("PGDATABASE")
	}
	if out.Database == "" {
		out.Database = out.Username
	}
	if out.ConnectTimeout == 0 {
		out.ConnectTimeout = DefaultConnectTimeout
	}
	return out
}
