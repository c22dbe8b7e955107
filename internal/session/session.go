// Package session owns the single PostgreSQL connection used for one exec
// invocation: it opens the outer transaction, declares the reusable p1
// savepoint on request, and provides the guarded commit/rollback lifecycle
// the CLI layer relies on. The pool is sized to exactly one connection,
// since a single invocation never needs more. Establishing that connection
// is wrapped in a retry with backoff so a transient failure (server not
// accepting connections yet, a dropped TCP handshake) doesn't fail the
// whole invocation outright.
package session

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitigr/pgspa/internal/retry"
	"github.com/dmitigr/pgspa/pkg/pgspa"
)

// Session wraps the single connection acquired for one exec invocation. It
// is a scoped resource: Close must be deferred immediately after Open
// succeeds, and it rolls back the transaction unless Commit was already
// called, mirroring the RAII-style Tx_guard of the tool this project
// reimplements.
type Session struct {
	pool      *pgxpool.Pool
	conn      *pgxpool.Conn
	committed bool
}

// Open builds a connection string from cfg, establishes a single-connection
// pool, begins the outer transaction, and returns a ready Session. Callers
// must defer Close.
func Open(ctx context.Context, cfg pgspa.ConnectionConfig) (*Session, error) {
	connStr := buildConnString(cfg)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pgspa.ErrConnectionFailed, err)
	}
	poolConfig.MaxConns = 1
	poolConfig.MinConns = 1
	if cfg.Host != "" && poolConfig.ConnConfig.TLSConfig != nil {
		// Address is the literal endpoint dialed; Host is the name a
		// certificate is checked against, mirroring libpq's host/hostaddr
		// split.
		poolConfig.ConnConfig.TLSConfig.ServerName = cfg.Host
	}

	classifier := retry.NewPostgreSQLErrorClassifier()
	strategy := retry.NewExponentialBackoff(3,
		retry.WithInitialDelay(200*time.Millisecond),
		retry.WithMaxDelay(2*time.Second),
	)
	executor := retry.NewExecutor(classifier, strategy)

	var pool *pgxpool.Pool
	var conn *pgxpool.Conn
	err = executor.Execute(ctx, func(ctx context.Context) error {
		var connectErr error
		pool, connectErr = pgxpool.NewWithConfig(ctx, poolConfig)
		if connectErr != nil {
			return connectErr
		}
		conn, connectErr = pool.Acquire(ctx)
		if connectErr != nil {
			pool.Close()
			return connectErr
		}
		return nil
	})
	if err != nil {
		return nil, wrapConnectionError(err, cfg)
	}

	if cfg.ClientEncoding != "" {
		ident := pgx.Identifier{cfg.ClientEncoding}
		if _, err := conn.Exec(ctx, "set client_encoding to "+ident.Sanitize()); err != nil {
			conn.Release()
			pool.Close()
			return nil, fmt.Errorf("%w: setting client_encoding: %v", pgspa.ErrConnectionFailed, err)
		}
	}

	if _, err := conn.Exec(ctx, "begin"); err != nil {
		conn.Release()
		pool.Close()
		return nil, fmt.Errorf("%w: opening transaction: %v", pgspa.ErrConnectionFailed, err)
	}

	return &Session{pool: pool, conn: conn}, nil
}

// Close rolls back the transaction, unless Commit already ran, then
// releases the connection and closes the pool. Errors from the rollback
// itself are deliberately swallowed: by the time Close runs, the caller
// already has the error that caused it to give up on the transaction.
func (s *Session) Close(ctx context.Context) {
	if !s.committed {
		_, _ = s.conn.Exec(ctx, "rollback")
	}
	s.conn.Release()
	s.pool.Close()
}

// Commit commits the outer transaction. After Commit returns successfully,
// Close becomes a no-op with respect to the transaction.
func (s *Session) Commit(ctx context.Context) error {
	if _, err := s.conn.Exec(ctx, "commit"); err != nil {
		return fmt.Errorf("%w: committing: %v", pgspa.ErrConnectionFailed, err)
	}
	s.committed = true
	return nil
}

// Savepoint (re-)declares the single reusable savepoint p1.
func (s *Session) Savepoint(ctx context.Context) error {
	_, err := s.conn.Exec(ctx, "savepoint p1")
	return err
}

// RollbackToSavepoint rolls back to p1 without ending the transaction.
func (s *Session) RollbackToSavepoint(ctx context.Context) error {
	_, err := s.conn.Exec(ctx, "rollback to savepoint p1")
	return err
}

// Execute runs sql as a single statement and returns any error the server
// raised, unwrapped, so the caller can classify it with internal/pgerr.
func (s *Session) Execute(ctx context.Context, sql string) error {
	_, err := s.conn.Exec(ctx, sql)
	return err
}

func buildConnString(cfg pgspa.ConnectionConfig) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Path:   "/" + cfg.Database,
	}
	if cfg.Username != "" {
		if cfg.Password != "" {
			u.User = url.UserPassword(cfg.Username, cfg.Password)
		} else {
			u.User = url.User(cfg.Username)
		}
	}
	q := url.Values{}
	q.Set("connect_timeout", strconv.Itoa(int(cfg.ConnectTimeout.Seconds())))
	u.RawQuery = q.Encode()
	return u.String()
}

func wrapConnectionError(err error, cfg pgspa.ConnectionConfig) error {
	errStr := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", cfg.Address, cfg.Port)

	switch {
	case strings.Contains(errStr, "connection refused"):
		return fmt.Errorf("%w: connection refused to %s: %v", pgspa.ErrConnectionFailed, addr, err)
	case strings.Contains(errStr, "no such host"):
		return fmt.Errorf("%w: cannot resolve host %q: %v", pgspa.ErrConnectionFailed, cfg.Host, err)
	case strings.Contains(errStr, "password authentication failed"):
		return fmt.Errorf("%w: password authentication failed for database %q: %v", pgspa.ErrConnectionFailed, cfg.Database, err)
	case strings.Contains(errStr, "does not exist"):
		return fmt.Errorf("%w: database %q does not exist: %v", pgspa.ErrConnectionFailed, cfg.Database, err)
	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out"):
		return fmt.Errorf("%w: connection timed out to %s: %v", pgspa.ErrConnectionFailed, addr, err)
	default:
		return fmt.Errorf("%w: %v", pgspa.ErrConnectionFailed, err)
	}
}
