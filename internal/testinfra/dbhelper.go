package testinfra

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitigr/pgspa/pkg/pgspa"
)

var (
	testContainerOnce sync.Once
	testContainerConn string
	testContainerErr  error
)

func getOrStartTestContainer() (string, error) {
	testContainerOnce.Do(func() {
		ctx := context.Background()
		container, err := StartSimplePostgres(ctx)
		if err != nil {
			testContainerErr = err
			return
		}
		testContainerConn = container.ConnString
	})
	return testContainerConn, testContainerErr
}

// SkipIfShort skips the calling test when go test was run with -short.
func SkipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
}

// GetTestConnectionString returns a Postgres connection URL for integration
// tests. It prefers PGSPA_TEST_CONN when set, otherwise starts (once per
// test binary) a disposable container and reuses it for every caller.
func GetTestConnectionString(t *testing.T) string {
	t.Helper()

	if connString := os.Getenv("PGSPA_TEST_CONN"); connString != "" {
		return connString
	}

	connString, err := getOrStartTestContainer()
	if err != nil {
		t.Skipf("PGSPA_TEST_CONN not set and Docker unavailable: %v", err)
	}
	return connString
}

// RequireDatabase combines SkipIfShort and GetTestConnectionString.
func RequireDatabase(t *testing.T) string {
	t.Helper()
	SkipIfShort(t)
	return GetTestConnectionString(t)
}

// RequireConnectionConfig is RequireDatabase, parsed into the shape
// session.Open expects.
func RequireConnectionConfig(t *testing.T) pgspa.ConnectionConfig {
	t.Helper()
	cfg, err := ParseConnectionString(RequireDatabase(t))
	if err != nil {
		t.Fatalf("parse test connection string: %v", err)
	}
	return cfg
}

// ParseConnectionString turns a postgres:// URL, as produced by
// StartSimplePostgres, into a pgspa.ConnectionConfig.
func ParseConnectionString(raw string) (pgspa.ConnectionConfig, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return pgspa.ConnectionConfig{}, fmt.Errorf("parse connection string: %w", err)
	}

	host := u.Hostname()
	port := 5432
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return pgspa.ConnectionConfig{}, fmt.Errorf("parse port: %w", err)
		}
	}

	cfg := pgspa.ConnectionConfig{
		Host:           host,
		Address:        host,
		Port:           port,
		Database:       strings.TrimPrefix(u.Path, "/"),
		ConnectTimeout: 10 * time.Second,
	}
	if u.User != nil {
		cfg.Username = u.User.Username()
		cfg.Password, _ = u.User.Password()
	}
	return cfg, nil
}
