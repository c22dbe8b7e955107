package session

import (
	"strings"
	"testing"
	"time"

	"github.com/dmitigr/pgspa/pkg/pgspa"
)

func TestBuildConnString(t *testing.T) {
	cfg := pgspa.ConnectionConfig{
		Address:        "127.0.0.1",
		Port:           5433,
		Username:       "alice",
		Password:       "s3cret",
		Database:       "mydb",
		ConnectTimeout: 5 * time.Second,
	}

	got := buildConnString(cfg)
	for _, want := range []string{"postgres://", "alice:s3cret@127.0.0.1:5433", "/mydb", "connect_timeout=5"} {
		if !strings.Contains(got, want) {
			t.Errorf("buildConnString() = %q, want substring %q", got, want)
		}
	}
}

func TestWrapConnectionErrorMessages(t *testing.T) {
	cfg := pgspa.ConnectionConfig{Address: "10.0.0.1", Port: 5432, Database: "db"}

	tests := []struct {
		raw  string
		want string
	}{
		{"dial tcp: connection refused", "connection refused"},
		{"no such host", "cannot resolve host"},
	}
	for _, tt := range tests {
		err := wrapConnectionError(errString(tt.raw), cfg)
		if !strings.Contains(err.Error(), tt.want) {
			t.Errorf("wrapConnectionError(%q) = %q, want to contain %q", tt.raw, err.Error(), tt.want)
		}
	}
}

type errString string

func (e errString) Error() string { return string(e) }
