package cli

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dmitigr/pgspa/internal/batch"
	"github.com/dmitigr/pgspa/internal/config"
	"github.com/dmitigr/pgspa/internal/diagnostic"
	"github.com/dmitigr/pgspa/internal/executor"
	"github.com/dmitigr/pgspa/internal/logging"
	"github.com/dmitigr/pgspa/internal/resolver"
	"github.com/dmitigr/pgspa/internal/session"
	"github.com/dmitigr/pgspa/pkg/pgspa"
)

var execFlags struct {
	host           string
	address        string
	port           int
	username       string
	database       string
	password       string
	clientEncoding string
	connectTimeout time.Duration
}

var execCmd = &cobra.Command{
	Use:   "exec <reference>...",
	Short: "Resolve and execute one or more references in a single transaction",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExec,
}

func init() {
	rootCmd.AddCommand(execCmd)

	f := execCmd.Flags()
	f.StringVar(&execFlags.host, "host", "", "TCP host name (default localhost)")
	f.StringVar(&execFlags.address, "address", "", "TCP host address (default 127.0.0.1)")
	f.IntVar(&execFlags.port, "port", 0, "TCP port (default 5432)")
	f.StringVarP(&execFlags.username, "username", "U", "", "database role name (default OS user)")
	f.StringVarP(&execFlags.database, "database", "d", "", "database name (default: username)")
	f.StringVar(&execFlags.password, "password", "", "database role password")
	f.StringVar(&execFlags.clientEncoding, "client_encoding", "", "client encoding to set on connect")
	f.DurationVar(&execFlags.connectTimeout, "connect_timeout", 0, "connection timeout (default 8s)")
}

func runExec(cmd *cobra.Command, args []string) error {
	// Load a .env file, if present, before flag resolution, so PGHOST/
	// PGPORT/PGUSER/PGPASSWORD/PGDATABASE set there are visible to
	// ConnectionConfig.WithDefaults below.
	_ = godotenv.Load()

	var logger pgspa.Logger = logging.NewConsoleLogger(verboseFlag(cmd))

	osUser := "postgres"
	if u, err := user.Current(); err == nil {
		osUser = u.Username
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("%w: determining working directory: %v", pgspa.ErrInvalidConfig, err)
	}
	root, err := config.FindProjectRoot(cwd)
	if err != nil {
		return fmt.Errorf("%w: locating project root: %v", pgspa.ErrInvalidConfig, err)
	}
	if root == "" {
		return fmt.Errorf("%w: no %s directory found in %q or any parent directory", pgspa.ErrInvalidConfig, pgspa.PolicyFileName, cwd)
	}
	logger.Verbose("project root: %s", root)

	cfg := pgspa.ConnectionConfig{
		Host:           execFlags.host,
		Address:        execFlags.address,
		Port:           execFlags.port,
		Username:       execFlags.username,
		Database:       execFlags.database,
		Password:       execFlags.password,
		ClientEncoding: execFlags.clientEncoding,
		ConnectTimeout: execFlags.connectTimeout,
	}.WithDefaults(osUser)

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.ConnectTimeout*4)
	defer cancel()

	sess, err := session.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer sess.Close(ctx)

	for _, ref := range args {
		logger.Verbose("resolving reference %q", ref)
		paths, err := resolver.Resolve(filepath.Join(root, ref))
		if err != nil {
			return err
		}

		batches, err := batch.LoadAll(paths)
		if err != nil {
			return err
		}

		result, err := executor.Run(ctx, sess, batches)
		if err != nil {
			return err
		}
		if !result.Ok {
			return diagnostic.ReportFailures(os.Stderr, result.Failures)
		}

		fmt.Printf("The reference %q. Executed queries count = %d.\n", ref, result.DoneCount)
	}

	return sess.Commit(ctx)
}
