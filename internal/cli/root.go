// Package cli assembles pgspa's cobra command tree: one file per verb
// (help is cobra's own default, version, init, exec), attached to a shared
// rootCmd.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitigr/pgspa/pkg/pgspa"
)

var rootCmd = &cobra.Command{
	Use:   "pgspa",
	Short: "Resolve and execute SQL references against PostgreSQL",
	Long: `pgspa resolves a file-path reference into an ordered list of SQL files
and applies all of their statements to a live server inside a single
transaction, tolerating forward references between statements by retrying
until nothing more can complete.`,
	SilenceUsage: true,
}

// Execute runs the root command and prints any error it returns, except one
// wrapping pgspa.ErrAlreadyReported, whose diagnostics are already on stderr.
func Execute() error {
	rootCmd.SilenceErrors = true
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, pgspa.ErrAlreadyReported) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose logging")
}

func verboseFlag(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("verbose")
	return v
}
