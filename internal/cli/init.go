package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitigr/pgspa/pkg/pgspa"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Mark the current directory as a pgspa project root",
	Long: `init creates the .pgspa marker directory in the current working
directory. The exec command walks up from its working directory looking for
the nearest ancestor that has one, and resolves references relative to it.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if err := os.Mkdir(pgspa.PolicyFileName, 0o755); err != nil {
		if os.IsExist(err) {
			return nil
		}
		return err
	}
	// Set rwxr-xr-x explicitly rather than trusting the process umask.
	if err := os.Chmod(pgspa.PolicyFileName, 0o755); err != nil {
		return fmt.Errorf("setting permissions on %s: %w", pgspa.PolicyFileName, err)
	}
	return nil
}
