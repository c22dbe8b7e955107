package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set via -ldflags "-X ...cli.version=MAJOR.MINOR" at build
// time; "dev" is used for local, unversioned builds.
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		// Bare "MAJOR.MINOR" and nothing else: no banner, no repository link.
		fmt.Println(version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
