// Command pgspa resolves file-path references into SQL files and executes
// them against a PostgreSQL server inside a single, dependency-tolerant
// transaction.
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/dmitigr/pgspa/internal/cli"
	"github.com/dmitigr/pgspa/pkg/pgspa"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(pgspa.ExitUnknownError)
		}
	}()

	if err := cli.Execute(); err != nil {
		os.Exit(pgspa.ExitCodeForError(err))
	}
}
