// Command tradecal builds exchange trading calendars and serves them.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/tradecal/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
