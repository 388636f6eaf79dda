package main

import (
	"fmt"
	"os"

	"github.com/adsight/fbads-mcp/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(cli.ExitCodeFor(err))
	}
}
