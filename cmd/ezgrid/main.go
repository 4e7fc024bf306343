// cmd/ezgrid/main.go
package main

import (
	"os"

	"github.com/nhath/ezgrid/internal/cli"
)

func main() {
	if err := cli.RootCommand.Execute(); err != nil {
		os.Exit(1)
	}
}
