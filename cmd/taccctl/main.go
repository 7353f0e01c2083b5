package main

import (
	"errors"
	"fmt"
	"os"

	"tacc.org/internal/cli"
)

var version = "0.1.0"

func main() {
	if err := cli.NewRootCommand(version).Execute(); err != nil {
		if !errors.Is(err, cli.ErrUnbalanced) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}
