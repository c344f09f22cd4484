// Package main provides the leapcst CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/leapcst/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
