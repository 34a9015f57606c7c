// Command tapctl is the TAP Analytics command line.
package main

import (
	"fmt"
	"os"

	"tap-analytics-service/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
