// Package main is the entry point for the virtadm CLI.
package main

import (
	"fmt"
	"os"

	"github.com/jgaskill/virtadm/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
