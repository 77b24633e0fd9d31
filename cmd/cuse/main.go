// Package main provides the entry point for the cuse CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/cuse/cmd/cuse/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
