// Package main is the entry point for the find-suppliers CLI.
package main

import (
	"os"

	"github.com/lucasfdcampos/find-suppliers/cmd/find-suppliers/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
