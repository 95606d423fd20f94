// Package main provides the CLI entrypoint for bytegraft.
//
// bytegraft grafts patch code into compiled JVM classes:
//   - Reads redirect sets and targets from YAML documents or class markers
//   - Rewrites every type, field and method reference the grafted code makes
//   - Writes the transformed classes to a directory or any afs location
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "bytegraft:", err)
		os.Exit(1)
	}
}
