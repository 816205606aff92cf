// Package main is the entry point for the stemrender CLI.
//
// Usage:
//
//	stemrender [flags] <command> [subcommand] [args]
//
// Commands:
//
//	config     - Configuration management (contexts, render.yaml)
//	render     - Render stems and a master from a request file
//	catalog    - Import and list sample assets
//	runs       - Inspect recorded render runs
//	plan       - Inspect a plan (timeline, MIDI export)
//	version    - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/haivivi/stemrender/cmd/stemrender/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
