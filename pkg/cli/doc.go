// Package cli provides common utilities for the stemrender command-line tool.
//
// This package includes:
//   - Output formatting (YAML, JSON, table)
//   - Request file loading (YAML/JSON, or stdin with "-")
//   - Human-readable durations, sizes and levels
//   - lipgloss cards for run summaries
//
// Example usage:
//
//	var req render.Request
//	if err := cli.LoadRequest("request.yaml", &req); err != nil {
//	    return err
//	}
//
//	cli.Output(result, cli.OutputOptions{
//	    Format: cli.FormatJSON,
//	    File:   outputPath,
//	})
package cli
