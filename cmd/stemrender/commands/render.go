package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haivivi/stemrender/pkg/cli"
	"github.com/haivivi/stemrender/pkg/render"
)

var (
	renderFile    string
	renderDryRun  bool
	renderRunID   string
	renderProject string
)

// mixdownReport is printed by --dry-run.
type mixdownReport struct {
	Project    string               `json:"project" yaml:"project"`
	Timeline   render.Timeline      `json:"timeline" yaml:"timeline"`
	Tracks     []render.TrackReport `json:"tracks" yaml:"tracks"`
	Missing    []string             `json:"missing" yaml:"missing"`
	MasterPeak float64              `json:"master_peak" yaml:"master_peak"`
}

var renderCmd = &cobra.Command{
	Use:   "render -f <request>",
	Short: "Render stems and a master from a request file",
	Long: `Render one request. The request is a YAML or JSON document with
project_name, an optional run_id, the plan, optional per-instrument layer
overrides, track settings, selected samples and fade_seconds. Use '-' to
read it from stdin.

Stems are written to {project}/{run_id}/stems/{instrument}.wav and the
master to {project}/{run_id}/master.wav in the context's output store.

Examples:
  stemrender render -f request.yaml
  stemrender render -f request.json --run-id take-2 --format json
  stemrender render -f request.yaml --dry-run --format table`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if renderFile == "" {
			return fmt.Errorf("flag -f is required")
		}

		var req render.Request
		if err := cli.LoadRequest(renderFile, &req); err != nil {
			return err
		}
		if renderRunID != "" {
			req.RunID = renderRunID
		}
		if renderProject != "" {
			req.ProjectName = renderProject
		}

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		engine, err := e.engine()
		if err != nil {
			return err
		}

		if renderDryRun {
			mix, err := engine.Mixdown(cmd.Context(), req)
			if err != nil {
				return err
			}
			report := mixdownReport{
				Project:    req.ProjectName,
				Timeline:   mix.Timeline,
				Tracks:     mix.Tracks,
				Missing:    mix.Missing,
				MasterPeak: mix.Master.Peak(),
			}
			if outputFormat() == cli.FormatTable {
				fmt.Println(summaryCard(req.ProjectName, "dry run", mix.Timeline.DurationSeconds, mix.Tracks, mix.Missing))
				return nil
			}
			return printResult(report)
		}

		res, err := engine.Render(cmd.Context(), req)
		if err != nil {
			return err
		}
		for _, m := range res.Missing {
			cli.PrintWarning("instrument %q has no usable sample and was skipped", m)
		}
		if outputFormat() == cli.FormatTable {
			fmt.Println(summaryCard(req.ProjectName+"/"+res.RunID, "complete", res.DurationSeconds, res.Tracks, res.Missing))
			fmt.Println(res.Master.Location)
			return nil
		}
		return printResult(res)
	},
}

func summaryCard(title, status string, seconds float64, tracks []render.TrackReport, missing []string) string {
	styles := cli.NewStyles(cli.DefaultTheme)
	var stems []string
	for _, t := range tracks {
		if t.Missing {
			continue
		}
		stems = append(stems, fmt.Sprintf("%-12s %-10s %3d placed %3d dropped %3d stolen  %s",
			t.Instrument, t.SampleID, t.Placed, t.Dropped, t.Stolen, cli.FormatPeak(t.Peak)))
	}
	sections := []cli.Section{
		{Label: "Timeline", Lines: []string{cli.FormatSeconds(seconds)}},
		{Label: "Stems", Lines: stems},
	}
	if len(missing) > 0 {
		sections = append(sections, cli.Section{
			Label: "Missing",
			Lines: []string{styles.Warn.Render(strings.Join(missing, ", "))},
		})
	}
	width := 72
	if w, ok := terminalWidth(); ok {
		width = min(w, 100)
	}
	return cli.Card{Styles: styles, Title: title, Status: status, Sections: sections}.Render(width)
}

// terminalWidth reads $COLUMNS, which most shells export.
func terminalWidth() (int, bool) {
	var w int
	if _, err := fmt.Sscan(os.Getenv("COLUMNS"), &w); err != nil || w < 20 {
		return 0, false
	}
	return w, true
}

func init() {
	renderCmd.Flags().StringVarP(&renderFile, "file", "f", "", "request YAML/JSON file (use '-' for stdin)")
	renderCmd.Flags().BoolVar(&renderDryRun, "dry-run", false, "render in memory and report without writing outputs")
	renderCmd.Flags().StringVar(&renderRunID, "run-id", "", "override the request's run id")
	renderCmd.Flags().StringVar(&renderProject, "project", "", "override the request's project name")
	rootCmd.AddCommand(renderCmd)
}
