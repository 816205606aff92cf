package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/stemrender/pkg/audio/pcm"
	"github.com/haivivi/stemrender/pkg/cli"
	"github.com/haivivi/stemrender/pkg/plan"
	"github.com/haivivi/stemrender/pkg/render"
)

var (
	planFile       string
	planSampleRate int
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Inspect a note plan",
	Long: `Inspect a plan without rendering it. The plan file is the JSON (or YAML)
plan object on its own, or a render request whose "plan" member is used.`,
}

// timelineReport is printed by plan timeline.
type timelineReport struct {
	render.Timeline `yaml:",inline"`

	TempoBPM    float64  `json:"tempo_bpm,omitempty" yaml:"tempo_bpm,omitempty"`
	Instruments []string `json:"instruments" yaml:"instruments"`
}

// loadPlan reads a plan document or the plan of a request document.
func loadPlan(path string) (*plan.Plan, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	var req struct {
		Plan *plan.Plan `json:"plan"`
	}
	if err := cli.ParseRequest(data, path, &req); err == nil && req.Plan != nil {
		return req.Plan, nil
	}
	var p plan.Plan
	if err := cli.ParseRequest(data, path, &p); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	return &p, nil
}

var planTimelineCmd = &cobra.Command{
	Use:   "timeline -f <plan>",
	Short: "Show the bars, duration and frame grid of a plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		if planFile == "" {
			return fmt.Errorf("flag -f is required")
		}
		if planSampleRate <= 0 {
			return fmt.Errorf("--sample-rate must be positive")
		}
		p, err := loadPlan(planFile)
		if err != nil {
			return err
		}
		return printResult(timelineReport{
			Timeline:    render.ResolveTimeline(p, planSampleRate),
			TempoBPM:    p.Meta.TempoBPM,
			Instruments: p.InstrumentNames(),
		})
	},
}

var planMIDICmd = &cobra.Command{
	Use:   "midi -f <plan> -o <out.mid>",
	Short: "Export a plan as a Standard MIDI File",
	RunE: func(cmd *cobra.Command, args []string) error {
		if planFile == "" {
			return fmt.Errorf("flag -f is required")
		}
		if outputFile == "" {
			return fmt.Errorf("flag -o is required")
		}
		p, err := loadPlan(planFile)
		if err != nil {
			return err
		}

		f, err := os.Create(outputFile)
		if err != nil {
			return err
		}
		if err := plan.WriteSMF(f, p); err != nil {
			f.Close()
			os.Remove(outputFile)
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "MIDI written to %s (%d tracks)\n", outputFile, len(p.InstrumentNames())+1)
		return nil
	},
}

func init() {
	planCmd.PersistentFlags().StringVarP(&planFile, "file", "f", "", "plan or request file (use '-' for stdin)")
	planTimelineCmd.Flags().IntVar(&planSampleRate, "sample-rate", pcm.DefaultSampleRate, "sample rate of the frame grid")

	planCmd.AddCommand(planTimelineCmd)
	planCmd.AddCommand(planMIDICmd)
	rootCmd.AddCommand(planCmd)
}
