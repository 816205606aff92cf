package commands

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/stemrender/pkg/runs"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect recorded render runs",
}

// runTable is the table form of runs list.
type runTable []runs.Record

func (runTable) Header() []string {
	return []string{"PROJECT", "RUN", "STATUS", "CREATED", "MISSING"}
}

func (t runTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, r := range t {
		rows = append(rows, []string{
			r.Project,
			r.RunID,
			string(r.Status),
			r.CreatedAt.Local().Format(time.DateTime),
			strings.Join(r.Missing, ","),
		})
	}
	return rows
}

var runsListCmd = &cobra.Command{
	Use:   "list [project]",
	Short: "List runs, optionally of one project",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var project string
		if len(args) == 1 {
			project = args[0]
		}

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		records, err := e.registry.List(cmd.Context(), project)
		if err != nil {
			return err
		}
		return printResult(runTable(records))
	},
}

var runsGetCmd = &cobra.Command{
	Use:   "get <project> <run_id>",
	Short: "Show one run",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		rec, err := e.registry.Get(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		return printResult(rec)
	},
}

func init() {
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsGetCmd)
	rootCmd.AddCommand(runsCmd)
}
