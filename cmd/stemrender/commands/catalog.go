package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/haivivi/stemrender/pkg/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the sample catalog",
	Long: `Import and inspect the sample catalog of the current context.

A manifest lists the assets of each instrument in preference order:

  instruments:
    kick:
      - {id: kick-01, path: drums/kick/01.wav, natural_pitch: 36}
      - {id: kick-02, path: drums/kick/02.mp3, gain_db: -3}

Importing replaces the asset lists of the instruments named in the manifest.`,
}

// assetTable is the table form of catalog list.
type assetTable []catalog.Asset

func (assetTable) Header() []string {
	return []string{"INSTRUMENT", "ORDER", "ID", "PATH", "NATURAL", "GAIN_DB"}
}

func (t assetTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, a := range t {
		natural, gain := "-", "-"
		if a.NaturalPitch != nil {
			natural = strconv.Itoa(*a.NaturalPitch)
		}
		if a.GainDB != nil {
			gain = strconv.FormatFloat(*a.GainDB, 'f', -1, 64)
		}
		rows = append(rows, []string{a.Instrument, strconv.Itoa(a.Order), a.ID, a.Path, natural, gain})
	}
	return rows
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <manifest.yaml>",
	Short: "Import a sample manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		m, err := catalog.ParseManifest(f)
		if err != nil {
			return err
		}

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		stats, err := catalog.Import(cmd.Context(), e.library, m)
		if err != nil {
			return err
		}
		return printResult(stats)
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list [instrument]",
	Short: "List catalog assets",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var instrument string
		if len(args) == 1 {
			instrument = args[0]
		}

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		assets, err := e.library.List(cmd.Context(), instrument)
		if err != nil {
			return err
		}
		if len(assets) == 0 && instrument != "" {
			return fmt.Errorf("instrument %q: %w", instrument, catalog.ErrNotFound)
		}
		return printResult(assetTable(assets))
	},
}

func init() {
	catalogCmd.AddCommand(catalogImportCmd)
	catalogCmd.AddCommand(catalogListCmd)
	rootCmd.AddCommand(catalogCmd)
}
