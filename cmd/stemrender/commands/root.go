package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/stemrender/cmd/stemrender/internal/config"
	"github.com/haivivi/stemrender/pkg/cli"
)

var (
	// Global flags
	verbose      bool
	contextName  string
	formatOutput string
	outputFile   string

	// Global configuration (loaded at init time)
	globalConfig *config.Config

	logger = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "stemrender",
	Short: "Render instrument stems and a master mix from note plans",
	Long: `stemrender - render per-instrument stems and a stereo master from a
bar/step note plan and a catalog of one-shot samples.

Configuration is stored in the OS config directory:
  macOS:   ~/Library/Application Support/stemrender/
  Linux:   ~/.config/stemrender/
  Windows: %AppData%/stemrender/
Set STEMRENDER_CONFIG_DIR to use another directory.

Each context holds a render.yaml describing where samples are read from,
where renders are written, and where the catalog and run databases live.

Examples:
  # Create a context and point it at local directories
  stemrender config add-context dev
  stemrender config set dev samples.dir ~/samples
  stemrender config set dev output.dir ~/renders
  stemrender config set dev catalog_dir ~/.stemrender/db
  stemrender config set dev runs_dir ~/.stemrender/db
  stemrender config use-context dev

  # Import samples and render
  stemrender catalog import manifest.yaml
  stemrender render -f request.yaml
  stemrender runs list demo`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
		_, err := cli.ParseFormat(formatOutput)
		return err
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logs)")
	rootCmd.PersistentFlags().StringVarP(&contextName, "context", "c", "", "context to use (default: current context)")
	rootCmd.PersistentFlags().StringVar(&formatOutput, "format", "yaml", "output format: yaml, json or table")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "write the result to a file instead of stdout")
}

// configLoadErr stores the error from config.Load() for deferred reporting.
var configLoadErr error

func initConfig() {
	cfg, err := config.Load()
	if err != nil {
		// Commands that need config report it via GetConfig; 'version'
		// still works.
		configLoadErr = err
		globalConfig = nil
		return
	}
	configLoadErr = nil
	globalConfig = cfg
}

// GetConfig returns the global configuration.
func GetConfig() (*config.Config, error) {
	if globalConfig == nil {
		if configLoadErr != nil {
			return nil, fmt.Errorf("config not available: %w", configLoadErr)
		}
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("config not available: %w", err)
		}
		globalConfig = cfg
	}
	return globalConfig, nil
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}

// outputFormat returns the --format value, already validated by the root
// command.
func outputFormat() cli.OutputFormat {
	f, _ := cli.ParseFormat(formatOutput)
	return f
}

// printResult writes v in the selected --format to stdout or --output.
func printResult(v any) error {
	return cli.Output(v, cli.OutputOptions{Format: outputFormat(), File: outputFile})
}
