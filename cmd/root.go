// =============================================================================
// Negotiated Rate Filter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Running the root
// command with no subcommand runs the filter.
//
// COBRA CLI STRUCTURE:
//   ratefilter            run the filter (see process.go)
//   ├── config            print the effective configuration
//   └── version           print version information
//
// STREAMS:
//   stdout   CSV/XLSX output when no --output is given
//   stderr   parse diagnostics, the run summary and operational logs
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/ratefilter/internal/config"
	"github.com/ginjaninja78/ratefilter/internal/xlsxwriter"
	"github.com/ginjaninja78/ratefilter/pkg/utils"
)

// rootOptions holds the flags that are not configuration keys.
type rootOptions struct {
	// cfgFile is an explicit configuration file.
	cfgFile string

	// verbose forces debug logging.
	verbose bool
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "ratefilter",
		Short: "Filter negotiated rates by their average",
		Long: `ratefilter reads JSON Lines records of negotiated rates, averages every
negotiated_rate of each record and writes the records whose average is at most
30.0 as CSV rows (name, billing_code, avg_rate).

Malformed lines are reported on stderr with their line number and skipped.
A processing summary is printed on stderr when the run completes.

Example Usage:
  ratefilter -i rates.jsonl -o cheap.csv
  zcat rates.jsonl.gz | ratefilter > cheap.csv
  ratefilter -i rates.jsonl.zst --format xlsx -o cheap.xlsx --precision 2`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, opts)
		},
	}

	// ==========================================================================
	// PERSISTENT FLAGS
	// ==========================================================================
	// Every configuration key has a flag, and all of them are persistent so
	// that 'config' reports the same values a run would use.

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.cfgFile, "config", "",
		"Path to a configuration file (default: ./"+config.DefaultConfigName+".yaml if present)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Log every line's outcome (forces debug logging)")

	pf.StringP("input", "i", "", "Input JSON Lines file (default: stdin)")
	pf.StringP("output", "o", "", "Output file (default: stdout)")
	pf.String("format", config.FormatCSV, "Output format: csv or xlsx")
	pf.Int("precision", -1, "Decimal places for avg_rate (-1: shortest exact form)")
	pf.String("compression", utils.CompressionAuto, "Input compression: auto, none, gzip, zstd or lz4")
	pf.String("sheet", xlsxwriter.DefaultSheetName, "Worksheet name for the xlsx format")
	pf.String("log-level", "warn", "Log level: trace, debug, info, warn or error")
	pf.String("log-format", "console", "Log format: console or json")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(opts))

	return rootCmd
}

// Execute runs the CLI. It is called by main.main().
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig resolves the configuration for cmd.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{
		ConfigFile: opts.cfgFile,
		Flags:      cmd.Flags(),
	})
	if err != nil {
		return nil, err
	}

	if opts.verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}
