// =============================================================================
// Negotiated Rate Filter - Process Pipeline
// =============================================================================
//
// This file wires one filter run together.
//
// PROCESSING PIPELINE:
//   1. Resolve the configuration (flags, env, file, defaults)
//   2. Open the input and detect its compression
//   3. Create the output and wrap it in a digest writer
//   4. Build the sink for the configured format (csv or xlsx)
//   5. Run the converter: rows to the sink, diagnostics and the summary to
//      stderr
//   6. Close the output and log the run totals
//
// Any error ends the run with a non-zero exit status. Lines that fail to
// parse are not errors.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/ratefilter/internal/config"
	"github.com/ginjaninja78/ratefilter/internal/converter"
	"github.com/ginjaninja78/ratefilter/internal/csvwriter"
	"github.com/ginjaninja78/ratefilter/internal/logging"
	"github.com/ginjaninja78/ratefilter/internal/report"
	"github.com/ginjaninja78/ratefilter/internal/xlsxwriter"
	"github.com/ginjaninja78/ratefilter/pkg/utils"
)

// runProcess executes one filter run.
func runProcess(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	logger := logging.NewRunLogger(logging.New(cfg.Log, cmd.ErrOrStderr()))
	logger.Info().
		Str("input", utils.DescribePath(cfg.Input, "stdin")).
		Str("output", utils.DescribePath(cfg.Output, "stdout")).
		Str("format", cfg.Format).
		Msg("starting run")

	input, err := openInput(cmd, cfg)
	if err != nil {
		return err
	}
	defer input.Close()

	output, err := createOutput(cmd, cfg)
	if err != nil {
		return err
	}

	digest := utils.NewDigestWriter(output)
	sink, err := newSink(cfg, digest)
	if err != nil {
		output.Close()
		return err
	}

	conv := converter.New(sink, report.New(cmd.ErrOrStderr()), logging.WithComponent(logger, "converter"))
	result, runErr := conv.Run(input)
	closeErr := output.Close()

	if runErr != nil {
		logger.Error().Err(runErr).Int("lines", result.Stats.TotalLines).Msg("run failed")
		return runErr
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close output: %w", closeErr)
	}

	logger.Info().
		Int("total_lines", result.Stats.TotalLines).
		Int("parse_errors", result.Stats.ErrorCount).
		Int("written", result.Stats.SuccessfulRecords).
		Int("skipped", result.Stats.Skipped()).
		Int64("bytes", digest.Written()).
		Str("xxhash64", digest.Hex()).
		Dur("elapsed", result.ProcessingTime).
		Msg("run complete")

	return nil
}

// openInput opens the configured input, reading cmd's stdin for "-" or "".
func openInput(cmd *cobra.Command, cfg *config.Config) (io.ReadCloser, error) {
	if utils.IsStdStream(cfg.Input) {
		return utils.Decompress(io.NopCloser(cmd.InOrStdin()), cfg.Compression)
	}
	return utils.OpenInput(cfg.Input, cfg.Compression)
}

// createOutput creates the configured output, writing cmd's stdout for "-" or "".
func createOutput(cmd *cobra.Command, cfg *config.Config) (io.WriteCloser, error) {
	if utils.IsStdStream(cfg.Output) {
		return utils.NopWriteCloser(cmd.OutOrStdout()), nil
	}
	return utils.CreateOutput(cfg.Output)
}

// newSink builds the row sink for the configured format.
func newSink(cfg *config.Config, out io.Writer) (converter.Sink, error) {
	switch cfg.Format {
	case config.FormatXLSX:
		return xlsxwriter.New(out, xlsxwriter.Options{
			SheetName: cfg.SheetName,
			Precision: cfg.Precision,
		})
	default:
		return csvwriter.NewWithOptions(out, csvwriter.Options{Precision: cfg.Precision}), nil
	}
}
