// =============================================================================
// Negotiated Rate Filter - Converter Module
// =============================================================================
//
// This module runs the record pipeline over one input stream. It is the only
// place where the outcome of a line turns into side effects.
//
// PROCESSING PIPELINE (per line, strictly in input order):
//   1. Read the next line                       (linereader)
//   2. Parse, average and filter it             (Transformer)
//   3. Apply the outcome:
//        ParseError -> error_count++, diagnostic with the line number
//        Accepted   -> write the row to the sink, successful_records++
//        NoRate     -> nothing
//        Rejected   -> nothing
//   After the last line:
//   4. Flush the sink
//   5. Write the summary
//
// ERROR HANDLING:
//   Parse failures are data, not errors: they are counted and reported and
//   the run continues. Any I/O failure (reading input, writing a row, writing
//   a diagnostic, flushing) ends the run immediately with an error, and the
//   summary is not written.
//
// CONCURRENCY:
//   None. A Converter runs one input to completion on the calling goroutine
//   and must not be shared between concurrent runs.
//
// =============================================================================

package converter

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/ginjaninja78/ratefilter/internal/linereader"
	"github.com/ginjaninja78/ratefilter/internal/logging"
	"github.com/ginjaninja78/ratefilter/internal/report"
	"github.com/ginjaninja78/ratefilter/internal/types"
)

// =============================================================================
// SINK AND RESULT
// =============================================================================

// Sink receives accepted records. Implementations buffer; Flush must make
// every written row durable in the underlying output.
type Sink interface {
	Write(rec types.OutputRecord) error
	Flush() error
}

// Result is the outcome of a run.
type Result struct {
	// Stats holds the counters. On a failed run they reflect the lines
	// processed before the failure.
	Stats types.ProcessingStats

	// ProcessingTime is the wall time of the run.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER
// =============================================================================

// Converter connects a line reader, the transformer and a sink.
type Converter struct {
	transformer *Transformer
	sink        Sink
	reporter    *report.Reporter
	logger      zerolog.Logger
}

// New creates a Converter writing rows to sink and messages to reporter.
func New(sink Sink, reporter *report.Reporter, logger zerolog.Logger) *Converter {
	return &Converter{
		transformer: NewTransformer(),
		sink:        sink,
		reporter:    reporter,
		logger:      logger,
	}
}

// Run processes input to the end.
//
// RETURNS:
//   - The run statistics.
//   - An error for any I/O fault. When an error is returned no summary has
//     been written and the output may be incomplete.
func (c *Converter) Run(input io.Reader) (Result, error) {
	startTime := time.Now()
	var stats types.ProcessingStats

	lines := linereader.New(input)
	for lines.Next() {
		stats.TotalLines++

		outcome := c.transformer.ParseAndScore(lines.Line())
		if err := c.apply(lines.LineNumber(), outcome, &stats); err != nil {
			return Result{Stats: stats, ProcessingTime: time.Since(startTime)}, err
		}
	}

	if err := lines.Err(); err != nil {
		return Result{Stats: stats, ProcessingTime: time.Since(startTime)},
			fmt.Errorf("failed to read input: %w", err)
	}

	if err := c.sink.Flush(); err != nil {
		return Result{Stats: stats, ProcessingTime: time.Since(startTime)},
			fmt.Errorf("failed to flush output: %w", err)
	}

	if err := c.reporter.Summary(stats, MaxAverageRate); err != nil {
		return Result{Stats: stats, ProcessingTime: time.Since(startTime)},
			fmt.Errorf("failed to write summary: %w", err)
	}

	return Result{Stats: stats, ProcessingTime: time.Since(startTime)}, nil
}

// apply performs the side effects of one outcome.
func (c *Converter) apply(lineNumber int, outcome Outcome, stats *types.ProcessingStats) error {
	event := c.logger.Debug().
		Int(logging.FieldLine, lineNumber).
		Stringer(logging.FieldOutcome, outcome.Kind)

	switch outcome.Kind {
	case OutcomeParseError:
		stats.ErrorCount++
		event.Err(outcome.Err).Msg("line skipped")
		if err := c.reporter.ParseError(lineNumber, outcome.Err); err != nil {
			return fmt.Errorf("failed to write diagnostic: %w", err)
		}

	case OutcomeAccepted:
		if err := c.sink.Write(outcome.Record); err != nil {
			return fmt.Errorf("failed to write record from line %d: %w", lineNumber, err)
		}
		stats.SuccessfulRecords++
		event.Float64("avg_rate", outcome.Record.AvgRate).Msg("record written")

	case OutcomeRejected:
		event.Float64("avg_rate", outcome.Record.AvgRate).Msg("record above threshold")

	case OutcomeNoRate:
		event.Msg("record has no prices")
	}

	return nil
}
