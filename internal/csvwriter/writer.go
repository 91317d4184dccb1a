// =============================================================================
// Negotiated Rate Filter - CSV Writer Module
// =============================================================================
//
// This module serializes accepted records to CSV. It is the default output
// sink of the pipeline.
//
// OUTPUT STRUCTURE:
//   name,billing_code,avg_rate
//   A,100,15
//   "Office visit, extended",99215,27.5
//
//   - The header row is derived from the csv tags of types.OutputRecord and
//     is written exactly once, before the first data row. A run that accepts
//     no records still produces the header when the writer is flushed.
//   - Text fields are quoted per RFC 4180 when they contain the delimiter,
//     a quote or a line break.
//   - All writes are buffered; Flush must be called before the output is
//     closed.
//
// =============================================================================

package csvwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/ratefilter/internal/types"
)

// =============================================================================
// WRITER OPTIONS
// =============================================================================

// Options controls how rows are rendered.
type Options struct {
	// Precision is the number of decimal places for avg_rate.
	// A negative value prints the shortest representation that round-trips.
	// Default: -1
	Precision int
}

// MaxPrecision is the largest supported number of decimal places. A float64
// carries no more than 17 significant digits.
const MaxPrecision = 20

// DefaultOptions returns the default writer options.
func DefaultOptions() Options {
	return Options{Precision: -1}
}

// =============================================================================
// WRITER
// =============================================================================

// Writer is a buffered CSV sink for output records.
type Writer struct {
	csv           *csv.Writer
	options       Options
	headerWritten bool
	rows          int
}

// New creates a Writer on w with default options.
func New(w io.Writer) *Writer {
	return NewWithOptions(w, DefaultOptions())
}

// NewWithOptions creates a Writer on w with custom options.
func NewWithOptions(w io.Writer, options Options) *Writer {
	return &Writer{
		csv:     csv.NewWriter(w),
		options: options,
	}
}

// Write appends one row, writing the header first if needed.
func (w *Writer) Write(rec types.OutputRecord) error {
	if err := w.writeHeader(); err != nil {
		return err
	}

	row := []string{
		rec.Name,
		rec.BillingCode,
		FormatRate(rec.AvgRate, w.options.Precision),
	}
	if err := w.csv.Write(row); err != nil {
		return fmt.Errorf("failed to write row %d: %w", w.rows+1, err)
	}
	w.rows++
	return nil
}

// Flush writes any buffered data, including the header if no row was written.
func (w *Writer) Flush() error {
	if err := w.writeHeader(); err != nil {
		return err
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV output: %w", err)
	}
	return nil
}

// Rows returns the number of data rows written so far.
func (w *Writer) Rows() int {
	return w.rows
}

func (w *Writer) writeHeader() error {
	if w.headerWritten {
		return nil
	}
	if err := w.csv.Write(types.OutputHeader()); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	w.headerWritten = true
	return nil
}

// =============================================================================
// NUMBER FORMATTING
// =============================================================================

// FormatRate renders an average rate for output.
//
// With a negative precision the shortest decimal form that parses back to the
// same float64 is used (15, 12.5, 0.1). Otherwise the value is rounded half
// away from zero to precision places, at most MaxPrecision. NaN and
// infinities use Go's spelling.
func FormatRate(rate float64, precision int) string {
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return strconv.FormatFloat(rate, 'f', -1, 64)
	}
	if precision < 0 {
		return strconv.FormatFloat(rate, 'f', -1, 64)
	}
	return decimal.NewFromFloat(rate).StringFixed(int32(min(precision, MaxPrecision)))
}

// RoundRate rounds rate the same way FormatRate does, for sinks that store
// numbers rather than text.
func RoundRate(rate float64, precision int) float64 {
	if precision < 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return rate
	}
	return decimal.NewFromFloat(rate).Round(int32(min(precision, MaxPrecision))).InexactFloat64()
}
