// =============================================================================
// Negotiated Rate Filter - XLSX Writer Module
// =============================================================================
//
// This module writes accepted records to a single-sheet XLSX workbook. It is
// the alternative output sink selected with `--format xlsx`.
//
// SHEET STRUCTURE:
//   | Column A | Column B     | Column C |
//   |----------|--------------|----------|
//   | name     | billing_code | avg_rate |
//   | A        | 100          | 15       |
//
//   - Row 1 holds the same header as the CSV output.
//   - name and billing_code are text cells; avg_rate is a numeric cell,
//     except for non-finite values which the format cannot store and which
//     are written as text.
//   - Rows are streamed through excelize's StreamWriter, so only the current
//     row is held by this module. The workbook itself is serialized to the
//     output when Flush is called.
//
// =============================================================================

package xlsxwriter

import (
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/ratefilter/internal/csvwriter"
	"github.com/ginjaninja78/ratefilter/internal/types"
)

// DefaultSheetName is the sheet used when none is configured.
const DefaultSheetName = "rates"

// =============================================================================
// WRITER OPTIONS
// =============================================================================

// Options controls the workbook layout.
type Options struct {
	// SheetName is the name of the only sheet in the workbook.
	// Default: "rates"
	SheetName string

	// Precision is the number of decimal places avg_rate is rounded to.
	// A negative value stores the value unrounded.
	// Default: -1
	Precision int
}

// DefaultOptions returns the default writer options.
func DefaultOptions() Options {
	return Options{
		SheetName: DefaultSheetName,
		Precision: -1,
	}
}

// =============================================================================
// WRITER
// =============================================================================

// Writer streams output records into an XLSX workbook.
type Writer struct {
	out     io.Writer
	file    *excelize.File
	stream  *excelize.StreamWriter
	options Options
	nextRow int
	flushed bool
}

// New creates a Writer that serializes the workbook to out on Flush.
func New(out io.Writer, options Options) (*Writer, error) {
	if options.SheetName == "" {
		options.SheetName = DefaultSheetName
	}

	f := excelize.NewFile()

	// NewFile creates "Sheet1"; rename it rather than adding a second sheet.
	if err := f.SetSheetName(f.GetSheetName(0), options.SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet %q: %w", options.SheetName, err)
	}

	stream, err := f.NewStreamWriter(options.SheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to open sheet stream: %w", err)
	}

	w := &Writer{
		out:     out,
		file:    f,
		stream:  stream,
		options: options,
		nextRow: 1,
	}

	header := types.OutputHeader()
	cells := make([]interface{}, len(header))
	for i, name := range header {
		cells[i] = name
	}
	if err := w.appendRow(cells); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	return w, nil
}

// Write appends one record as a sheet row.
func (w *Writer) Write(rec types.OutputRecord) error {
	if w.flushed {
		return fmt.Errorf("write after flush")
	}

	var rate interface{}
	if math.IsNaN(rec.AvgRate) || math.IsInf(rec.AvgRate, 0) {
		rate = csvwriter.FormatRate(rec.AvgRate, w.options.Precision)
	} else {
		rate = csvwriter.RoundRate(rec.AvgRate, w.options.Precision)
	}

	if err := w.appendRow([]interface{}{rec.Name, rec.BillingCode, rate}); err != nil {
		return fmt.Errorf("failed to write row %d: %w", w.nextRow-1, err)
	}
	return nil
}

// Flush finalizes the sheet and writes the workbook to the output. The
// writer cannot be used afterwards.
func (w *Writer) Flush() error {
	if w.flushed {
		return nil
	}
	w.flushed = true
	defer w.file.Close()

	if err := w.stream.Flush(); err != nil {
		return fmt.Errorf("failed to finalize sheet: %w", err)
	}
	if _, err := w.file.WriteTo(w.out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Rows returns the number of data rows written so far.
func (w *Writer) Rows() int {
	return w.nextRow - 2
}

func (w *Writer) appendRow(cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, w.nextRow)
	if err != nil {
		return err
	}
	if err := w.stream.SetRow(cell, cells); err != nil {
		return err
	}
	w.nextRow++
	return nil
}
