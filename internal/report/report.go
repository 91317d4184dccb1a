// Package report writes the human-readable messages of a run: one diagnostic
// per unparseable line and the closing summary. Both go to the message
// channel (stderr in the CLI), never to the data output.
package report

import (
	"fmt"
	"io"

	"github.com/ginjaninja78/ratefilter/internal/types"
)

// Reporter writes run messages to a single writer.
type Reporter struct {
	out io.Writer
}

// New creates a Reporter writing to out.
func New(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

// ParseError reports a line that could not be parsed. lineNumber is 1-based.
func (r *Reporter) ParseError(lineNumber int, err error) error {
	_, werr := fmt.Fprintf(r.out, "Error parsing line %d: %v\n", lineNumber, err)
	return werr
}

// Summary writes the end-of-run summary.
func (r *Reporter) Summary(stats types.ProcessingStats, threshold float64) error {
	_, err := fmt.Fprintf(r.out,
		"\nProcessing Summary:\nTotal lines processed: %d\nParsing errors: %d\nRecords with avg_rate <= %g: %d\n",
		stats.TotalLines,
		stats.ErrorCount,
		threshold,
		stats.SuccessfulRecords,
	)
	return err
}
