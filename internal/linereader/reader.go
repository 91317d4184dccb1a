// =============================================================================
// Negotiated Rate Filter - Line Reader
// =============================================================================
//
// This module turns an input byte stream into a forward-only sequence of text
// lines. It is the first stage of the pipeline and the only one that reads
// from the input.
//
// FEATURES:
//   - Lazy: one line is held in memory at a time
//   - No line length limit (price files routinely carry multi-megabyte lines)
//   - Line endings ("\n" and "\r\n") are stripped
//   - A final line without a trailing newline is still returned
//   - Any read fault or invalid UTF-8 stops iteration and is reported by Err
//
// USAGE:
//   r := linereader.New(input)
//   for r.Next() {
//       line := r.Line()
//       // Process the line...
//   }
//   if err := r.Err(); err != nil {
//       return err
//   }
//
// =============================================================================

package linereader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// ErrInvalidUTF8 is reported when a line is not valid UTF-8 text.
var ErrInvalidUTF8 = errors.New("stream did not contain valid UTF-8")

// defaultBufferSize is the read buffer size. Lines longer than the buffer are
// still read whole.
const defaultBufferSize = 64 * 1024

// =============================================================================
// READER
// =============================================================================

// Reader yields the lines of an input stream.
type Reader struct {
	reader     *bufio.Reader
	line       string
	lineNumber int
	err        error
	done       bool
}

// New creates a Reader over r.
func New(r io.Reader) *Reader {
	return &Reader{
		reader: bufio.NewReaderSize(r, defaultBufferSize),
	}
}

// Next advances to the next line. It returns false at end of stream or after
// a fault; call Err to tell the two apart.
func (r *Reader) Next() bool {
	if r.done {
		return false
	}

	raw, err := r.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		r.fail(fmt.Errorf("error reading line %d: %w", r.lineNumber+1, err))
		return false
	}
	if err == io.EOF {
		r.done = true
		if raw == "" {
			return false
		}
	}

	r.lineNumber++

	if !utf8.ValidString(raw) {
		r.fail(fmt.Errorf("error reading line %d: %w", r.lineNumber, ErrInvalidUTF8))
		return false
	}

	raw = strings.TrimSuffix(raw, "\n")
	r.line = strings.TrimSuffix(raw, "\r")
	return true
}

// fail records a fatal error and ends iteration.
func (r *Reader) fail(err error) {
	r.err = err
	r.done = true
	r.line = ""
}

// Line returns the current line without its line ending.
func (r *Reader) Line() string {
	return r.line
}

// LineNumber returns the 1-based number of the current line.
func (r *Reader) LineNumber() int {
	return r.lineNumber
}

// Err returns the fault that stopped iteration, or nil at a clean end of stream.
func (r *Reader) Err() error {
	return r.err
}
