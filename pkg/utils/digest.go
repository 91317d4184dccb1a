package utils

import (
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
)

// DigestWriter passes writes through to an underlying writer while hashing
// every byte that was accepted. Two runs that write the same bytes report the
// same digest.
type DigestWriter struct {
	w       io.Writer
	hash    *xxhash.Digest
	written int64
}

// NewDigestWriter wraps w.
func NewDigestWriter(w io.Writer) *DigestWriter {
	return &DigestWriter{w: w, hash: xxhash.New()}
}

// Write implements io.Writer.
func (d *DigestWriter) Write(p []byte) (int, error) {
	n, err := d.w.Write(p)
	if n > 0 {
		_, _ = d.hash.Write(p[:n])
		d.written += int64(n)
	}
	return n, err
}

// Sum64 returns the xxhash64 of the bytes written so far.
func (d *DigestWriter) Sum64() uint64 {
	return d.hash.Sum64()
}

// Hex returns Sum64 as 16 lowercase hex digits.
func (d *DigestWriter) Hex() string {
	return fmt.Sprintf("%016x", d.hash.Sum64())
}

// Written returns the number of bytes written so far.
func (d *DigestWriter) Written() int64 {
	return d.written
}
