// =============================================================================
// Negotiated Rate Filter - Stream Utilities
// =============================================================================
//
// This module provides the I/O plumbing around the pipeline:
//   - Opening the input (a file path, or standard input for "" and "-")
//   - Transparent decompression of gzip, zstd and lz4 input
//   - Creating the output (a file path, or standard output for "" and "-")
//
// COMPRESSION DETECTION:
//   In "auto" mode the first bytes of the stream are inspected:
//     gzip  1f 8b
//     zstd  28 b5 2f fd
//     lz4   04 22 4d 18   (frame format)
//   Anything else is read as plain text. Detection works on standard input
//   as well as files because it peeks instead of seeking.
//
// =============================================================================

package utils

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression names accepted by OpenInput.
const (
	CompressionAuto = "auto"
	CompressionNone = "none"
	CompressionGzip = "gzip"
	CompressionZstd = "zstd"
	CompressionLZ4  = "lz4"
)

var (
	magicGzip = []byte{0x1f, 0x8b}
	magicZstd = []byte{0x28, 0xb5, 0x2f, 0xfd}
	magicLZ4  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// ValidCompression reports whether name is an accepted compression name.
func ValidCompression(name string) bool {
	switch name {
	case CompressionAuto, CompressionNone, CompressionGzip, CompressionZstd, CompressionLZ4:
		return true
	}
	return false
}

// IsStdStream reports whether path refers to the process's standard stream.
func IsStdStream(path string) bool {
	return path == "" || path == "-"
}

// =============================================================================
// INPUT
// =============================================================================

// OpenInput opens path (or standard input) and wraps it in the decompressor
// selected by compression. Closing the result closes the decompressor and the
// underlying file, but never standard input.
func OpenInput(path, compression string) (io.ReadCloser, error) {
	var src io.ReadCloser
	if IsStdStream(path) {
		src = io.NopCloser(os.Stdin)
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open input file: %w", err)
		}
		src = f
	}

	rc, err := Decompress(src, compression)
	if err != nil {
		src.Close()
		return nil, err
	}
	return rc, nil
}

// Decompress wraps src according to compression. The returned ReadCloser
// closes src.
func Decompress(src io.ReadCloser, compression string) (io.ReadCloser, error) {
	buffered := bufio.NewReader(src)

	if compression == "" || compression == CompressionAuto {
		detected, err := detectCompression(buffered)
		if err != nil {
			return nil, err
		}
		compression = detected
	}

	switch compression {
	case CompressionNone:
		return &stackedReader{Reader: buffered, closers: []io.Closer{src}}, nil

	case CompressionGzip:
		zr, err := gzip.NewReader(buffered)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		return &stackedReader{Reader: zr, closers: []io.Closer{zr, src}}, nil

	case CompressionZstd:
		zr, err := zstd.NewReader(buffered)
		if err != nil {
			return nil, fmt.Errorf("failed to open zstd stream: %w", err)
		}
		return &stackedReader{Reader: zr, closers: []io.Closer{closerFunc(zr.Close), src}}, nil

	case CompressionLZ4:
		return &stackedReader{Reader: lz4.NewReader(buffered), closers: []io.Closer{src}}, nil

	default:
		return nil, fmt.Errorf("unsupported compression %q", compression)
	}
}

// detectCompression peeks at the stream head without consuming it.
func detectCompression(r *bufio.Reader) (string, error) {
	head, err := r.Peek(4)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read input header: %w", err)
	}

	switch {
	case bytes.HasPrefix(head, magicGzip):
		return CompressionGzip, nil
	case bytes.HasPrefix(head, magicZstd):
		return CompressionZstd, nil
	case bytes.HasPrefix(head, magicLZ4):
		return CompressionLZ4, nil
	default:
		return CompressionNone, nil
	}
}

// stackedReader reads from the outermost reader and closes every layer in order.
type stackedReader struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedReader) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type closerFunc func()

func (f closerFunc) Close() error {
	f()
	return nil
}

// =============================================================================
// OUTPUT
// =============================================================================

// CreateOutput creates (or truncates) path, or returns standard output.
// Closing standard output through the result is a no-op.
func CreateOutput(path string) (io.WriteCloser, error) {
	if IsStdStream(path) {
		return NopWriteCloser(os.Stdout), nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// NopWriteCloser returns a WriteCloser whose Close does nothing.
func NopWriteCloser(w io.Writer) io.WriteCloser {
	return nopWriteCloser{w}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// DescribePath renders a path for log messages.
func DescribePath(path, stdName string) string {
	if IsStdStream(path) {
		return stdName
	}
	return strings.TrimSpace(path)
}
