package core

// streaming.go wraps the raw input so the line scanner sees clean UTF-8:
//
//   - a leading UTF-8 BOM (common in files saved by Windows tools) is dropped
//   - invalid UTF-8 sequences become U+FFFD
//   - legacy 8-bit inputs are decoded from their charset first
//   - bytes read are counted for progress reporting
//
// Use WrapForStreaming to apply all transforms in the correct order.

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// StreamingCountingReader wraps an io.Reader to track bytes read.
// Used for progress reporting while a file is converted.
type StreamingCountingReader struct {
	reader    io.Reader
	BytesRead int64
	Total     int64 // If known (0 if unknown)
}

// NewStreamingCountingReader creates a counting reader with optional total size.
func NewStreamingCountingReader(r io.Reader, total int64) *StreamingCountingReader {
	return &StreamingCountingReader{
		reader: r,
		Total:  total,
	}
}

// Read implements io.Reader.
func (r *StreamingCountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// Progress returns the read progress as a percentage (0-100).
// Returns 0 if total is unknown.
func (r *StreamingCountingReader) Progress() int {
	if r.Total <= 0 {
		return 0
	}
	return int(r.BytesRead * 100 / r.Total)
}

// inputDecoder returns the decoder for a configured input encoding name.
func inputDecoder(name string) (*encoding.Decoder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return unicode.UTF8BOM.NewDecoder(), nil
	case "windows-1252":
		return charmap.Windows1252.NewDecoder(), nil
	case "iso-8859-1", "latin1":
		return charmap.ISO8859_1.NewDecoder(), nil
	default:
		return nil, fmt.Errorf("unsupported input encoding %q", name)
	}
}

// WrapForStreaming wraps a reader with byte counting, charset decoding,
// BOM skipping and UTF-8 sanitization.
//
// Counting sits closest to the source so progress is measured in raw
// file bytes, matching totalSize.
func WrapForStreaming(r io.Reader, totalSize int64, inputEncoding string) (io.Reader, *StreamingCountingReader, error) {
	dec, err := inputDecoder(inputEncoding)
	if err != nil {
		return nil, nil, err
	}
	counter := NewStreamingCountingReader(r, totalSize)
	return transform.NewReader(counter, dec), counter, nil
}
