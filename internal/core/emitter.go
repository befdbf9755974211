package core

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

// DefaultChunkSize is the maximum number of rows in one INSERT statement.
const DefaultChunkSize = 10

// DefaultTable is the destination table of the generated statements.
const DefaultTable = "meter_readings"

// readingColumns are the destination columns, in VALUES order.
var readingColumns = []string{"nmi", "timestamp", "consumption"}

// QuoteMode selects how string literals and identifiers are rendered.
type QuoteMode string

const (
	// QuoteLegacy wraps strings in single quotes without escaping, matching
	// scripts produced by earlier versions byte for byte.
	QuoteLegacy QuoteMode = "legacy"
	// QuoteEscaped doubles embedded single quotes and quotes identifiers.
	QuoteEscaped QuoteMode = "escaped"
)

// Emitter renders readings as chunked multi-row INSERT statements and
// writes them to an output sink. It implements ReadingSink.
type Emitter struct {
	w          io.Writer
	chunkSize  int
	mode       QuoteMode
	prefix     string
	statements int
}

// NewEmitter creates an emitter writing to w. Empty or non-positive
// options fall back to the defaults.
func NewEmitter(w io.Writer, table string, chunkSize int, mode QuoteMode) *Emitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if table == "" {
		table = DefaultTable
	}
	if mode == "" {
		mode = QuoteLegacy
	}
	return &Emitter{
		w:         w,
		chunkSize: chunkSize,
		mode:      mode,
		prefix:    insertPrefix(table, mode),
	}
}

// Statements returns the number of INSERT statements written so far.
func (e *Emitter) Statements() int {
	return e.statements
}

// WriteReadings renders readings and writes them in one call to the sink.
func (e *Emitter) WriteReadings(readings []Reading) error {
	if len(readings) == 0 {
		return nil
	}
	sql := e.render(readings)
	if _, err := io.WriteString(e.w, sql); err != nil {
		return fmt.Errorf("write sql: %w", err)
	}
	e.statements += statementCount(len(readings), e.chunkSize)
	return nil
}

// Render returns the legacy INSERT script for readings against the default
// table, split into statements of at most chunkSize rows. It returns ""
// for no readings.
func Render(readings []Reading, chunkSize int) string {
	return NewEmitter(io.Discard, DefaultTable, chunkSize, QuoteLegacy).render(readings)
}

func (e *Emitter) render(readings []Reading) string {
	var b strings.Builder
	for _, chunk := range chunkReadings(readings, e.chunkSize) {
		b.WriteString(e.prefix)
		for i, r := range chunk {
			if i > 0 {
				b.WriteString(",\n")
			}
			b.WriteByte('(')
			b.WriteString(e.quote(r.NMI))
			b.WriteString(", ")
			b.WriteString(e.quote(r.Timestamp))
			b.WriteString(", ")
			b.WriteString(formatValue(r.Value))
			b.WriteByte(')')
		}
		b.WriteString(";\n\n")
	}
	return b.String()
}

// formatValue renders v in shortest round-trip form. Negative zero is
// written as 0, and magnitudes of 1e21 and above or below 1e-6 use an
// exponent without leading zeros, as earlier versions did.
func formatValue(v float64) string {
	if v == 0 {
		return "0"
	}
	if abs := math.Abs(v); abs < 1e21 && abs >= 1e-6 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	mant, exp, _ := strings.Cut(strconv.FormatFloat(v, 'e', -1, 64), "e")
	return mant + "e" + exp[:1] + strings.TrimLeft(exp[1:], "0")
}

func (e *Emitter) quote(s string) string {
	if e.mode == QuoteEscaped {
		s = strings.ReplaceAll(s, "'", "''")
	}
	return "'" + s + "'"
}

// insertPrefix renders "INSERT INTO <table> (<columns>) VALUES\n".
func insertPrefix(table string, mode QuoteMode) string {
	cols := strings.Join(readingColumns, ", ")
	if mode == QuoteEscaped {
		table = pgx.Identifier(strings.Split(table, ".")).Sanitize()
		quoted := make([]string, len(readingColumns))
		for i, c := range readingColumns {
			quoted[i] = pgx.Identifier{c}.Sanitize()
		}
		cols = strings.Join(quoted, ", ")
	}
	return "INSERT INTO " + table + " (" + cols + ") VALUES\n"
}

// chunkReadings splits items into consecutive slices of at most size.
func chunkReadings(items []Reading, size int) [][]Reading {
	chunks := make([][]Reading, 0, statementCount(len(items), size))
	for size < len(items) {
		items, chunks = items[size:], append(chunks, items[:size:size])
	}
	if len(items) > 0 {
		chunks = append(chunks, items)
	}
	return chunks
}

func statementCount(n, size int) int {
	return (n + size - 1) / size
}
