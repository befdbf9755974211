package core

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/JonMunkholm/nem12sql/internal/config"
	"github.com/google/uuid"
)

// ContextCheckInterval is how often (in lines) to check for context cancellation.
var ContextCheckInterval = 100

// MaxDiagnostics caps how many per-line diagnostics a Result keeps.
// Every diagnostic is still counted and logged.
var MaxDiagnostics = 1000

// MaxLineBytes is the longest input line accepted by the scanner.
var MaxLineBytes = 1024 * 1024

// ConvertOptions configures a single conversion run.
type ConvertOptions struct {
	RunID             string // generated when empty
	FileName          string
	Size              int64 // input size in bytes, 0 if unknown
	BatchSize         int
	ChunkSize         int
	Table             string
	QuoteMode         QuoteMode
	InvalidDatePolicy InvalidDatePolicy
	InputEncoding     string
	ProgressInterval  int
	Logger            *slog.Logger // should carry run_id; defaults to slog.Default() with run_id
}

// OptionsFromConfig builds ConvertOptions from the Convert config section.
func OptionsFromConfig(cfg config.ConvertConfig) ConvertOptions {
	return ConvertOptions{
		FileName:          cfg.Input,
		BatchSize:         cfg.BatchSize,
		ChunkSize:         cfg.ChunkSize,
		Table:             cfg.Table,
		QuoteMode:         QuoteMode(strings.ToLower(cfg.QuoteMode)),
		InvalidDatePolicy: InvalidDatePolicy(strings.ToLower(cfg.InvalidDatePolicy)),
		InputEncoding:     cfg.InputEncoding,
		ProgressInterval:  cfg.ProgressInterval,
	}
}

// Convert reads a NEM12 stream from r and writes INSERT statements to w.
//
// The returned Result is never nil. A non-nil error means the run was
// aborted by a read, write or cancellation failure. A run that completes
// without error may still be structurally invalid; check Result.Err.
// Statements already written are never retracted.
func Convert(ctx context.Context, r io.Reader, w io.Writer, opts ConvertOptions) (*Result, error) {
	start := time.Now()

	if opts.RunID == "" {
		opts.RunID = uuid.New().String()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("run_id", opts.RunID)
	}

	result := &Result{
		RunID:    opts.RunID,
		FileName: opts.FileName,
		Phase:    PhaseStarting,
	}
	var (
		parser  *Parser
		emitter *Emitter
	)
	fail := func(err error) (*Result, error) {
		if parser != nil {
			result.collect(parser, emitter)
		}
		result.Phase = PhaseFailed
		result.Error = err.Error()
		result.Duration = time.Since(start)
		logger.Error("conversion aborted", "line", result.Lines, "error", err)
		return result, err
	}

	input, counter, err := WrapForStreaming(r, opts.Size, opts.InputEncoding)
	if err != nil {
		return fail(err)
	}

	emitter = NewEmitter(w, opts.Table, opts.ChunkSize, opts.QuoteMode)
	parser = NewParser(emitter, ParserOptions{
		BatchSize:         opts.BatchSize,
		InvalidDatePolicy: opts.InvalidDatePolicy,
		Logger:            logger,
	})

	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)

	result.Phase = PhaseConverting
	logger.Info("conversion started", "file", opts.FileName)

	for scanner.Scan() {
		result.Lines++

		if result.Lines%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return fail(fmt.Errorf("conversion cancelled at line %d: %w", result.Lines, err))
			}
		}

		if opts.ProgressInterval > 0 && result.Lines%opts.ProgressInterval == 0 {
			logger.Info("processing",
				"line", result.Lines,
				"records_written", parser.Batch().Flushed(),
				"elapsed", time.Since(start).Round(100*time.Millisecond),
				"progress_pct", counter.Progress(),
			)
		}

		out, err := parser.HandleLine(scanner.Text())
		result.record(out)
		if err != nil {
			return fail(fmt.Errorf("line %d: %w", result.Lines, err))
		}
	}
	if err := scanner.Err(); err != nil {
		return fail(fmt.Errorf("read input at line %d: %w", result.Lines+1, err))
	}

	if err := parser.Finish(); err != nil {
		return fail(err)
	}

	result.collect(parser, emitter)
	result.BytesRead = counter.BytesRead
	result.Duration = time.Since(start)

	if err := result.Err(); err != nil {
		result.Phase = PhaseInvalid
		result.Error = err.Error()
		logger.Error("file validation failed, output is invalid",
			"missing_header", !result.HeaderSeen,
			"missing_footer", !result.FooterSeen,
			"lines", result.Lines,
			"readings", result.Readings,
		)
		return result, nil
	}

	result.Phase = PhaseComplete
	logger.Info("parsing complete",
		"duration", result.Duration.Round(10*time.Millisecond),
		"lines", result.Lines,
		"readings", result.Readings,
		"statements", result.Statements,
		"rejected", result.Rejected,
		"dropped", result.Dropped,
	)
	return result, nil
}

// record folds one line outcome into the result counters and diagnostics.
func (r *Result) record(out LineOutcome) {
	r.Dropped += out.Dropped
	switch out.Kind {
	case OutcomeRejected:
		r.Rejected++
	case OutcomeSkipped:
		r.Skipped++
	}
	if out.Err == nil {
		return
	}
	if len(r.Diagnostics) < MaxDiagnostics {
		r.Diagnostics = append(r.Diagnostics, Diagnostic{
			Line:   r.Lines,
			Record: out.Record,
			Kind:   out.Kind,
			Reason: out.Err.Error(),
		})
	}
}

// collect copies the parser and emitter totals into the result.
func (r *Result) collect(p *Parser, e *Emitter) {
	v := p.Validator()
	r.HeaderSeen = v.HeaderSeen()
	r.FooterSeen = v.FooterSeen()
	r.Readings = p.Batch().Flushed()
	r.Statements = e.Statements()
}
