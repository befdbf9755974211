package core

import (
	"fmt"
	"log/slog"
)

// Parser holds the state of one NEM12 stream: the NMI context in scope,
// the current interval block, the pending batch and the validator. Lines
// must be handed to it in file order. A Parser is not safe for concurrent use.
type Parser struct {
	nmi       *NmiContext
	block     *IntervalBlock
	batch     *PendingBatch
	validator StreamValidator
	policy    InvalidDatePolicy
	logger    *slog.Logger
	line      int
}

// ParserOptions configures a Parser.
type ParserOptions struct {
	BatchSize         int
	InvalidDatePolicy InvalidDatePolicy
	Logger            *slog.Logger
}

// NewParser creates a Parser that flushes expanded readings into sink.
func NewParser(sink ReadingSink, opts ParserOptions) *Parser {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	policy := opts.InvalidDatePolicy
	if policy == "" {
		policy = DropInvalidDates
	}
	return &Parser{
		batch:  NewPendingBatch(sink, opts.BatchSize),
		policy: policy,
		logger: logger,
	}
}

// Validator returns the parser's stream validator.
func (p *Parser) Validator() *StreamValidator {
	return &p.validator
}

// Batch returns the parser's pending batch.
func (p *Parser) Batch() *PendingBatch {
	return p.batch
}

// HandleLine classifies and applies one line. The returned error is
// fatal (the sink failed); per-line problems are reported in the outcome.
func (p *Parser) HandleLine(line string) (LineOutcome, error) {
	p.line++
	rec := Classify(line)

	var out LineOutcome
	switch r := rec.(type) {
	case HeaderRecord:
		p.validator.MarkHeader()
		out = LineOutcome{Kind: OutcomeApplied}
	case MeterRecord:
		out = p.handleMeter(r)
	case DataRecord:
		out = p.handleData(r)
	case OverrideRecord:
		out = p.handleOverride(r)
	case NoteRecord:
		p.logger.Info("skipped 500 block", "line", p.line, "content", r.Text)
		out = LineOutcome{Kind: OutcomeSkipped}
	case FooterRecord:
		p.validator.MarkFooter()
		if err := p.batch.Flush(); err != nil {
			return LineOutcome{Kind: OutcomeApplied, Record: KindFooter}, err
		}
		out = LineOutcome{Kind: OutcomeApplied}
	case UnknownRecord:
		p.logger.Warn("unrecognized line", "line", p.line, "content", truncate(r.Line, 100))
		out = LineOutcome{Kind: OutcomeSkipped, Err: fmt.Errorf("unrecognized record kind %q", r.Tag)}
	default:
		panic(fmt.Sprintf("unhandled record type %T", rec))
	}
	out.Record = rec.Kind()

	if p.batch.ShouldFlush() {
		if err := p.batch.Flush(); err != nil {
			return out, err
		}
	}
	return out, nil
}

// Finish flushes whatever is still pending at end of stream.
func (p *Parser) Finish() error {
	return p.batch.Flush()
}

func (p *Parser) handleMeter(r MeterRecord) LineOutcome {
	if r.IntervalErr != nil {
		p.nmi = nil
		p.logger.Warn("meter record rejected", "line", p.line, "nmi", r.NMI, "error", r.IntervalErr)
		return LineOutcome{Kind: OutcomeRejected, Err: r.IntervalErr}
	}

	p.nmi = &NmiContext{NMI: r.NMI, IntervalMinutes: r.IntervalMinutes}
	if minutesPerDay%r.IntervalMinutes != 0 {
		p.logger.Warn("interval length does not divide a day, slots will roll over",
			"line", p.line, "nmi", r.NMI, "interval_minutes", r.IntervalMinutes)
	}
	return LineOutcome{Kind: OutcomeApplied}
}

func (p *Parser) handleData(r DataRecord) LineOutcome {
	block := r.Block
	p.block = &block

	if p.nmi == nil {
		return p.reject(KindData, ErrNoMeterContext)
	}

	return p.apply(expandBlock(*p.nmi, p.block, p.policy))
}

func (p *Parser) handleOverride(r OverrideRecord) LineOutcome {
	switch {
	case r.RangeErr != nil:
		return p.reject(KindOverride, r.RangeErr)
	case p.block == nil:
		return p.reject(KindOverride, ErrNoActiveBlock)
	case p.nmi == nil:
		return p.reject(KindOverride, ErrNoMeterContext)
	}

	return p.apply(expandOverride(*p.nmi, p.block, r.Start, r.End, p.policy))
}

func (p *Parser) apply(exp expansion) LineOutcome {
	p.batch.Append(exp.readings...)
	out := LineOutcome{Kind: OutcomeApplied, Readings: len(exp.readings), Dropped: exp.dropped}
	if exp.dateErr != nil {
		out.Err = exp.dateErr
		p.logger.Warn("block date cannot produce timestamps",
			"line", p.line, "policy", string(p.policy), "dropped", exp.dropped, "error", exp.dateErr)
	}
	return out
}

func (p *Parser) reject(kind RecordKind, err error) LineOutcome {
	p.logger.Warn("record rejected", "line", p.line, "record", string(kind), "error", err)
	return LineOutcome{Kind: OutcomeRejected, Err: err}
}

const minutesPerDay = 24 * 60

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
