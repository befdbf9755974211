package core

import (
	"errors"
	"time"
)

// IntervalsPerBlock is the number of value slots carried by a data record.
const IntervalsPerBlock = 48

// QualitySubstituted marks a data block whose own values are suppressed;
// only a following override record can supply readings for it.
const QualitySubstituted = "V"

var (
	// ErrMissingHeader is reported when a stream ends without a 100 record.
	ErrMissingHeader = errors.New("missing 100 header record")

	// ErrMissingFooter is reported when a stream ends without a 900 record.
	ErrMissingFooter = errors.New("missing 900 footer record")

	// ErrNoMeterContext is returned for data or override records seen while
	// no valid 200 record is in scope.
	ErrNoMeterContext = errors.New("no active meter context")

	// ErrNoActiveBlock is returned for an override record with no preceding
	// data block.
	ErrNoActiveBlock = errors.New("override without active interval block")

	// ErrInvalidIntervalLength is returned for a 200 record whose interval
	// length is not a positive integer.
	ErrInvalidIntervalLength = errors.New("invalid interval length")

	// ErrInvalidOverrideRange is returned for an override record whose
	// start/end indexes cannot be used.
	ErrInvalidOverrideRange = errors.New("invalid override range")

	// ErrInvalidDate is recorded when a block date cannot produce timestamps.
	ErrInvalidDate = errors.New("invalid date")
)

// NmiContext is the meter identifier and interval length in scope for the
// data and override records that follow a 200 record.
type NmiContext struct {
	NMI             string
	IntervalMinutes int
}

// IntervalBlock is the most recently parsed 300 record.
type IntervalBlock struct {
	Date    string   // YYYYMMDD
	Values  []string // always IntervalsPerBlock raw values
	Quality string
	Reason  string
}

// Suppressed reports whether the block's own values must not be expanded.
func (b *IntervalBlock) Suppressed() bool {
	return b.Quality == QualitySubstituted
}

// Reading is a single timestamped consumption value.
type Reading struct {
	NMI       string
	Timestamp string
	Value     float64
}

// OutcomeKind classifies what happened to a single input line.
type OutcomeKind int

const (
	// OutcomeApplied means the record was understood and its state change
	// (and any readings) applied.
	OutcomeApplied OutcomeKind = iota
	// OutcomeSkipped means the record was ignored on purpose, such as a
	// 500 note or an unrecognized record kind.
	OutcomeSkipped
	// OutcomeRejected means the record could not be used; no readings
	// were produced from it and processing continues.
	OutcomeRejected
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeApplied:
		return "applied"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// LineOutcome is the result of handling one line.
type LineOutcome struct {
	Kind     OutcomeKind
	Record   RecordKind
	Readings int   // readings appended to the pending batch
	Dropped  int   // readings dropped because of an invalid timestamp
	Err      error // reason for OutcomeSkipped / OutcomeRejected, or a dropped-date warning
}

// Diagnostic is a recorded per-line warning.
type Diagnostic struct {
	Line   int         `json:"line"`
	Record RecordKind  `json:"record"`
	Kind   OutcomeKind `json:"-"`
	Reason string      `json:"reason"`
}

// InvalidDatePolicy decides what happens to readings whose block date
// cannot be converted into a timestamp.
type InvalidDatePolicy string

const (
	// DropInvalidDates drops such readings and records a warning.
	DropInvalidDates InvalidDatePolicy = "drop"
	// EmitInvalidDates keeps them with the diagnostic sentinel timestamp.
	EmitInvalidDates InvalidDatePolicy = "emit"
)

// RunPhase indicates the current stage of a conversion run.
type RunPhase string

const (
	PhaseStarting   RunPhase = "starting"
	PhaseConverting RunPhase = "converting"
	PhaseComplete   RunPhase = "complete"
	PhaseInvalid    RunPhase = "invalid"
	PhaseFailed     RunPhase = "failed"
)

// Result summarises a conversion run.
type Result struct {
	RunID       string        `json:"runId"`
	FileName    string        `json:"fileName,omitempty"`
	Phase       RunPhase      `json:"phase"`
	Lines       int           `json:"lines"`
	Readings    int           `json:"readings"`
	Statements  int           `json:"statements"`
	Dropped     int           `json:"dropped"`
	Rejected    int           `json:"rejected"`
	Skipped     int           `json:"skipped"`
	HeaderSeen  bool          `json:"headerSeen"`
	FooterSeen  bool          `json:"footerSeen"`
	BytesRead   int64         `json:"bytesRead"`
	Diagnostics []Diagnostic  `json:"diagnostics,omitempty"`
	Duration    time.Duration `json:"duration"`
	Error       string        `json:"error,omitempty"`
}

// Valid reports whether the run saw both a header and a footer record.
func (r *Result) Valid() bool {
	return r.HeaderSeen && r.FooterSeen
}

// Err returns the structural failure of the run, or nil when it is valid.
func (r *Result) Err() error {
	v := StreamValidator{headerSeen: r.HeaderSeen, footerSeen: r.FooterSeen}
	return v.Err()
}
