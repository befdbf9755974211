package core

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// RecordKind is the leading tag of a NEM12 line.
type RecordKind string

const (
	KindHeader   RecordKind = "100"
	KindMeter    RecordKind = "200"
	KindData     RecordKind = "300"
	KindOverride RecordKind = "400"
	KindNote     RecordKind = "500"
	KindFooter   RecordKind = "900"
)

// MaxIntervalMinutes is the longest interval length a meter record may
// declare: one slot per day.
const MaxIntervalMinutes = minutesPerDay

// FieldDelimiter separates the fields of a line.
const FieldDelimiter = ","

// Field positions used by the record parsers.
const (
	meterNMIField       = 1
	meterIntervalField  = 8
	dataDateField       = 1
	dataFirstValueField = 2
	dataQualityField    = dataFirstValueField + IntervalsPerBlock
	dataReasonField     = dataQualityField + 1
	overrideStartField  = 1
	overrideEndField    = 2
)

// Pre-compiled regex for numeric validation (avoids recompilation on each call)
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// Record is one classified input line. The concrete types form a closed
// set: HeaderRecord, MeterRecord, DataRecord, OverrideRecord, NoteRecord,
// FooterRecord and UnknownRecord.
type Record interface {
	Kind() RecordKind
	record()
}

// HeaderRecord is a 100 record.
type HeaderRecord struct{ Fields []string }

// MeterRecord is a 200 record. IntervalErr is set when field 8 is not a
// positive integer.
type MeterRecord struct {
	NMI             string
	IntervalMinutes int
	IntervalErr     error
}

// DataRecord is a 300 record.
type DataRecord struct{ Block IntervalBlock }

// OverrideRecord is a 400 record. RangeErr is set when the indexes are unusable.
type OverrideRecord struct {
	Start    int // 1-based, inclusive
	End      int // 1-based, inclusive
	RangeErr error
}

// NoteRecord is a 500 record.
type NoteRecord struct{ Text string }

// FooterRecord is a 900 record.
type FooterRecord struct{}

// UnknownRecord is any line with an unrecognized tag, including blank lines.
type UnknownRecord struct {
	Tag  string
	Line string
}

func (HeaderRecord) Kind() RecordKind   { return KindHeader }
func (MeterRecord) Kind() RecordKind    { return KindMeter }
func (DataRecord) Kind() RecordKind     { return KindData }
func (OverrideRecord) Kind() RecordKind { return KindOverride }
func (NoteRecord) Kind() RecordKind     { return KindNote }
func (FooterRecord) Kind() RecordKind   { return KindFooter }
func (r UnknownRecord) Kind() RecordKind {
	return RecordKind(r.Tag)
}

func (HeaderRecord) record()   {}
func (MeterRecord) record()    {}
func (DataRecord) record()     {}
func (OverrideRecord) record() {}
func (NoteRecord) record()     {}
func (FooterRecord) record()   {}
func (UnknownRecord) record()  {}

// Classify trims line, splits it into fields and returns the matching
// record variant.
func Classify(line string) Record {
	line = strings.TrimSpace(line)
	fields := strings.Split(line, FieldDelimiter)

	switch RecordKind(fields[0]) {
	case KindHeader:
		return HeaderRecord{Fields: fields}
	case KindMeter:
		return parseMeter(fields)
	case KindData:
		return parseData(fields)
	case KindOverride:
		return parseOverride(fields)
	case KindNote:
		return NoteRecord{Text: line}
	case KindFooter:
		return FooterRecord{}
	default:
		return UnknownRecord{Tag: fields[0], Line: line}
	}
}

func parseMeter(fields []string) MeterRecord {
	rec := MeterRecord{NMI: field(fields, meterNMIField)}

	raw := field(fields, meterIntervalField)
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	switch {
	case err != nil:
		rec.IntervalErr = fmt.Errorf("%w: %q", ErrInvalidIntervalLength, raw)
	case n <= 0:
		rec.IntervalErr = fmt.Errorf("%w: %d must be positive", ErrInvalidIntervalLength, n)
	case n > MaxIntervalMinutes:
		rec.IntervalErr = fmt.Errorf("%w: %d exceeds %d minutes", ErrInvalidIntervalLength, n, MaxIntervalMinutes)
	default:
		rec.IntervalMinutes = n
	}
	return rec
}

func parseData(fields []string) DataRecord {
	values := make([]string, IntervalsPerBlock)
	for i := range values {
		values[i] = field(fields, dataFirstValueField+i)
	}
	return DataRecord{Block: IntervalBlock{
		Date:    field(fields, dataDateField),
		Values:  values,
		Quality: field(fields, dataQualityField),
		Reason:  field(fields, dataReasonField),
	}}
}

func parseOverride(fields []string) OverrideRecord {
	rawStart := field(fields, overrideStartField)
	rawEnd := field(fields, overrideEndField)

	start, errStart := strconv.Atoi(strings.TrimSpace(rawStart))
	end, errEnd := strconv.Atoi(strings.TrimSpace(rawEnd))

	rec := OverrideRecord{Start: start, End: end}
	switch {
	case errStart != nil || errEnd != nil:
		rec.RangeErr = fmt.Errorf("%w: start=%q end=%q", ErrInvalidOverrideRange, rawStart, rawEnd)
	case start < 1:
		rec.RangeErr = fmt.Errorf("%w: start %d must be at least 1", ErrInvalidOverrideRange, start)
	case start > end:
		rec.RangeErr = fmt.Errorf("%w: start %d after end %d", ErrInvalidOverrideRange, start, end)
	}
	return rec
}

// field returns fields[i], or "" when the line is too short.
func field(fields []string, i int) string {
	if i < len(fields) {
		return fields[i]
	}
	return ""
}

// ParseValue parses a raw interval value. Blank and non-numeric values
// report false.
func ParseValue(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || !numericRegex.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
