package core

import "fmt"

// expansion is what one data or override record contributed.
type expansion struct {
	readings []Reading
	dropped  int
	dateErr  error
}

// expandBlock turns every numeric slot of block into a reading.
// Suppressed blocks expand to nothing.
func expandBlock(nmi NmiContext, block *IntervalBlock, policy InvalidDatePolicy) expansion {
	if block.Suppressed() {
		return expansion{}
	}
	return expandRange(nmi, block, 0, len(block.Values)-1, policy)
}

// expandOverride re-expands the 1-based inclusive range [start, end] of the
// current block. The end is clamped to the block width.
func expandOverride(nmi NmiContext, block *IntervalBlock, start, end int, policy InvalidDatePolicy) expansion {
	return expandRange(nmi, block, start-1, end-1, policy)
}

// expandRange walks the 0-based inclusive slot range [from, to].
func expandRange(nmi NmiContext, block *IntervalBlock, from, to int, policy InvalidDatePolicy) expansion {
	if to >= len(block.Values) {
		to = len(block.Values) - 1
	}

	var out expansion
	if from > to {
		return out
	}
	out.readings = make([]Reading, 0, to-from+1)

	for i := from; i <= to; i++ {
		value, ok := ParseValue(block.Values[i])
		if !ok {
			continue
		}

		ts := Timestamp(block.Date, i, nmi.IntervalMinutes)
		if IsInvalidTimestamp(ts) {
			if out.dateErr == nil {
				out.dateErr = fmt.Errorf("%w %q for NMI %s: %s", ErrInvalidDate, block.Date, nmi.NMI, ts)
			}
			if policy != EmitInvalidDates {
				out.dropped++
				continue
			}
		}

		out.readings = append(out.readings, Reading{
			NMI:       nmi.NMI,
			Timestamp: ts,
			Value:     value,
		})
	}

	return out
}
