package core

import (
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the rendering of every reading timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// invalidTimestampPrefix starts every sentinel returned by Timestamp.
const invalidTimestampPrefix = "Invalid-date-"

const (
	// InvalidTimestampNaN is returned when a date component is not an integer.
	InvalidTimestampNaN = invalidTimestampPrefix + "NaN"
	// InvalidTimestampRange is returned when the components do not name a
	// real calendar date.
	InvalidTimestampRange = invalidTimestampPrefix + "out-of-range"
)

// Timestamp returns the instant of slot intervalIndex of the block dated
// date (YYYYMMDD), intervalMinutes apart, starting at naive midnight.
// Slots past 24 hours roll into the following days. Meter records keep
// intervalMinutes within MaxIntervalMinutes.
//
// A date that cannot be parsed yields one of the Invalid-date sentinels
// instead of an error; see IsInvalidTimestamp.
func Timestamp(date string, intervalIndex, intervalMinutes int) string {
	base, sentinel := parseBlockDate(date)
	if sentinel != "" {
		return sentinel
	}
	offset := time.Duration(intervalIndex) * time.Duration(intervalMinutes) * time.Minute
	return base.Add(offset).Format(TimestampLayout)
}

// IsInvalidTimestamp reports whether ts is a sentinel produced by Timestamp.
func IsInvalidTimestamp(ts string) bool {
	return strings.HasPrefix(ts, invalidTimestampPrefix)
}

// parseBlockDate converts YYYYMMDD into midnight UTC, used as a naive
// calendar clock so no DST shifts apply.
func parseBlockDate(date string) (time.Time, string) {
	year, ok1 := component(date, 0, 4)
	month, ok2 := component(date, 4, 6)
	day, ok3 := component(date, 6, 8)
	if !ok1 || !ok2 || !ok3 {
		return time.Time{}, InvalidTimestampNaN
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalises 2023-02-31 into March; reject instead
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, InvalidTimestampRange
	}
	return t, ""
}

func component(s string, from, to int) (int, bool) {
	if len(s) < to {
		return 0, false
	}
	n, err := strconv.Atoi(s[from:to])
	if err != nil {
		return 0, false
	}
	return n, true
}
