package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimestamp(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		index    int
		minutes  int
		expected string
	}{
		{"first slot", "20230101", 0, 30, "2023-01-01 00:00:00"},
		{"last half hour slot", "20230101", 47, 30, "2023-01-01 23:30:00"},
		{"quarter hour", "20230101", 1, 15, "2023-01-01 00:15:00"},
		{"rolls into next day", "20230101", 48, 30, "2023-01-02 00:00:00"},
		{"rolls over year end", "20231231", 2, 720, "2024-01-01 00:00:00"},
		{"leap day", "20240229", 3, 5, "2024-02-29 00:15:00"},
		{"non numeric year", "abcd0101", 0, 30, InvalidTimestampNaN},
		{"short date", "202301", 0, 30, InvalidTimestampNaN},
		{"empty date", "", 0, 30, InvalidTimestampNaN},
		{"month 13", "20231301", 0, 30, InvalidTimestampRange},
		{"february 30", "20230230", 0, 30, InvalidTimestampRange},
		{"not a leap year", "20230229", 0, 30, InvalidTimestampRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Timestamp(tt.date, tt.index, tt.minutes))
		})
	}
}

func TestIsInvalidTimestamp(t *testing.T) {
	assert.True(t, IsInvalidTimestamp(InvalidTimestampNaN))
	assert.True(t, IsInvalidTimestamp(InvalidTimestampRange))
	assert.False(t, IsInvalidTimestamp("2023-01-01 00:00:00"))
}
