package core

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_Empty(t *testing.T) {
	assert.Equal(t, "", Render(nil, 10))
}

func TestRender_SingleRow(t *testing.T) {
	got := Render([]Reading{{NMI: "NEM1201009", Timestamp: "2005-03-01 00:00:00", Value: 1.5}}, 10)
	want := "INSERT INTO meter_readings (nmi, timestamp, consumption) VALUES\n" +
		"('NEM1201009', '2005-03-01 00:00:00', 1.5);\n\n"
	assert.Equal(t, want, got)
}

func TestRender_RowsJoined(t *testing.T) {
	got := Render([]Reading{
		{NMI: "N1", Timestamp: "2005-03-01 00:00:00", Value: 0},
		{NMI: "N1", Timestamp: "2005-03-01 00:30:00", Value: 2.25},
	}, 10)
	want := "INSERT INTO meter_readings (nmi, timestamp, consumption) VALUES\n" +
		"('N1', '2005-03-01 00:00:00', 0),\n" +
		"('N1', '2005-03-01 00:30:00', 2.25);\n\n"
	assert.Equal(t, want, got)
}

func TestRender_Chunking(t *testing.T) {
	tests := []struct {
		name       string
		readings   int
		chunk      int
		statements int
	}{
		{"exact multiple", 25, 5, 5},
		{"remainder", 25, 10, 3},
		{"one block default chunk", 48, 10, 5},
		{"fewer than chunk", 3, 10, 1},
		{"chunk of one", 4, 1, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Render(readingsN(tt.readings), tt.chunk)
			assert.Equal(t, tt.statements, strings.Count(got, "INSERT INTO"))
			assert.Equal(t, tt.statements, strings.Count(got, ";\n\n"))
			assert.Equal(t, tt.readings, strings.Count(got, "('NMI1'"))
		})
	}
}

func TestRender_PreservesOrder(t *testing.T) {
	got := Render(readingsN(12), 5)
	last := -1
	for i := 0; i < 12; i++ {
		idx := strings.Index(got, "'"+Timestamp("20230101", i, 30)+"'")
		require.NotEqual(t, -1, idx)
		assert.Greater(t, idx, last)
		last = idx
	}
}

func TestRender_ValueFormatting(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{1, "1"},
		{0.1, "0.1"},
		{12.345, "12.345"},
		{-0.5, "-0.5"},
		{math.Copysign(0, -1), "0"},
		{123456789012, "123456789012"},
		{1e20, "100000000000000000000"},
		{1e21, "1e+21"},
		{0.000001, "0.000001"},
		{1.5e-7, "1.5e-7"},
		{-2e-10, "-2e-10"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := Render([]Reading{{NMI: "N", Timestamp: "T", Value: tt.value}}, 10)
			assert.Contains(t, got, "('N', 'T', "+tt.want+");")
		})
	}
}

func TestRender_NegativeZeroInput(t *testing.T) {
	v, ok := ParseValue("-0")
	require.True(t, ok)

	got := Render([]Reading{{NMI: "N", Timestamp: "T", Value: v}}, 10)
	assert.Contains(t, got, "('N', 'T', 0);")
}

func TestEmitter_LegacyQuotesUnescaped(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(&buf, "", 10, QuoteLegacy)
	require.NoError(t, e.WriteReadings([]Reading{{NMI: "O'B", Timestamp: "T", Value: 1}}))
	assert.Contains(t, buf.String(), "('O'B', 'T', 1)")
}

func TestEmitter_EscapedQuotes(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(&buf, "metering.meter_readings", 10, QuoteEscaped)
	require.NoError(t, e.WriteReadings([]Reading{{NMI: "O'B", Timestamp: "T", Value: 1}}))

	want := `INSERT INTO "metering"."meter_readings" ("nmi", "timestamp", "consumption") VALUES` + "\n" +
		"('O''B', 'T', 1);\n\n"
	assert.Equal(t, want, buf.String())
}

func TestEmitter_CountsStatements(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitter(&buf, "", 10, "")

	require.NoError(t, e.WriteReadings(readingsN(10)))
	require.NoError(t, e.WriteReadings(readingsN(15)))
	require.NoError(t, e.WriteReadings(nil))

	assert.Equal(t, 3, e.Statements())
	assert.Equal(t, 3, strings.Count(buf.String(), "INSERT INTO meter_readings"))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestEmitter_WriteError(t *testing.T) {
	e := NewEmitter(failingWriter{}, "", 10, "")
	err := e.WriteReadings(readingsN(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken pipe")
	assert.Equal(t, 0, e.Statements())
}
