package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dataLine builds a 300 line with the given date, values and quality.
// Missing values are left blank.
func dataLine(date string, values []string, quality string) string {
	slots := make([]string, IntervalsPerBlock)
	copy(slots, values)
	return "300," + date + "," + strings.Join(slots, ",") + "," + quality + ",,,20230102000000,"
}

// repeat returns n copies of v.
func repeat(v string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestClassify_Kinds(t *testing.T) {
	tests := []struct {
		line string
		kind RecordKind
	}{
		{"100,NEM12,200506081149,UNITEDDP,NEMMCO", KindHeader},
		{"200,NEM1201009,E1E2,1,E1,N1,01009,kWh,30,20050610", KindMeter},
		{dataLine("20050301", nil, "A"), KindData},
		{"400,1,20,F14,76,", KindOverride},
		{"500,O,S01009,20050310121004,", KindNote},
		{"900", KindFooter},
		{"  900  ", KindFooter},
		{"250,whatever", RecordKind("250")},
		{"", RecordKind("")},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind)+"/"+tt.line, func(t *testing.T) {
			assert.Equal(t, tt.kind, Classify(tt.line).Kind())
		})
	}
}

func TestClassify_Meter(t *testing.T) {
	rec, ok := Classify("200,NEM1201009,E1E2,1,E1,N1,01009,kWh,30,20050610").(MeterRecord)
	require.True(t, ok)
	assert.Equal(t, "NEM1201009", rec.NMI)
	assert.Equal(t, 30, rec.IntervalMinutes)
	assert.NoError(t, rec.IntervalErr)
}

func TestClassify_MeterBadInterval(t *testing.T) {
	for _, raw := range []string{"", "abc", "0", "-15", "7.5", "1441", "200000000"} {
		t.Run(raw, func(t *testing.T) {
			rec, ok := Classify("200,NMI1,E1,1,E1,N1,01,kWh," + raw).(MeterRecord)
			require.True(t, ok)
			assert.ErrorIs(t, rec.IntervalErr, ErrInvalidIntervalLength)
		})
	}
}

func TestClassify_MeterDayInterval(t *testing.T) {
	rec, ok := Classify("200,NMI1,E1,1,E1,N1,01,kWh,1440").(MeterRecord)
	require.True(t, ok)
	assert.NoError(t, rec.IntervalErr)
	assert.Equal(t, MaxIntervalMinutes, rec.IntervalMinutes)
}

func TestClassify_Data(t *testing.T) {
	values := repeat("0.5", IntervalsPerBlock)
	values[3] = ""
	rec, ok := Classify(dataLine("20050301", values, "V")).(DataRecord)
	require.True(t, ok)

	assert.Equal(t, "20050301", rec.Block.Date)
	assert.Len(t, rec.Block.Values, IntervalsPerBlock)
	assert.Equal(t, "", rec.Block.Values[3])
	assert.Equal(t, "0.5", rec.Block.Values[47])
	assert.Equal(t, "V", rec.Block.Quality)
	assert.True(t, rec.Block.Suppressed())
}

func TestClassify_ShortDataLine(t *testing.T) {
	rec, ok := Classify("300,20050301,1,2").(DataRecord)
	require.True(t, ok)
	assert.Len(t, rec.Block.Values, IntervalsPerBlock)
	assert.Equal(t, "2", rec.Block.Values[1])
	assert.Equal(t, "", rec.Block.Values[2])
	assert.Equal(t, "", rec.Block.Quality)
}

func TestClassify_Override(t *testing.T) {
	tests := []struct {
		line    string
		start   int
		end     int
		wantErr bool
	}{
		{"400,1,48,A,,", 1, 48, false},
		{"400,5,5,F14,76,", 5, 5, false},
		{"400,10,60,A,,", 10, 60, false},
		{"400,0,4,A,,", 0, 4, true},
		{"400,9,4,A,,", 9, 4, true},
		{"400,x,4,A,,", 0, 4, true},
		{"400", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			rec, ok := Classify(tt.line).(OverrideRecord)
			require.True(t, ok)
			if tt.wantErr {
				assert.ErrorIs(t, rec.RangeErr, ErrInvalidOverrideRange)
				return
			}
			require.NoError(t, rec.RangeErr)
			assert.Equal(t, tt.start, rec.Start)
			assert.Equal(t, tt.end, rec.End)
		})
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"1.5", 1.5, true},
		{"0", 0, true},
		{" 12 ", 12, true},
		{"-3.25", -3.25, true},
		{".5", 0.5, true},
		{"1e3", 1000, true},
		{"", 0, false},
		{"   ", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"NaN", 0, false},
		{"Infinity", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseValue(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
