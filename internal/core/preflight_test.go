package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckFileSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, make([]byte, 2048), 0o600))

	report, err := CheckFileSize(quietLogger(), path, 1024)
	require.NoError(t, err)
	assert.Equal(t, int64(2048), report.Size)
	assert.True(t, report.Exceeded())

	report, err = CheckFileSize(quietLogger(), path, 4096)
	require.NoError(t, err)
	assert.False(t, report.Exceeded())
}

func TestCheckFileSize_Missing(t *testing.T) {
	_, err := CheckFileSize(quietLogger(), filepath.Join(t.TempDir(), "nope.csv"), 1024)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSizeReport(t *testing.T) {
	r := SizeReport{Size: 3 * 1024 * 1024, Threshold: 0}
	assert.False(t, r.Exceeded(), "zero threshold disables the check")
	assert.InDelta(t, 3.0, r.SizeMB(), 0.0001)
}
