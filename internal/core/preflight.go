package core

import (
	"fmt"
	"log/slog"
	"os"
)

// SizeReport is the outcome of the advisory pre-flight size check.
type SizeReport struct {
	Path      string
	Size      int64
	Threshold int64
}

// Exceeded reports whether the input is larger than the threshold.
func (r SizeReport) Exceeded() bool {
	return r.Threshold > 0 && r.Size > r.Threshold
}

// SizeMB returns the input size in mebibytes.
func (r SizeReport) SizeMB() float64 {
	return float64(r.Size) / (1024 * 1024)
}

// CheckFileSize stats path and logs a warning when it exceeds threshold
// bytes. An oversized file never blocks processing; only a failed stat is
// returned as an error.
func CheckFileSize(logger *slog.Logger, path string, threshold int64) (SizeReport, error) {
	info, err := os.Stat(path)
	if err != nil {
		return SizeReport{}, fmt.Errorf("check file size: %w", err)
	}
	return CheckSize(logger, path, info.Size(), threshold), nil
}

// CheckSize is CheckFileSize for an input whose size is already known.
func CheckSize(logger *slog.Logger, name string, size, threshold int64) SizeReport {
	if logger == nil {
		logger = slog.Default()
	}
	report := SizeReport{Path: name, Size: size, Threshold: threshold}

	logger.Info("input file size", "file", name, "size_mb", fmt.Sprintf("%.2f", report.SizeMB()))
	if report.Exceeded() {
		logger.Warn("input exceeds recommended maximum, processing will continue but may require additional memory",
			"file", name,
			"size_mb", fmt.Sprintf("%.2f", report.SizeMB()),
			"max_mb", threshold/(1024*1024),
		)
	}
	return report
}
