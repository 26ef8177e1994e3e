// Package utils provides utility functions for the backup purger.
package utils

import (
	"fmt"
	"io"
	"time"
)

// ProgressReader wraps an io.Reader and reports how many bytes have passed
// through it every updateEvery bytes.
type ProgressReader struct {
	reader      io.Reader
	bytesRead   int64
	startTime   time.Time
	updateFunc  func(bytesRead int64, elapsed time.Duration)
	updateEvery int64
}

// NewProgressReader creates a new progress tracking reader.
func NewProgressReader(reader io.Reader, updateEvery int64, updateFunc func(bytesRead int64, elapsed time.Duration)) *ProgressReader {
	if updateEvery <= 0 {
		updateEvery = 1024 * 1024 * 1024 // Update every GiB
	}
	return &ProgressReader{
		reader:      reader,
		startTime:   time.Now(),
		updateFunc:  updateFunc,
		updateEvery: updateEvery,
	}
}

// Read implements io.Reader interface with progress tracking.
func (pr *ProgressReader) Read(p []byte) (n int, err error) {
	n, err = pr.reader.Read(p)
	if n > 0 {
		before := pr.bytesRead
		pr.bytesRead += int64(n)

		if pr.updateFunc != nil && before/pr.updateEvery != pr.bytesRead/pr.updateEvery {
			pr.updateFunc(pr.bytesRead, time.Since(pr.startTime))
		}
	}
	return n, err
}

// BytesRead returns the total number of bytes read.
func (pr *ProgressReader) BytesRead() int64 {
	return pr.bytesRead
}

// FormatBytes formats bytes in human-readable format.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatGigabytes formats bytes as gigabytes with two decimals, e.g. "1.50 GB".
func FormatGigabytes(bytes int64) string {
	return fmt.Sprintf("%.2f GB", float64(bytes)/1024/1024/1024)
}

// FormatRate formats transfer rate in human-readable format.
func FormatRate(bytesPerSecond float64) string {
	return fmt.Sprintf("%s/s", FormatBytes(int64(bytesPerSecond)))
}
