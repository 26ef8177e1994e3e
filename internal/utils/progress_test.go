package utils

import (
	"bytes"
	"io"
	"testing"
	"time"
)

func TestProgressReader(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 1000)

	var updates []int64
	pr := NewProgressReader(bytes.NewReader(data), 300, func(bytesRead int64, elapsed time.Duration) {
		updates = append(updates, bytesRead)
	})

	buf := make([]byte, 100)
	for {
		_, err := pr.Read(buf)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
	}

	if pr.BytesRead() != 1000 {
		t.Errorf("BytesRead() = %d, want 1000", pr.BytesRead())
	}

	want := []int64{300, 600, 900}
	if len(updates) != len(want) {
		t.Fatalf("updates = %v, want %v", updates, want)
	}
	for i := range want {
		if updates[i] != want[i] {
			t.Errorf("updates[%d] = %d, want %d", i, updates[i], want[i])
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatBytes(tt.bytes); got != tt.want {
				t.Errorf("FormatBytes(%d) = %v, want %v", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestFormatGigabytes(t *testing.T) {
	if got := FormatGigabytes(3 * 1024 * 1024 * 1024 / 2); got != "1.50 GB" {
		t.Errorf("FormatGigabytes() = %v, want 1.50 GB", got)
	}
	if got := FormatGigabytes(0); got != "0.00 GB" {
		t.Errorf("FormatGigabytes(0) = %v", got)
	}
}

func TestFormatRate(t *testing.T) {
	if got := FormatRate(2048); got != "2.0 KB/s" {
		t.Errorf("FormatRate() = %v", got)
	}
}
