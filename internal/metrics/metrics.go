// Package metrics provides Prometheus metrics for the backup purger.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Archives counts processed archives by outcome.
	Archives = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wings_backup_purger_archives_total",
		Help: "Total number of archives processed, by outcome",
	}, []string{"outcome"})

	// BytesCleared tracks the bytes freed by deleted archives.
	BytesCleared = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wings_backup_purger_bytes_cleared_total",
		Help: "Total number of bytes freed by deleting archives",
	})

	// HashDuration tracks how long checksum verification takes per archive.
	HashDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wings_backup_purger_hash_duration_seconds",
		Help:    "Duration of archive checksum computation in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 10), // 10ms to ~43min
	})

	// RunDuration tracks the duration of a reconciliation run.
	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wings_backup_purger_run_duration_seconds",
		Help:    "Duration of reconciliation runs in seconds",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~68min
	})

	// ArchivesFound tracks the size of the archive inventory.
	ArchivesFound = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wings_backup_purger_archives_found",
		Help: "Number of archives found in the backup location on the last run",
	})

	// RecordsSnapshot tracks the number of backup records read from the panel.
	RecordsSnapshot = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wings_backup_purger_records_snapshot_size",
		Help: "Number of backup records read from the panel database on the last run",
	})

	// StorageOperations tracks storage operations.
	StorageOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wings_backup_purger_storage_operations_total",
		Help: "Total number of storage operations",
	}, []string{"operation", "provider", "status"})

	// LastRunTimestamp tracks when the last run completed.
	LastRunTimestamp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "wings_backup_purger_last_run_timestamp",
		Help: "Unix timestamp of the last completed run",
	}, []string{"status"})

	// Info provides static information about the purger.
	Info = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "wings_backup_purger_info",
		Help: "Information about the backup purger",
	}, []string{"version", "storage_provider", "verify_hash"})
)

// RecordOutcome records one archive decision.
func RecordOutcome(outcome string, bytesCleared int64) {
	Archives.WithLabelValues(outcome).Inc()
	if bytesCleared > 0 {
		BytesCleared.Add(float64(bytesCleared))
	}
}

// RecordStorageOperation records a storage operation.
func RecordStorageOperation(operation, provider string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	StorageOperations.WithLabelValues(operation, provider, status).Inc()
}

// WriteTextfile writes every registered metric to path in the text exposition
// format, for the node_exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
