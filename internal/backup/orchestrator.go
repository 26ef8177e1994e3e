package backup

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/imedwei/wings-backup-purger/internal/config"
	"github.com/imedwei/wings-backup-purger/internal/guard"
	"github.com/imedwei/wings-backup-purger/internal/metrics"
	"github.com/imedwei/wings-backup-purger/internal/storage"
)

// Version is reported in the info metric.
var Version = "dev"

// Orchestrator coordinates a purge run.
type Orchestrator struct {
	config     *config.Config
	storage    storage.Storage
	records    RecordStore
	sink       Sink
	reconciler *Reconciler
	provider   string
	logger     *slog.Logger
}

// NewOrchestrator creates a new purge orchestrator.
func NewOrchestrator(cfg *config.Config, storage storage.Storage, records RecordStore, sink Sink, logger *slog.Logger) *Orchestrator {
	ageGuard := guard.NewAgeGuard(guard.Config{
		MinAge: cfg.MinArchiveAge,
	})

	provider := cfg.StorageProvider
	if provider == "" {
		provider = "local"
	}

	return &Orchestrator{
		config:     cfg,
		storage:    storage,
		records:    records,
		sink:       sink,
		reconciler: NewReconciler(storage, sink, ageGuard, logger.With("component", "reconciler")),
		provider:   provider,
		logger:     logger,
	}
}

// Run lists the archives, snapshots the panel records and reconciles them.
// An empty inventory or an empty snapshot ends the run without action.
func (o *Orchestrator) Run(ctx context.Context) (RunSummary, error) {
	startTime := time.Now()
	o.logger.Info("Checking for backups", "provider", o.provider)

	metrics.Info.WithLabelValues(Version, o.provider, strconv.FormatBool(o.config.VerifyHash)).Set(1)

	objects, err := o.storage.List(ctx, "")
	if err != nil {
		o.finish(startTime, false)
		return RunSummary{}, fmt.Errorf("failed to list backups: %w", err)
	}

	archives := Inventory(objects)
	metrics.ArchivesFound.Set(float64(len(archives)))
	if len(archives) == 0 {
		o.logger.Warn("No backups found in the directory")
		o.finish(startTime, true)
		return RunSummary{}, nil
	}

	o.logger.Info("Found backups, checking database for backups", "count", len(archives))

	records, err := o.records.Snapshot(ctx)
	if err != nil {
		o.finish(startTime, false)
		return RunSummary{}, fmt.Errorf("failed to read backup records: %w", err)
	}

	metrics.RecordsSnapshot.Set(float64(len(records)))
	if len(records) == 0 {
		// An empty snapshot never deletes anything.
		o.logger.Warn("No backups found in the database")
		o.finish(startTime, true)
		return RunSummary{}, nil
	}

	o.logger.Info("Backup info found from database, checking local backups",
		"records", len(records),
		"verify_hash", o.config.VerifyHash,
	)

	summary, err := o.reconciler.Reconcile(ctx, archives, records, o.config.VerifyHash)
	if err != nil {
		o.finish(startTime, false)
		return RunSummary{}, fmt.Errorf("reconciliation aborted: %w", err)
	}

	o.sink.Summary(ctx, summary)
	o.finish(startTime, true)

	return summary, nil
}

func (o *Orchestrator) finish(startTime time.Time, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	metrics.RunDuration.Observe(time.Since(startTime).Seconds())
	metrics.LastRunTimestamp.WithLabelValues(status).Set(float64(time.Now().Unix()))
}
