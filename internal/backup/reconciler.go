package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/imedwei/wings-backup-purger/internal/guard"
	"github.com/imedwei/wings-backup-purger/internal/hasher"
	"github.com/imedwei/wings-backup-purger/internal/metrics"
	"github.com/imedwei/wings-backup-purger/internal/storage"
	"github.com/imedwei/wings-backup-purger/internal/utils"
)

// ErrIO is returned when an archive cannot be read, sized or deleted. It
// aborts the pass.
var ErrIO = errors.New("archive I/O error")

// Reconciler decides the fate of each archive and deletes the ones that do not
// survive. It runs strictly sequentially.
type Reconciler struct {
	storage storage.Storage
	sink    Sink
	guard   guard.Guard
	logger  *slog.Logger
}

// NewReconciler creates a reconciler. g may be nil to judge every archive.
func NewReconciler(storage storage.Storage, sink Sink, g guard.Guard, logger *slog.Logger) *Reconciler {
	if g == nil {
		g = guard.NewAgeGuard(guard.Config{})
	}
	return &Reconciler{
		storage: storage,
		sink:    sink,
		guard:   g,
		logger:  logger,
	}
}

// Reconcile processes every archive exactly once, in order. A read, stat or
// delete failure stops the pass and the totals gathered so far are discarded.
func (r *Reconciler) Reconcile(ctx context.Context, archives []Archive, records []Record, verifyHash bool) (RunSummary, error) {
	idx := index(records)
	summary := RunSummary{ByOutcome: make(map[Outcome]int)}

	for _, archive := range archives {
		outcome, reason, err := r.decide(ctx, archive, idx, verifyHash)
		if err != nil {
			return RunSummary{}, err
		}

		ev := Event{
			Level:   slog.LevelInfo,
			Archive: archive,
			Outcome: outcome,
			Reason:  reason,
		}

		if outcome.Deleted() {
			size, err := r.remove(ctx, archive)
			if err != nil {
				return RunSummary{}, err
			}
			ev.Level = slog.LevelWarn
			ev.Size = size
		}

		summary.add(ev)
		metrics.RecordOutcome(string(outcome), ev.Size)
		r.sink.Decision(ctx, ev)
	}

	return summary, nil
}

// decide applies the retention policy to a single archive.
func (r *Reconciler) decide(ctx context.Context, archive Archive, idx map[string]Record, verifyHash bool) (Outcome, string, error) {
	if ok, reason := r.guard.Allow(archive.ModTime); !ok {
		return OutcomeKept, reason, nil
	}

	record, found := idx[archive.DerivedID]
	if !found {
		r.logger.Info("Backup not found in database", "file", archive.Name)
		return OutcomeDeletedOrphan, "not found in database", nil
	}

	r.logger.Info("Checking backup", "file", archive.Name, "backup_id", record.ID)

	if !record.Successful {
		r.logger.Info("Backup failed", "file", archive.Name, "backup_id", record.ID)
		return OutcomeDeletedFailed, "failed", nil
	}

	if !verifyHash {
		return OutcomeKept, "successful", nil
	}

	expected, ok := record.Digest()
	if !ok {
		r.logger.Info("Backup checksum is missing or malformed", "file", archive.Name, "checksum", record.Checksum)
		return OutcomeDeletedHashMismatch, "hash mismatch (checksum missing or malformed)", nil
	}

	actual, err := r.hash(ctx, archive)
	if err != nil {
		return "", "", err
	}

	if actual != expected {
		r.logger.Info("Hash is not the same", "file", archive.Name, "expected", expected, "actual", actual)
		return OutcomeDeletedHashMismatch, "hash mismatch", nil
	}

	return OutcomeKept, "successful, hash verified", nil
}

// hash streams the archive through the content hasher.
func (r *Reconciler) hash(ctx context.Context, archive Archive) (string, error) {
	start := time.Now()

	rc, err := r.storage.Open(ctx, archive.Key)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer func() {
		if err := rc.Close(); err != nil {
			r.logger.Warn("Failed to close archive", "file", archive.Name, "error", err)
		}
	}()

	pr := utils.NewProgressReader(rc, 0, func(bytesRead int64, elapsed time.Duration) {
		r.logger.Debug("Hashing archive",
			"file", archive.Name,
			"read", utils.FormatBytes(bytesRead),
			"rate", utils.FormatRate(float64(bytesRead)/elapsed.Seconds()),
		)
	})

	sum, err := hasher.Reader(pr)
	if err != nil {
		return "", fmt.Errorf("%w: failed to hash %s: %w", ErrIO, archive.Name, err)
	}

	elapsed := time.Since(start)
	metrics.HashDuration.Observe(elapsed.Seconds())
	r.logger.Debug("Archive hashed",
		"file", archive.Name,
		"bytes", pr.BytesRead(),
		"duration", elapsed,
	)
	return sum, nil
}

// remove reads the archive size and then deletes it, returning the size freed.
func (r *Reconciler) remove(ctx context.Context, archive Archive) (int64, error) {
	info, err := r.storage.Stat(ctx, archive.Key)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrIO, err)
	}

	if err := r.storage.Delete(ctx, archive.Key); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrIO, err)
	}

	return info.Size, nil
}
