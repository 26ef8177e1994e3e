package backup

import (
	"context"
	"log/slog"

	"github.com/imedwei/wings-backup-purger/internal/utils"
)

// Outcome is the disposition of a single archive.
type Outcome string

const (
	OutcomeKept                Outcome = "kept"
	OutcomeDeletedFailed       Outcome = "deleted-failed"
	OutcomeDeletedHashMismatch Outcome = "deleted-hash-mismatch"
	OutcomeDeletedOrphan       Outcome = "deleted-orphan"
)

// Deleted reports whether the outcome removes the archive.
func (o Outcome) Deleted() bool {
	return o != OutcomeKept
}

// Event describes the decision taken for one archive.
type Event struct {
	Level   slog.Level
	Archive Archive
	Outcome Outcome
	Reason  string
	Size    int64 // bytes freed; zero for kept archives
}

// RunSummary holds the totals of a reconciliation pass.
type RunSummary struct {
	BackupsDeleted int
	BytesCleared   int64
	BackupsKept    int
	ByOutcome      map[Outcome]int
}

func (s *RunSummary) add(ev Event) {
	if s.ByOutcome == nil {
		s.ByOutcome = make(map[Outcome]int)
	}
	s.ByOutcome[ev.Outcome]++
	if ev.Outcome.Deleted() {
		s.BackupsDeleted++
		s.BytesCleared += ev.Size
	} else {
		s.BackupsKept++
	}
}

// Sink receives the decisions of a reconciliation pass.
type Sink interface {
	// Decision is called once per processed archive.
	Decision(ctx context.Context, ev Event)

	// Summary is called once at the end of a completed pass.
	Summary(ctx context.Context, summary RunSummary)
}

// LogSink writes events to a structured logger.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink that logs through logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Decision implements Sink.
func (l *LogSink) Decision(ctx context.Context, ev Event) {
	msg := "Keeping backup"
	if ev.Outcome.Deleted() {
		msg = "Deleted backup"
	}
	l.logger.Log(ctx, ev.Level, msg,
		"file", ev.Archive.Name,
		"outcome", string(ev.Outcome),
		"reason", ev.Reason,
		"size_bytes", ev.Archive.Size,
	)
}

// Summary implements Sink.
func (l *LogSink) Summary(ctx context.Context, summary RunSummary) {
	l.logger.InfoContext(ctx, "Reconciliation complete",
		"backups_deleted", summary.BackupsDeleted,
		"bytes_cleared", summary.BytesCleared,
		"cleared", utils.FormatGigabytes(summary.BytesCleared),
		"cleared_human", utils.FormatBytes(summary.BytesCleared),
		"backups_kept", summary.BackupsKept,
	)
}

// MultiSink fans events out to several sinks in order.
type MultiSink []Sink

// Decision implements Sink.
func (m MultiSink) Decision(ctx context.Context, ev Event) {
	for _, s := range m {
		s.Decision(ctx, ev)
	}
}

// Summary implements Sink.
func (m MultiSink) Summary(ctx context.Context, summary RunSummary) {
	for _, s := range m {
		s.Summary(ctx, summary)
	}
}
