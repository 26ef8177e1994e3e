package backup

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/imedwei/wings-backup-purger/internal/config"
	"github.com/imedwei/wings-backup-purger/internal/storage"
)

// Mock implementations for testing

type mockRecordStore struct {
	records []Record
	err     error
	calls   int
}

func (m *mockRecordStore) Snapshot(ctx context.Context) ([]Record, error) {
	m.calls++
	return m.records, m.err
}

type mockStorage struct {
	listResult  []storage.ObjectInfo
	listErr     error
	deleteCalls []string
}

func (m *mockStorage) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	return m.listResult, m.listErr
}

func (m *mockStorage) Stat(ctx context.Context, key string) (storage.ObjectInfo, error) {
	for _, obj := range m.listResult {
		if obj.Key == key {
			return obj, nil
		}
	}
	return storage.ObjectInfo{}, os.ErrNotExist
}

func (m *mockStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(key)), nil
}

func (m *mockStorage) Delete(ctx context.Context, key string) error {
	m.deleteCalls = append(m.deleteCalls, key)
	return nil
}

func TestOrchestrator_Run(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name            string
		objects         []storage.ObjectInfo
		listErr         error
		store           *mockRecordStore
		wantErr         bool
		wantSnapshot    bool
		wantDeletes     []string
		wantSummaryCall bool
	}{
		{
			name:         "no archives found",
			objects:      []storage.ObjectInfo{{Key: "notes.txt", Size: 4}},
			store:        &mockRecordStore{records: []Record{{ID: "a", Successful: true}}},
			wantSnapshot: false,
		},
		{
			name:         "empty record snapshot deletes nothing",
			objects:      []storage.ObjectInfo{{Key: "a.zip", Size: 4}},
			store:        &mockRecordStore{},
			wantSnapshot: true,
		},
		{
			name:         "snapshot failure",
			objects:      []storage.ObjectInfo{{Key: "a.zip", Size: 4}},
			store:        &mockRecordStore{err: errors.New("connection reset")},
			wantErr:      true,
			wantSnapshot: true,
		},
		{
			name:    "list failure",
			listErr: errors.New("permission denied"),
			store:   &mockRecordStore{},
			wantErr: true,
		},
		{
			name: "orphan and failed archives are deleted",
			objects: []storage.ObjectInfo{
				{Key: "a.tar.gz", Size: 10},
				{Key: "b.zip", Size: 20},
				{Key: "c.zip", Size: 30},
			},
			store: &mockRecordStore{records: []Record{
				{ID: "b", Successful: false},
				{ID: "c", Successful: true, Checksum: "sha1:whatever"},
			}},
			wantSnapshot:    true,
			wantDeletes:     []string{"a.tar.gz", "b.zip"},
			wantSummaryCall: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &mockStorage{listResult: tt.objects, listErr: tt.listErr}
			sink := &recordingSink{}
			cfg := &config.Config{StorageProvider: "local"}

			orchestrator := NewOrchestrator(cfg, st, tt.store, sink, logger)
			summary, err := orchestrator.Run(context.Background())

			if (err != nil) != tt.wantErr {
				t.Fatalf("Run() error = %v, wantErr %v", err, tt.wantErr)
			}

			if (tt.store.calls > 0) != tt.wantSnapshot {
				t.Errorf("Snapshot called = %v, want %v", tt.store.calls > 0, tt.wantSnapshot)
			}

			if strings.Join(st.deleteCalls, ",") != strings.Join(tt.wantDeletes, ",") {
				t.Errorf("deleted %v, want %v", st.deleteCalls, tt.wantDeletes)
			}

			if (len(sink.summaries) == 1) != tt.wantSummaryCall {
				t.Errorf("summary events = %d, want call %v", len(sink.summaries), tt.wantSummaryCall)
			}

			if summary.BackupsDeleted != len(tt.wantDeletes) {
				t.Errorf("BackupsDeleted = %d, want %d", summary.BackupsDeleted, len(tt.wantDeletes))
			}
		})
	}
}

func TestOrchestrator_SummaryTotals(t *testing.T) {
	st := &mockStorage{listResult: []storage.ObjectInfo{
		{Key: "a.tar.gz", Size: 1024},
		{Key: "b.zip", Size: 2048},
	}}
	store := &mockRecordStore{records: []Record{{ID: "z", Successful: true}}}
	sink := &recordingSink{}

	orchestrator := NewOrchestrator(&config.Config{}, st, store, sink, slog.New(slog.NewTextHandler(io.Discard, nil)))
	summary, err := orchestrator.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.BackupsDeleted != 2 || summary.BytesCleared != 3072 {
		t.Errorf("summary = %+v, want 2 deletions of 3072 bytes", summary)
	}
	if len(sink.summaries) != 1 || sink.summaries[0].BytesCleared != 3072 {
		t.Errorf("summary events = %+v", sink.summaries)
	}
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(slog.New(slog.NewTextHandler(&buf, nil)))
	ctx := context.Background()

	sink.Decision(ctx, Event{
		Level:   slog.LevelWarn,
		Archive: Archive{Name: "a.zip", Size: 10},
		Outcome: OutcomeDeletedOrphan,
		Reason:  "not found in database",
		Size:    10,
	})
	sink.Summary(ctx, RunSummary{BackupsDeleted: 1, BytesCleared: 10})

	out := buf.String()
	for _, want := range []string{
		"level=WARN",
		`msg="Deleted backup"`,
		"file=a.zip",
		`reason="not found in database"`,
		"backups_deleted=1",
		"bytes_cleared=10",
		`cleared="0.00 GB"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestMultiSink(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	sink := MultiSink{a, b}

	sink.Decision(context.Background(), Event{Outcome: OutcomeKept})
	sink.Summary(context.Background(), RunSummary{})

	for i, s := range []*recordingSink{a, b} {
		if len(s.events) != 1 || len(s.summaries) != 1 {
			t.Errorf("sink %d got %d events and %d summaries", i, len(s.events), len(s.summaries))
		}
	}
}

func TestNewOrchestrator(t *testing.T) {
	cfg := &config.Config{
		StorageProvider: "s3",
	}

	st := &mockStorage{}
	store := &mockRecordStore{}
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	orchestrator := NewOrchestrator(cfg, st, store, NewLogSink(logger), logger)

	if orchestrator == nil {
		t.Fatal("NewOrchestrator returned nil")
	}

	if orchestrator.config != cfg {
		t.Error("Config not set correctly")
	}

	if orchestrator.storage != st {
		t.Error("Storage not set correctly")
	}

	if orchestrator.reconciler == nil {
		t.Error("Reconciler not initialized")
	}

	if orchestrator.provider != "s3" {
		t.Errorf("provider = %v, want s3", orchestrator.provider)
	}
}
