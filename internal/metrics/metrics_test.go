package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordOutcome(t *testing.T) {
	beforeDeleted := testutil.ToFloat64(Archives.WithLabelValues("deleted-orphan"))
	beforeBytes := testutil.ToFloat64(BytesCleared)

	RecordOutcome("deleted-orphan", 2048)
	RecordOutcome("kept", 0)

	if got := testutil.ToFloat64(Archives.WithLabelValues("deleted-orphan")) - beforeDeleted; got != 1 {
		t.Errorf("deleted-orphan delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(BytesCleared) - beforeBytes; got != 2048 {
		t.Errorf("bytes cleared delta = %v, want 2048", got)
	}
}

func TestRecordStorageOperation(t *testing.T) {
	before := testutil.ToFloat64(StorageOperations.WithLabelValues("delete", "local", "failure"))
	RecordStorageOperation("delete", "local", false)
	if got := testutil.ToFloat64(StorageOperations.WithLabelValues("delete", "local", "failure")) - before; got != 1 {
		t.Errorf("failure delta = %v, want 1", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	RecordOutcome("kept", 0)
	path := filepath.Join(t.TempDir(), "purger.prom")

	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "wings_backup_purger_archives_total") {
		t.Errorf("textfile missing archive counter:\n%s", data)
	}
}
