package backup

import (
	"testing"
	"time"

	"github.com/imedwei/wings-backup-purger/internal/storage"
)

func TestIsArchive(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"0c7b5c5a-1b4e-4a77-9f5e-3f6f4c1a2b3c.tar.gz", true},
		{"backup.zip", true},
		{"backup.TAR.GZ", false},
		{"backup.ZIP", false},
		{"backup.tar", false},
		{"backup.gz", false},
		{"backup.tar.gz.part", false},
		{"README", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsArchive(tt.name); got != tt.want {
				t.Errorf("IsArchive(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestDerivedID(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"0c7b5c5a-1b4e-4a77-9f5e-3f6f4c1a2b3c.tar.gz", "0c7b5c5a-1b4e-4a77-9f5e-3f6f4c1a2b3c"},
		{"0c7b5c5a-1b4e-4a77-9f5e-3f6f4c1a2b3c.zip", "0c7b5c5a-1b4e-4a77-9f5e-3f6f4c1a2b3c"},
		{"a.b.zip", "a"},
		{"plain", "plain"},
		{".zip", ".zip"},
		{".hidden.zip", ".hidden"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DerivedID(tt.name); got != tt.want {
				t.Errorf("DerivedID(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestInventory(t *testing.T) {
	mod := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	objects := []storage.ObjectInfo{
		{Key: "b.zip", Size: 2, LastModified: mod},
		{Key: "notes.txt", Size: 9},
		{Key: "server/a.tar.gz", Size: 1},
	}

	archives := Inventory(objects)
	if len(archives) != 2 {
		t.Fatalf("Inventory() returned %d archives, want 2", len(archives))
	}

	if archives[0].Name != "b.zip" || archives[0].DerivedID != "b" || archives[0].Size != 2 || !archives[0].ModTime.Equal(mod) {
		t.Errorf("archives[0] = %+v", archives[0])
	}
	if archives[1].Key != "server/a.tar.gz" || archives[1].Name != "a.tar.gz" || archives[1].DerivedID != "a" {
		t.Errorf("archives[1] = %+v", archives[1])
	}
}

func TestRecord_Digest(t *testing.T) {
	tests := []struct {
		checksum string
		want     string
		wantOK   bool
	}{
		{"sha1:abc123", "abc123", true},
		{"sha1:", "", true},
		{"abc123", "", false},
		{"", "", false},
		{"sha1:abc:def", "abc", true},
	}

	for _, tt := range tests {
		t.Run(tt.checksum, func(t *testing.T) {
			got, ok := Record{Checksum: tt.checksum}.Digest()
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Digest() = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestIndex_FirstRecordWins(t *testing.T) {
	idx := index([]Record{
		{ID: "a", Successful: false},
		{ID: "a", Successful: true},
		{ID: "b", Successful: true},
	})

	if len(idx) != 2 {
		t.Fatalf("index size = %d, want 2", len(idx))
	}
	if idx["a"].Successful {
		t.Errorf("first record for an ID should win")
	}
}
