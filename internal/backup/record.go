package backup

import (
	"context"
	"strings"
)

// Record is the part of a panel backup row the purger needs.
type Record struct {
	ID         string // backup UUID
	Successful bool   // false when the column is NULL
	Checksum   string // "<algorithm>:<hex digest>", may be empty
}

// Digest returns the hex digest portion of the checksum, the text between the
// first and second ':'. ok is false when there is no separator.
func (r Record) Digest() (digest string, ok bool) {
	parts := strings.Split(r.Checksum, ":")
	if len(parts) < 2 {
		return "", false
	}
	return parts[1], true
}

// RecordStore provides a read-only snapshot of the panel's backup records.
type RecordStore interface {
	// Snapshot returns every backup record.
	Snapshot(ctx context.Context) ([]Record, error)
}

// index maps backup IDs to records. The first record for an ID wins.
func index(records []Record) map[string]Record {
	idx := make(map[string]Record, len(records))
	for _, r := range records {
		if _, ok := idx[r.ID]; !ok {
			idx[r.ID] = r
		}
	}
	return idx
}
