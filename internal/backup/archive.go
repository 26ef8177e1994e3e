// Package backup reconciles Wings backup archives against the panel's backup records.
package backup

import (
	"path"
	"strings"
	"time"

	"github.com/imedwei/wings-backup-purger/internal/storage"
)

// Archive suffixes Wings produces. Matching is case-sensitive.
var archiveSuffixes = []string{".tar.gz", ".zip"}

// Archive is a backup file found in the backup location.
type Archive struct {
	Key       string // storage key; a file name for local storage
	Name      string // base name, e.g. "<uuid>.tar.gz"
	DerivedID string // Name with its extension group removed
	Size      int64
	ModTime   time.Time
}

// IsArchive reports whether name looks like a Wings backup archive.
func IsArchive(name string) bool {
	for _, suffix := range archiveSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// DerivedID strips the final extension twice, so "x.tar.gz" and "x.zip" both
// become "x". A leading dot does not start an extension.
func DerivedID(name string) string {
	return stripExt(stripExt(name))
}

func stripExt(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || strings.Trim(name[:i], ".") == "" {
		return name
	}
	return name[:i]
}

// Inventory turns a storage listing into archives, dropping everything that is
// not a backup archive. Listing order is preserved.
func Inventory(objects []storage.ObjectInfo) []Archive {
	archives := make([]Archive, 0, len(objects))
	for _, obj := range objects {
		name := path.Base(obj.Key)
		if !IsArchive(name) {
			continue
		}
		archives = append(archives, Archive{
			Key:       obj.Key,
			Name:      name,
			DerivedID: DerivedID(name),
			Size:      obj.Size,
			ModTime:   obj.LastModified,
		})
	}
	return archives
}
