// Package guard protects archives that are too young to judge.
package guard

import (
	"time"
)

// Guard decides whether an archive is old enough to be reconciled.
type Guard interface {
	// Allow determines if an archive last modified at modTime may be judged.
	// Returns true if it may, false otherwise.
	// The string return value contains a human-readable reason.
	Allow(modTime time.Time) (bool, string)

	// GetMinAge returns the minimum age an archive must reach.
	GetMinAge() time.Duration
}

// Config holds configuration for the age guard.
type Config struct {
	// MinAge is the minimum time since an archive was last modified. Zero
	// disables the guard.
	MinAge time.Duration

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}
