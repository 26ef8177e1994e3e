package guard

import (
	"fmt"
	"time"
)

// AgeGuard implements Guard based on archive modification time. Wings keeps
// writing an archive until the backup finishes, and the panel row may not say
// so yet; the guard keeps such archives out of the pass.
type AgeGuard struct {
	config Config
}

// NewAgeGuard creates a new modification-time guard.
func NewAgeGuard(config Config) *AgeGuard {
	if config.Now == nil {
		config.Now = time.Now
	}
	return &AgeGuard{
		config: config,
	}
}

// Allow implements Guard.
func (a *AgeGuard) Allow(modTime time.Time) (bool, string) {
	if a.config.MinAge <= 0 {
		return true, "age guard disabled"
	}

	if modTime.IsZero() {
		return true, "modification time unknown"
	}

	age := a.config.Now().Sub(modTime)
	if age < a.config.MinAge {
		return false, fmt.Sprintf(
			"modified too recently: %s ago, eligible in %s",
			formatDuration(age),
			formatDuration(a.config.MinAge-age),
		)
	}

	return true, fmt.Sprintf("modified %s ago", formatDuration(age))
}

// GetMinAge implements Guard.
func (a *AgeGuard) GetMinAge() time.Duration {
	return a.config.MinAge
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d < time.Minute {
		return fmt.Sprintf("%.0f seconds", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.0f minutes", d.Minutes())
	}
	return fmt.Sprintf("%.1f hours", d.Hours())
}
