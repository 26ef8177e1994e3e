package guard

import (
	"strings"
	"testing"
	"time"
)

func TestAgeGuard_Allow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	tests := []struct {
		name           string
		config         Config
		modTime        time.Time
		wantAllow      bool
		wantReasonPart string
	}{
		{
			name: "guard disabled",
			config: Config{
				MinAge: 0,
				Now:    clock,
			},
			modTime:        now,
			wantAllow:      true,
			wantReasonPart: "disabled",
		},
		{
			name: "unknown modification time",
			config: Config{
				MinAge: 30 * time.Minute,
				Now:    clock,
			},
			modTime:        time.Time{},
			wantAllow:      true,
			wantReasonPart: "unknown",
		},
		{
			name: "archive too recent",
			config: Config{
				MinAge: 30 * time.Minute,
				Now:    clock,
			},
			modTime:        now.Add(-5 * time.Minute),
			wantAllow:      false,
			wantReasonPart: "eligible in 25 minutes",
		},
		{
			name: "archive old enough",
			config: Config{
				MinAge: 30 * time.Minute,
				Now:    clock,
			},
			modTime:        now.Add(-2 * time.Hour),
			wantAllow:      true,
			wantReasonPart: "modified 2.0 hours ago",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewAgeGuard(tt.config)
			gotAllow, gotReason := g.Allow(tt.modTime)

			if gotAllow != tt.wantAllow {
				t.Errorf("Allow() gotAllow = %v, want %v", gotAllow, tt.wantAllow)
			}

			if !strings.Contains(gotReason, tt.wantReasonPart) {
				t.Errorf("Allow() gotReason = %v, want to contain %v", gotReason, tt.wantReasonPart)
			}
		})
	}
}

func TestAgeGuard_GetMinAge(t *testing.T) {
	config := Config{
		MinAge: 8 * time.Hour,
	}
	g := NewAgeGuard(config)

	if got := g.GetMinAge(); got != config.MinAge {
		t.Errorf("GetMinAge() = %v, want %v", got, config.MinAge)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		want     string
	}{
		{30 * time.Second, "30 seconds"},
		{90 * time.Second, "2 minutes"},
		{45 * time.Minute, "45 minutes"},
		{90 * time.Minute, "1.5 hours"},
		{25 * time.Hour, "25.0 hours"},
		{-time.Minute, "0 seconds"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := formatDuration(tt.duration); got != tt.want {
				t.Errorf("formatDuration(%v) = %v, want %v", tt.duration, got, tt.want)
			}
		})
	}
}
