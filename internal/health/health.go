// Package health reports whether the purger's dependencies are reachable.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Status represents the health status of a component.
type Status string

const (
	// StatusHealthy indicates the component is healthy.
	StatusHealthy Status = "healthy"
	// StatusUnhealthy indicates the component is unhealthy.
	StatusUnhealthy Status = "unhealthy"
)

// DefaultProbeTimeout bounds a single probe.
const DefaultProbeTimeout = 5 * time.Second

// Check represents a health check result.
type Check struct {
	Status    Status         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details,omitempty"`
}

// Probe returns nil when a dependency is usable.
type Probe func(ctx context.Context) error

// Checker performs health checks and tracks readiness.
type Checker struct {
	mu     sync.RWMutex
	checks map[string]func(context.Context) Check
	ready  atomic.Bool
}

// NewChecker creates a new health checker. It starts out not ready.
func NewChecker() *Checker {
	return &Checker{
		checks: make(map[string]func(context.Context) Check),
	}
}

// RegisterCheck registers a health check function.
func (c *Checker) RegisterCheck(name string, checkFunc func(context.Context) Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = checkFunc
}

// RegisterProbe registers a check backed by probe. details are reported with
// every result; a failing probe adds its error.
func (c *Checker) RegisterProbe(name string, probe Probe, details map[string]any) {
	c.RegisterCheck(name, func(ctx context.Context) Check {
		ctx, cancel := context.WithTimeout(ctx, DefaultProbeTimeout)
		defer cancel()

		result := Check{
			Status:    StatusHealthy,
			Timestamp: time.Now(),
			Details:   make(map[string]any, len(details)+1),
		}
		for k, v := range details {
			result.Details[k] = v
		}

		if err := probe(ctx); err != nil {
			result.Status = StatusUnhealthy
			result.Details["error"] = err.Error()
		}
		return result
	})
}

// SetReady marks the purger as connected to its dependencies.
func (c *Checker) SetReady(ready bool) {
	c.ready.Store(ready)
}

// CheckHealth performs all registered health checks.
func (c *Checker) CheckHealth(ctx context.Context) map[string]Check {
	c.mu.RLock()
	defer c.mu.RUnlock()

	results := make(map[string]Check)
	for name, checkFunc := range c.checks {
		results[name] = checkFunc(ctx)
	}
	return results
}

// Handler returns an HTTP handler for health checks.
func (c *Checker) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := c.CheckHealth(r.Context())

		overallStatus := StatusHealthy
		for _, check := range results {
			if check.Status == StatusUnhealthy {
				overallStatus = StatusUnhealthy
				break
			}
		}

		response := struct {
			Status    Status           `json:"status"`
			Checks    map[string]Check `json:"checks"`
			Timestamp time.Time        `json:"timestamp"`
		}{
			Status:    overallStatus,
			Checks:    results,
			Timestamp: time.Now(),
		}

		w.Header().Set("Content-Type", "application/json")
		if overallStatus == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}

		// Headers are already sent; an encoding error cannot be reported.
		_ = json.NewEncoder(w).Encode(response)
	}
}

// ReadinessHandler reports ready once SetReady(true) has been called.
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !c.ready.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready\n"))
	}
}

// LivenessHandler returns a simple liveness check handler.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("alive\n"))
	}
}
