package handlers

import (
	"context"
	"net/http"
	"time"
)

// ReadinessCheck reports whether backing dependencies can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// HealthHandlers serves the /healthz and /readyz endpoints.
type HealthHandlers struct {
	version     string
	environment string
	startedAt   time.Time
	clock       func() time.Time
	ready       ReadinessCheck
}

// HealthOption customises health handler construction.
type HealthOption func(*HealthHandlers)

// NewHealthHandlers constructs health handlers with sensible defaults.
func NewHealthHandlers(opts ...HealthOption) *HealthHandlers {
	h := &HealthHandlers{
		startedAt: time.Now(),
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.clock == nil {
		h.clock = time.Now
	}
	if h.startedAt.IsZero() {
		h.startedAt = h.clock()
	}
	return h
}

// WithHealthVersion records the build version reported by /healthz.
func WithHealthVersion(version, environment string) HealthOption {
	return func(h *HealthHandlers) {
		h.version = version
		h.environment = environment
	}
}

// WithHealthStartedAt overrides the process start time used for uptime.
func WithHealthStartedAt(startedAt time.Time) HealthOption {
	return func(h *HealthHandlers) {
		h.startedAt = startedAt
	}
}

// WithHealthClock overrides the time source, primarily for tests.
func WithHealthClock(clock func() time.Time) HealthOption {
	return func(h *HealthHandlers) {
		h.clock = clock
	}
}

// WithHealthReadiness wires the dependency check behind /readyz.
func WithHealthReadiness(check ReadinessCheck) HealthOption {
	return func(h *HealthHandlers) {
		h.ready = check
	}
}

// Healthz reports process liveness.
func (h *HealthHandlers) Healthz(w http.ResponseWriter, r *http.Request) {
	now := h.clock()
	payload := map[string]any{
		"status":    "ok",
		"uptime":    now.Sub(h.startedAt).String(),
		"timestamp": now.UTC().Format(time.RFC3339),
	}
	if h.version != "" {
		payload["version"] = h.version
	}
	if h.environment != "" {
		payload["environment"] = h.environment
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

// Readyz reports whether backing dependencies are reachable.
func (h *HealthHandlers) Readyz(w http.ResponseWriter, r *http.Request) {
	now := h.clock()
	payload := map[string]any{
		"status":    "ok",
		"timestamp": now.UTC().Format(time.RFC3339),
	}

	if h.ready != nil {
		if err := h.ready(r.Context()); err != nil {
			payload["status"] = "unavailable"
			payload["details"] = []string{err.Error()}
			writeJSONResponse(w, http.StatusServiceUnavailable, payload)
			return
		}
	}

	writeJSONResponse(w, http.StatusOK, payload)
}
