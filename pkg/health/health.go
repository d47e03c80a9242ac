// Package health exposes liveness and readiness endpoints backed by
// registered dependency checkers.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Checker reports whether a single dependency is usable.
type Checker func(ctx context.Context) error

const (
	StatusUp   = "up"
	StatusDown = "down"
)

const checkTimeout = 5 * time.Second

// Handler aggregates named checkers.
type Handler struct {
	mu       sync.RWMutex
	checkers map[string]Checker
}

func NewHandler() *Handler {
	return &Handler{checkers: make(map[string]Checker)}
}

// Register adds a named dependency checker. Safe for concurrent use.
func (h *Handler) Register(name string, c Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[name] = c
}

// LivenessHandler always answers 200: the process is running.
func (h *Handler) LivenessHandler(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, http.StatusOK, map[string]string{"status": StatusUp})
}

// ReadinessHandler runs every checker with a shared timeout and answers
// 503 when any dependency is down.
func (h *Handler) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	h.mu.RLock()
	names := make([]string, 0, len(h.checkers))
	for name := range h.checkers {
		names = append(names, name)
	}
	checkers := make(map[string]Checker, len(h.checkers))
	for name, c := range h.checkers {
		checkers[name] = c
	}
	h.mu.RUnlock()

	status := http.StatusOK
	deps := make(map[string]string, len(names))
	overall := StatusUp
	for name, c := range checkers {
		if err := c(ctx); err != nil {
			deps[name] = StatusDown
			overall = StatusDown
			status = http.StatusServiceUnavailable
		} else {
			deps[name] = StatusUp
		}
	}

	writeStatus(w, status, map[string]any{
		"status":       overall,
		"dependencies": deps,
	})
}

func writeStatus(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
