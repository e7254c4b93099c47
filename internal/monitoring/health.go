package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

var startTime = time.Now()

// HealthChecker tracks search progress for the /health endpoint
type HealthChecker struct {
	mu          sync.RWMutex
	sessionID   string
	budget      int
	evaluations int
	failures    int
	bestValue   float64
	lastUpdate  time.Time
	done        bool
	errors      []string
}

type HealthStatus struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	SessionID   string    `json:"session_id,omitempty"`
	Evaluations int       `json:"evaluations"`
	Budget      int       `json:"budget"`
	Failures    int       `json:"failures"`
	BestValue   float64   `json:"best_value"`
	LastUpdate  time.Time `json:"last_update"`
	Done        bool      `json:"done"`
	Uptime      string    `json:"uptime"`
	Errors      []string  `json:"errors,omitempty"`
}

const maxHealthErrors = 10

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		errors: make([]string, 0),
	}
}

// StartSession resets progress for a new search
func (h *HealthChecker) StartSession(sessionID string, budget int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessionID = sessionID
	h.budget = budget
	h.evaluations = 0
	h.failures = 0
	h.bestValue = 0
	h.done = false
	h.errors = h.errors[:0]
	h.lastUpdate = time.Now()
}

// RecordEvaluation updates progress after one objective call
func (h *HealthChecker) RecordEvaluation(value float64, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.evaluations++
	h.lastUpdate = time.Now()
	if err != nil {
		h.failures++
		h.errors = append(h.errors, err.Error())
		if len(h.errors) > maxHealthErrors {
			h.errors = h.errors[1:]
		}
		return
	}
	if value > h.bestValue {
		h.bestValue = value
	}
}

// Finish marks the session complete
func (h *HealthChecker) Finish() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.done = true
	h.lastUpdate = time.Now()
}

// Status returns a snapshot of search progress
func (h *HealthChecker) Status() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "running"
	switch {
	case h.done:
		status = "done"
	case h.sessionID == "":
		status = "idle"
	case h.evaluations > 0 && h.failures == h.evaluations:
		status = "degraded"
	}

	return HealthStatus{
		Status:      status,
		Timestamp:   time.Now(),
		SessionID:   h.sessionID,
		Evaluations: h.evaluations,
		Budget:      h.budget,
		Failures:    h.failures,
		BestValue:   h.bestValue,
		LastUpdate:  h.lastUpdate,
		Done:        h.done,
		Uptime:      time.Since(startTime).String(),
		Errors:      append([]string(nil), h.errors...),
	}
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	health := h.Status()

	w.Header().Set("Content-Type", "application/json")
	if health.Status == "degraded" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(health)
}
