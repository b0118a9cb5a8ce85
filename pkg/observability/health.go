package observability

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"
)

// HealthChecker reports on the connection pools a repository reads and
// writes through. Required pools fail the whole check; optional pools such
// as read replicas only degrade it.
type HealthChecker struct {
	version string

	mu        sync.RWMutex
	databases map[string]checkedDB
}

type checkedDB struct {
	db       *sql.DB
	required bool
}

// NewHealthChecker creates a health checker with no pools registered
func NewHealthChecker(version string) *HealthChecker {
	return &HealthChecker{
		version:   version,
		databases: make(map[string]checkedDB),
	}
}

// Require registers a pool whose failure makes the check unhealthy
func (h *HealthChecker) Require(name string, db *sql.DB) *HealthChecker {
	return h.add(name, db, true)
}

// Optional registers a pool whose failure only degrades the check
func (h *HealthChecker) Optional(name string, db *sql.DB) *HealthChecker {
	return h.add(name, db, false)
}

func (h *HealthChecker) add(name string, db *sql.DB, required bool) *HealthChecker {
	if db == nil {
		return h
	}
	h.mu.Lock()
	h.databases[name] = checkedDB{db: db, required: required}
	h.mu.Unlock()
	return h
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status       string                      `json:"status"`
	Timestamp    time.Time                   `json:"timestamp"`
	Version      string                      `json:"version,omitempty"`
	Dependencies map[string]DependencyStatus `json:"dependencies,omitempty"`
}

// DependencyStatus represents the health of a single pool
type DependencyStatus struct {
	Status    string        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Latency   time.Duration `json:"latency_ms,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

var severity = map[string]int{
	StatusHealthy:   0,
	StatusDegraded:  1,
	StatusUnhealthy: 2,
}

// Check pings every registered pool in name order
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:       StatusHealthy,
		Timestamp:    time.Now(),
		Version:      h.version,
		Dependencies: make(map[string]DependencyStatus),
	}

	h.mu.RLock()
	names := make([]string, 0, len(h.databases))
	for name := range h.databases {
		names = append(names, name)
	}
	h.mu.RUnlock()
	sort.Strings(names)

	for _, name := range names {
		h.mu.RLock()
		entry := h.databases[name]
		h.mu.RUnlock()

		dep := checkDatabase(ctx, entry.db)
		status.Dependencies[name] = dep

		overall := dep.Status
		if overall == StatusUnhealthy && !entry.required {
			overall = StatusDegraded
		}
		if severity[overall] > severity[status.Status] {
			status.Status = overall
		}
	}

	return status
}

// checkDatabase pings the pool and runs a trivial query
func checkDatabase(ctx context.Context, db *sql.DB) DependencyStatus {
	start := time.Now()
	status := DependencyStatus{
		Status:    StatusHealthy,
		Timestamp: start,
	}

	err := db.PingContext(ctx)
	status.Latency = time.Since(start)
	if err != nil {
		status.Status = StatusUnhealthy
		status.Message = err.Error()
		return status
	}

	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		status.Status = StatusUnhealthy
		status.Message = "query failed: " + err.Error()
		return status
	}

	stats := db.Stats()
	if stats.MaxOpenConnections > 0 && stats.InUse >= stats.MaxOpenConnections {
		status.Status = StatusDegraded
		status.Message = "connection pool exhausted"
	}

	return status
}
