package health

import (
	"context"
	"sync"
	"time"
)

// Status values reported by probes.
const (
	StatusOK        = "ok"
	StatusReady     = "ready"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// CheckFunc probes one dependency. It returns nil if the dependency is usable.
// The context carries the per-check timeout.
//
// Example:
//
//	checker.RegisterCheck("store", func(ctx context.Context) error {
//	    return store.Ping(ctx)
//	})
type CheckFunc func(ctx context.Context) error

// CheckResult represents the result of a single health check.
type CheckResult struct {
	// Status is StatusOK or StatusUnhealthy.
	Status string `json:"status"`

	// Message holds the check error, or "health check timeout".
	Message string `json:"message,omitempty"`

	// DurationMs is how long the check ran, in milliseconds.
	DurationMs float64 `json:"duration_ms"`
}

// Status is the body of a probe response.
type Status struct {
	// Status is StatusOK for liveness, and StatusReady or StatusDegraded
	// for readiness.
	Status string `json:"status"`

	// Checks holds one result per registered check. Empty for liveness.
	Checks map[string]CheckResult `json:"checks,omitempty"`

	// Timestamp is when the probe was answered, in UTC.
	Timestamp time.Time `json:"timestamp"`
}

// Checker holds the named readiness checks. Checks run concurrently, each
// bounded by the checker's timeout.
//
// Example usage:
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("store", store.Ping)
//	mux.Handle("GET /health", checker.LivenessHandler())
//	mux.Handle("GET /ready", checker.ReadinessHandler())
type Checker struct {
	// mu guards checks.
	mu     sync.RWMutex
	checks map[string]CheckFunc

	// checkTimeout bounds each check run.
	checkTimeout time.Duration

	// now is the clock for Timestamp; replaced in tests.
	now func() time.Time
}

// New creates a health checker with the specified per-check timeout.
// If timeout is 0, defaults to 5 seconds.
func New(checkTimeout time.Duration) *Checker {
	if checkTimeout == 0 {
		checkTimeout = 5 * time.Second
	}
	return &Checker{
		checks:       make(map[string]CheckFunc),
		checkTimeout: checkTimeout,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// RegisterCheck registers a check under name, replacing any existing one.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Liveness reports that the process is running.
func (c *Checker) Liveness() Status {
	return Status{Status: StatusOK, Timestamp: c.now()}
}

// Readiness runs every registered check and aggregates the results.
// With no checks registered the service is ready.
func (c *Checker) Readiness(ctx context.Context) Status {
	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	results := make(map[string]CheckResult, len(checks))
	var resultMu sync.Mutex
	var wg sync.WaitGroup

	for name, check := range checks {
		wg.Add(1)
		go func(name string, check CheckFunc) {
			defer wg.Done()
			result := c.runCheck(ctx, check)

			resultMu.Lock()
			results[name] = result
			resultMu.Unlock()
		}(name, check)
	}
	wg.Wait()

	status := StatusReady
	for _, result := range results {
		if result.Status == StatusUnhealthy {
			status = StatusDegraded
		}
	}

	return Status{Status: status, Checks: results, Timestamp: c.now()}
}

// runCheck executes a single check, abandoning it after the timeout.
func (c *Checker) runCheck(ctx context.Context, check CheckFunc) CheckResult {
	checkCtx, cancel := context.WithTimeout(ctx, c.checkTimeout)
	defer cancel()

	start := time.Now()
	errChan := make(chan error, 1)
	go func() {
		errChan <- check(checkCtx)
	}()

	elapsed := func() float64 { return float64(time.Since(start).Microseconds()) / 1000 }

	select {
	case err := <-errChan:
		if err != nil {
			return CheckResult{Status: StatusUnhealthy, Message: err.Error(), DurationMs: elapsed()}
		}
		return CheckResult{Status: StatusOK, DurationMs: elapsed()}

	case <-checkCtx.Done():
		return CheckResult{Status: StatusUnhealthy, Message: "health check timeout", DurationMs: elapsed()}
	}
}
