package health

import (
	"context"
	"sync"
	"time"
)

// CheckResult is the outcome of a single dependency probe.
type CheckResult struct {
	Name      string `json:"name"`
	Healthy   bool   `json:"healthy"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// Checker probes one backing dependency.
type Checker interface {
	Check(ctx context.Context) CheckResult
}

type CheckerFunc func(ctx context.Context) CheckResult

func (f CheckerFunc) Check(ctx context.Context) CheckResult { return f(ctx) }

// ProbeRunner evaluates a set of dependency checkers for the readiness
// endpoint. Results are cached for the configured interval so a probe
// storm cannot hammer the backing stores.
type ProbeRunner struct {
	interval time.Duration
	timeout  time.Duration
	checkers []Checker

	mu      sync.Mutex
	lastRun time.Time
	cached  []CheckResult
}

func NewProbeRunner(interval, timeout time.Duration, checkers ...Checker) *ProbeRunner {
	return &ProbeRunner{interval: interval, timeout: timeout, checkers: checkers}
}

// Ready runs all checkers (or serves the cached round when it is still
// fresh) and reports whether every dependency is healthy.
func (p *ProbeRunner) Ready(ctx context.Context) (bool, []CheckResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	if p.cached == nil || now.Sub(p.lastRun) >= p.interval {
		p.cached = p.run(ctx)
		p.lastRun = now
	}
	results := make([]CheckResult, len(p.cached))
	copy(results, p.cached)

	ready := true
	for _, res := range results {
		if !res.Healthy {
			ready = false
		}
	}
	return ready, results
}

func (p *ProbeRunner) run(ctx context.Context) []CheckResult {
	results := make([]CheckResult, 0, len(p.checkers))
	for _, c := range p.checkers {
		checkCtx := ctx
		cancel := func() {}
		if p.timeout > 0 {
			checkCtx, cancel = context.WithTimeout(ctx, p.timeout)
		}
		start := time.Now()
		res := c.Check(checkCtx)
		cancel()
		res.LatencyMS = time.Since(start).Milliseconds()
		results = append(results, res)
	}
	return results
}

// DatabaseChecker probes a SQL-backed store through a Ping-capable
// handle.
type Pinger interface {
	PingContext(ctx context.Context) error
}

func DatabaseChecker(name string, pinger Pinger) Checker {
	return CheckerFunc(func(ctx context.Context) CheckResult {
		if err := pinger.PingContext(ctx); err != nil {
			return CheckResult{Name: name, Healthy: false, Error: err.Error()}
		}
		return CheckResult{Name: name, Healthy: true}
	})
}
