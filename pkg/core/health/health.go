// Package health aggregates liveness probes into a single report served on
// /healthz.
package health

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/msto63/kinematics/foundation/kinematic"
	"github.com/msto63/kinematics/foundation/kinematic/value"
)

// Status is the outcome of a probe or of a whole report
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// errProbeTimeout is reported for probes still running when the context ends
var errProbeTimeout = errors.New("probe timed out")

// Check is one named probe. A failing critical check makes the report
// unhealthy, a failing optional one only degrades it.
type Check struct {
	Name     string
	Critical bool
	Probe    func(ctx context.Context) error
}

// Result is the outcome of one Check
type Result struct {
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Report is the aggregated outcome of all checks
type Report struct {
	Service string        `json:"service"`
	Version string        `json:"version"`
	Status  Status        `json:"status"`
	Uptime  time.Duration `json:"uptime"`
	Checks  []Result      `json:"checks"`
}

func (r *Report) String() string {
	failed := 0
	for _, c := range r.Checks {
		if c.Status != StatusHealthy {
			failed++
		}
	}
	return fmt.Sprintf("%s %s: %s (%d/%d checks failing, up %s)",
		r.Service, r.Version, r.Status, failed, len(r.Checks), r.Uptime.Round(time.Second))
}

// Registry holds the checks of one service
type Registry struct {
	mu      sync.RWMutex
	checks  []Check
	service string
	version string
	started time.Time
}

// NewRegistry creates an empty registry
func NewRegistry(service, version string) *Registry {
	return &Registry{service: service, version: version, started: time.Now()}
}

// Register adds c, replacing any check with the same name
func (r *Registry) Register(c Check) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.checks {
		if r.checks[i].Name == c.Name {
			r.checks[i] = c
			return
		}
	}
	r.checks = append(r.checks, c)
}

// Check runs all probes concurrently. Probes that outlive ctx count as
// failed; their goroutines finish in the background.
func (r *Registry) Check(ctx context.Context) *Report {
	r.mu.RLock()
	checks := append([]Check(nil), r.checks...)
	r.mu.RUnlock()

	results := make([]Result, len(checks))
	var wg sync.WaitGroup
	for i, c := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = run(ctx, c)
		}()
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return &Report{
		Service: r.service,
		Version: r.version,
		Status:  overall(results),
		Uptime:  time.Since(r.started),
		Checks:  results,
	}
}

// CheckWithTimeout is Check with a fresh deadline
func (r *Registry) CheckWithTimeout(timeout time.Duration) *Report {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return r.Check(ctx)
}

func run(ctx context.Context, c Check) Result {
	start := time.Now()
	done := make(chan error, 1)
	go func() { done <- c.Probe(ctx) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = errProbeTimeout
	}

	res := Result{Name: c.Name, Status: StatusHealthy, Duration: time.Since(start)}
	if err != nil {
		res.Error = err.Error()
		res.Status = StatusDegraded
		if c.Critical {
			res.Status = StatusUnhealthy
		}
	}
	return res
}

func overall(results []Result) Status {
	status := StatusHealthy
	for _, res := range results {
		switch res.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}

// PingCheck wraps a ping function such as a database ping
func PingCheck(name string, critical bool, ping func(ctx context.Context) error) Check {
	return Check{Name: name, Critical: critical, Probe: ping}
}

// EngineCheck compiles and runs a small program and verifies its result
func EngineCheck(name string) Check {
	return Check{Name: name, Critical: true, Probe: probeEngine}
}

func probeEngine(ctx context.Context) error {
	prog, err := kinematic.Compile([]string{
		"Q1=SQRT(P1)+1",
		"IF(Q1=5)",
		"M1=1",
		"ENDIF",
	}, kinematic.Options{MaxSteps: 100})
	if err != nil {
		return err
	}
	out, err := prog.Run(ctx, map[string]kinematic.Value{"P1": value.Scalar(16)})
	if err != nil {
		return err
	}
	if m1, _ := out["M1"].Float(); m1 != 1 {
		return fmt.Errorf("engine self test: got Q1=%s M1=%s", out["Q1"], out["M1"])
	}
	return nil
}
