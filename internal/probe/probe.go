// Package probe checks that the backends referenced by resolved settings are
// reachable: the database, cache, task broker, LDAP directory, SMTP relay and
// syslog socket.
package probe

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultTimeout bounds a full check run.
const DefaultTimeout = 5 * time.Second

// ErrUnhealthy is returned by Summary when any probe failed.
var ErrUnhealthy = errors.New("backend check failed")

// Probe checks a single backend.
type Probe interface {
	// Name is the component name, e.g. "database".
	Name() string
	// Target is a credential free description of the endpoint.
	Target() string
	Check(ctx context.Context) error
}

// Result is the outcome of one probe.
type Result struct {
	Name      string        `json:"name"`
	Target    string        `json:"target"`
	Healthy   bool          `json:"healthy"`
	Latency   time.Duration `json:"-"`
	LatencyMS float64       `json:"latencyMs"`
	Error     string        `json:"error,omitempty"`
}

// Checker runs probes concurrently under a shared timeout.
type Checker struct {
	Timeout time.Duration
	Logger  *zap.Logger
	// Observe, when set, is called with every result as it completes.
	Observe func(Result)
}

// Run executes every probe and returns results in input order. A failing
// probe never cancels the others.
func (c *Checker) Run(ctx context.Context, probes []Probe) []Result {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results := make([]Result, len(probes))
	g := new(errgroup.Group)
	for i, p := range probes {
		g.Go(func() error {
			results[i] = run(ctx, p)
			if c.Observe != nil {
				c.Observe(results[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		if r.Healthy {
			logger.Debug("backend reachable",
				zap.String("backend", r.Name),
				zap.String("target", r.Target),
				zap.Duration("latency", r.Latency),
			)
			continue
		}
		logger.Warn("backend unreachable",
			zap.String("backend", r.Name),
			zap.String("target", r.Target),
			zap.String("error", r.Error),
		)
	}
	return results
}

func run(ctx context.Context, p Probe) Result {
	start := time.Now()
	err := p.Check(ctx)
	latency := time.Since(start)

	r := Result{
		Name:      p.Name(),
		Target:    p.Target(),
		Healthy:   err == nil,
		Latency:   latency,
		LatencyMS: float64(latency.Microseconds()) / 1000,
	}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// Summary returns ErrUnhealthy when any result failed.
func Summary(results []Result) error {
	var failed []string
	for _, r := range results {
		if !r.Healthy {
			failed = append(failed, r.Name)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return &UnhealthyError{Backends: failed}
}

// UnhealthyError lists the backends that failed.
type UnhealthyError struct {
	Backends []string
}

func (e *UnhealthyError) Error() string {
	msg := ErrUnhealthy.Error() + ":"
	for i, b := range e.Backends {
		if i > 0 {
			msg += ","
		}
		msg += " " + b
	}
	return msg
}

func (e *UnhealthyError) Unwrap() error { return ErrUnhealthy }
