package probe

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

type fakeProbe struct {
	name string
	err  error
	wait bool
}

func (f *fakeProbe) Name() string   { return f.name }
func (f *fakeProbe) Target() string { return "fake://" + f.name }

func (f *fakeProbe) Check(ctx context.Context) error {
	if f.wait {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.err
}

func TestCheckerRunKeepsOrderAndIsolatesFailures(t *testing.T) {
	var mu sync.Mutex
	observed := map[string]bool{}

	c := &Checker{
		Timeout: time.Second,
		Logger:  zaptest.NewLogger(t),
		Observe: func(r Result) {
			mu.Lock()
			observed[r.Name] = r.Healthy
			mu.Unlock()
		},
	}

	results := c.Run(context.Background(), []Probe{
		&fakeProbe{name: "first"},
		&fakeProbe{name: "broken", err: errors.New("boom")},
		&fakeProbe{name: "last"},
	})

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, name := range []string{"first", "broken", "last"} {
		if results[i].Name != name {
			t.Fatalf("result %d: expected %s, got %s", i, name, results[i].Name)
		}
	}
	if !results[0].Healthy || results[1].Healthy || !results[2].Healthy {
		t.Fatalf("unexpected health flags: %+v", results)
	}
	if results[1].Error != "boom" {
		t.Fatalf("expected error message, got %q", results[1].Error)
	}
	if results[0].Target != "fake://first" {
		t.Fatalf("unexpected target %q", results[0].Target)
	}
	if len(observed) != 3 || observed["broken"] {
		t.Fatalf("unexpected observed results %v", observed)
	}
}

func TestCheckerRunTimeout(t *testing.T) {
	c := &Checker{Timeout: 20 * time.Millisecond}

	start := time.Now()
	results := c.Run(context.Background(), []Probe{&fakeProbe{name: "hang", wait: true}})
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("timeout not applied, took %v", elapsed)
	}
	if results[0].Healthy {
		t.Fatalf("expected hanging probe to fail")
	}
}

func TestSummary(t *testing.T) {
	if err := Summary([]Result{{Name: "a", Healthy: true}}); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}

	err := Summary([]Result{{Name: "a", Healthy: true}, {Name: "b"}, {Name: "c"}})
	if !errors.Is(err, ErrUnhealthy) {
		t.Fatalf("expected ErrUnhealthy, got %v", err)
	}
	var unhealthy *UnhealthyError
	if !errors.As(err, &unhealthy) || len(unhealthy.Backends) != 2 {
		t.Fatalf("expected two failed backends, got %v", err)
	}
	if err.Error() != "backend check failed: b, c" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
