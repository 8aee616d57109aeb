package weather

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeProvider struct {
	name  string
	temp  float64
	err   error
	block bool
	calls atomic.Int32
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Fetch(ctx context.Context, _ Coordinate) (float64, error) {
	p.calls.Add(1)
	if p.block {
		<-ctx.Done()
		return 0, fmt.Errorf("%w: %v", ErrProvider, ctx.Err())
	}
	if p.err != nil {
		return 0, p.err
	}
	return p.temp, nil
}

type fakeGeocoder struct {
	coords      map[string]Coordinate
	resolveErr  error
	plausible   bool
	validateErr error
	validated   int
}

func (g *fakeGeocoder) Resolve(_ context.Context, postalCode string) (Coordinate, error) {
	if g.resolveErr != nil {
		return Coordinate{}, g.resolveErr
	}
	c, ok := g.coords[postalCode]
	if !ok {
		return Coordinate{}, ErrLocationNotFound
	}
	return c, nil
}

func (g *fakeGeocoder) Validate(context.Context, Coordinate) (bool, error) {
	g.validated++
	return g.plausible, g.validateErr
}

type observation struct {
	provider string
	failed   bool
}

type fakeRecorder struct {
	mu  sync.Mutex
	obs []observation
}

func (r *fakeRecorder) ObserveProvider(provider string, err error, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.obs = append(r.obs, observation{provider: provider, failed: err != nil})
}

var errUpstream = fmt.Errorf("%w: upstream returned 500", ErrProvider)

func mustRegistry(t *testing.T, providers ...Provider) *Registry {
	t.Helper()
	reg, err := NewRegistry(providers...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

func requireCode(t *testing.T, err error, want ErrorCode) *Error {
	t.Helper()
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *Error with code %s, got %v", want, err)
	}
	if e.Code != want {
		t.Fatalf("error code = %s, want %s (messages %v)", e.Code, want, e.Messages)
	}
	return e
}
