package weather

import (
	"context"
	"fmt"
	"time"
)

// Provider abstracts an upstream weather source (e.g. weather.com, AccuWeather, NOAA).
type Provider interface {
	Name() string
	// Fetch returns the current temperature in fahrenheit at the coordinate.
	Fetch(ctx context.Context, coord Coordinate) (float64, error)
}

// Geocoder resolves postal codes and checks coordinate plausibility.
type Geocoder interface {
	// Resolve returns ErrLocationNotFound when the postal code has no match.
	Resolve(ctx context.Context, postalCode string) (Coordinate, error)
	// Validate reports whether the coordinate maps to a known place.
	// Errors are reserved for transport and decoding failures.
	Validate(ctx context.Context, coord Coordinate) (bool, error)
}

// Recorder receives per-provider call outcomes. A nil Recorder is allowed.
type Recorder interface {
	ObserveProvider(provider string, err error, elapsed time.Duration)
}

// Registry is the immutable set of providers available to requests.
// It keeps registration order so the default selection is stable.
type Registry struct {
	names     []string
	providers map[string]Provider
}

// NewRegistry builds a Registry. Duplicate names are rejected.
func NewRegistry(providers ...Provider) (*Registry, error) {
	r := &Registry{
		providers: make(map[string]Provider, len(providers)),
	}
	for _, p := range providers {
		name := p.Name()
		if _, exists := r.providers[name]; exists {
			return nil, fmt.Errorf("provider %q registered twice", name)
		}
		r.providers[name] = p
		r.names = append(r.names, name)
	}
	return r, nil
}

// Names returns a copy of the registered provider names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Get looks up a provider by name.
func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.providers[name]
	return ok
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	return len(r.names)
}
