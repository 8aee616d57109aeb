package weather

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultProviderTimeout bounds a single provider call when none is configured.
const DefaultProviderTimeout = 5 * time.Second

// Aggregator fans a ValidatedRequest out to the selected providers and
// averages the temperatures of those that answered.
type Aggregator struct {
	registry *Registry
	timeout  time.Duration
	recorder Recorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewAggregator creates an Aggregator. timeout <= 0 selects DefaultProviderTimeout.
func NewAggregator(registry *Registry, timeout time.Duration, recorder Recorder, logger *zap.Logger) *Aggregator {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		registry: registry,
		timeout:  timeout,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// Aggregate queries every selected provider concurrently. Individual provider
// failures are logged and dropped; only the case where none succeeded is an
// error (CodeServiceNotAvailable).
func (a *Aggregator) Aggregate(ctx context.Context, req ValidatedRequest) (AggregateResult, error) {
	log := loggerFor(ctx, a.logger)
	results := a.fanOut(ctx, req)

	var (
		sum      float64
		services []string
	)
	for _, r := range results {
		if r.err != nil {
			// Log and continue.
			log.Warn("provider fetch failed",
				zap.String("provider", r.name),
				zap.Float64("latitude", req.Coordinate.Latitude),
				zap.Float64("longitude", req.Coordinate.Longitude),
				zap.Error(r.err))
			continue
		}
		sum += r.fahrenheit
		services = append(services, r.name)
	}

	if len(services) == 0 {
		log.Error("no successful provider readings",
			zap.Strings("providers", req.Providers))
		return AggregateResult{}, NewError(CodeServiceNotAvailable, "No weather service available", nil)
	}

	mean := sum / float64(len(services))
	log.Debug("aggregated provider readings",
		zap.Strings("services", services),
		zap.Float64("fahrenheit", mean))

	return AggregateResult{
		Coordinate: req.Coordinate.Rounded(),
		Timestamp:  a.now().UTC(),
		Services:   services,
		Fahrenheit: round2(mean),
		Celsius:    round2(fahrenheitToCelsius(mean)),
	}, nil
}

// fanOut returns one result per selected provider, in selection order.
func (a *Aggregator) fanOut(ctx context.Context, req ValidatedRequest) []providerResult {
	results := make([]providerResult, len(req.Providers))

	var wg sync.WaitGroup
	for i, name := range req.Providers {
		results[i].name = name

		p, ok := a.registry.Get(name)
		if !ok {
			results[i].err = fmt.Errorf("%w: %s is not registered", ErrProvider, name)
			continue
		}

		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()
			results[i].fahrenheit, results[i].err = a.fetch(ctx, p, req.Coordinate)
		}(i, p)
	}
	wg.Wait()

	return results
}

func (a *Aggregator) fetch(ctx context.Context, p Provider, coord Coordinate) (f float64, err error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s panicked: %v", ErrProvider, p.Name(), r)
		}
		if a.recorder != nil {
			a.recorder.ObserveProvider(p.Name(), err, time.Since(start))
		}
	}()

	f, err = p.Fetch(ctx, coord)
	if err == nil && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return 0, fmt.Errorf("%w: %s returned non-finite temperature %v", ErrProvider, p.Name(), f)
	}
	return f, err
}
