package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/vamshikr/sure-weather/internal/store"
	"github.com/vamshikr/sure-weather/internal/weather"
)

// StatusRecorder receives the outcome of each probe. A nil StatusRecorder is allowed.
type StatusRecorder interface {
	SetProviderUp(provider string, up bool)
}

// Config controls the health probes.
type Config struct {
	Interval time.Duration // 0 disables scheduling
	Probe    weather.Coordinate
	Timeout  time.Duration
}

// Scheduler periodically probes every registered provider and records
// the outcome in the store.
type Scheduler struct {
	scheduler *gocron.Scheduler
	registry  *weather.Registry
	store     *store.MemoryStore
	recorder  StatusRecorder
	cfg       Config
	logger    *zap.Logger
}

// New creates a new Scheduler.
func New(cfg Config, registry *weather.Registry, st *store.MemoryStore, recorder StatusRecorder, logger *zap.Logger) *Scheduler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = weather.DefaultProviderTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		registry:  registry,
		store:     st,
		recorder:  recorder,
		cfg:       cfg,
		logger:    logger,
	}
}

// Start schedules the periodic probe job and starts the underlying scheduler.
// The first probe runs immediately.
func (s *Scheduler) Start() error {
	if s.cfg.Interval <= 0 {
		s.logger.Info("scheduler: health probes disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.cfg.Interval).Do(func() {
		s.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// RunOnce probes every registered provider concurrently and waits for all of them.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.logger.Debug("scheduler: running provider probes")

	var wg sync.WaitGroup
	for _, name := range s.registry.Names() {
		p, ok := s.registry.Get(name)
		if !ok {
			continue
		}
		wg.Add(1)
		go func(p weather.Provider) {
			defer wg.Done()
			s.probe(ctx, p)
		}(p)
	}
	wg.Wait()

	s.logger.Debug("scheduler: completed provider probes")
}

func (s *Scheduler) probe(ctx context.Context, p weather.Provider) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	f, err := p.Fetch(ctx, s.cfg.Probe)

	result := store.ProbeResult{
		Provider:  p.Name(),
		Timestamp: start.UTC(),
		Up:        err == nil,
		Latency:   time.Since(start),
	}
	if err != nil {
		result.Error = err.Error()
		s.logger.Warn("scheduler: provider probe failed", zap.String("provider", p.Name()), zap.Error(err))
	} else {
		result.Fahrenheit = f
	}

	s.store.Save(result)
	if s.recorder != nil {
		s.recorder.SetProviderUp(p.Name(), result.Up)
	}
}
