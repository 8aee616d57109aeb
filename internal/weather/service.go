package weather

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Options tunes a Service. The zero value is usable.
type Options struct {
	ProviderTimeout time.Duration
	Recorder        Recorder
	Logger          *zap.Logger
}

// Service answers current weather queries by validating the input and
// averaging the registered providers. It holds no mutable state and is safe
// for concurrent use.
type Service struct {
	validator  *Validator
	aggregator *Aggregator
	logger     *zap.Logger
}

// NewService creates a new Service. geocoder may be nil.
func NewService(registry *Registry, geocoder Geocoder, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		validator:  NewValidator(registry, geocoder, logger.Named("validator")),
		aggregator: NewAggregator(registry, opts.ProviderTimeout, opts.Recorder, logger.Named("aggregator")),
		logger:     logger,
	}
}

// CurrentWeather validates query and aggregates the selected providers.
// Returned errors are always *Error.
func (s *Service) CurrentWeather(ctx context.Context, query map[string]string) (AggregateResult, error) {
	req, err := s.validator.Validate(ctx, query)
	if err != nil {
		return AggregateResult{}, AsError(err)
	}

	res, err := s.aggregator.Aggregate(ctx, req)
	if err != nil {
		return AggregateResult{}, AsError(err)
	}
	return res, nil
}

// Handle runs CurrentWeather and renders the outcome as a response body and
// HTTP status.
func (s *Service) Handle(ctx context.Context, query map[string]string) (any, int) {
	log := loggerFor(ctx, s.logger)
	log.Debug("current weather query", zap.Any("query", query))

	res, err := s.CurrentWeather(ctx, query)
	if err != nil {
		body, status := FormatError(err)
		log.Info("current weather request failed",
			zap.String("error_code", string(body.Code)),
			zap.Int("status", status),
			zap.Error(err))
		return body, status
	}

	body, status := FormatResult(res)
	log.Info("current weather served",
		zap.Strings("services", body.Services),
		zap.Float64("fahrenheit", body.Temperature.Fahrenheit))
	return body, status
}
