package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values for provider calls.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Collector bundles the Prometheus metrics of the service. It satisfies
// weather.Recorder.
type Collector struct {
	gatherer prometheus.Gatherer

	ProviderRequests  *prometheus.CounterVec
	ProviderDurations *prometheus.HistogramVec
	ProviderUp        *prometheus.GaugeVec
	Requests          *prometheus.CounterVec
}

// NewCollector registers the service metrics against reg, defaulting to the
// global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	providerRequests, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sure_weather_provider_requests_total",
		Help: "Upstream weather provider calls, labeled by provider and outcome.",
	}, []string{"provider", "outcome"}))
	if err != nil {
		return nil, err
	}

	providerDurations, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sure_weather_provider_request_duration_seconds",
		Help:    "Upstream weather provider latency in seconds.",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"provider"}))
	if err != nil {
		return nil, err
	}

	providerUp, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sure_weather_provider_up",
		Help: "1 when the last health probe of the provider succeeded, 0 otherwise.",
	}, []string{"provider"}))
	if err != nil {
		return nil, err
	}

	requests, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sure_weather_requests_total",
		Help: "Current weather requests, labeled by HTTP status code.",
	}, []string{"code"}))
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:          gatherer,
		ProviderRequests:  providerRequests,
		ProviderDurations: providerDurations,
		ProviderUp:        providerUp,
		Requests:          requests,
	}, nil
}

// ObserveProvider records one provider call.
func (c *Collector) ObserveProvider(provider string, err error, elapsed time.Duration) {
	if c == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	c.ProviderRequests.WithLabelValues(provider, outcome).Inc()
	c.ProviderDurations.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// ObserveRequest counts a served current weather request.
func (c *Collector) ObserveRequest(status int) {
	if c == nil {
		return
	}
	c.Requests.WithLabelValues(strconv.Itoa(status)).Inc()
}

// SetProviderUp records the result of a health probe.
func (c *Collector) SetProviderUp(provider string, up bool) {
	if c == nil {
		return
	}
	v := 0.0
	if up {
		v = 1
	}
	c.ProviderUp.WithLabelValues(provider).Set(v)
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// register adds collector to reg, reusing an existing collector of the same
// type when one is already registered.
func register[T prometheus.Collector](reg prometheus.Registerer, collector T) (T, error) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %T already registered with incompatible type", collector)
		}
		var zero T
		return zero, err
	}
	return collector, nil
}
