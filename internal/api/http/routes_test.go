package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vamshikr/sure-weather/internal/observability"
	"github.com/vamshikr/sure-weather/internal/store"
	"github.com/vamshikr/sure-weather/internal/weather"
	"github.com/vamshikr/sure-weather/internal/weather/providers"
)

type stubProvider struct {
	name string
	temp float64
	err  error
}

func (p stubProvider) Name() string { return p.name }

func (p stubProvider) Fetch(context.Context, weather.Coordinate) (float64, error) {
	return p.temp, p.err
}

var errDown = errors.New("upstream down")

func newTestApp(t *testing.T, providers ...weather.Provider) (*fiber.App, *observability.Collector) {
	t.Helper()
	reg, err := weather.NewRegistry(providers...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	metrics, err := observability.NewCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	svc := weather.NewService(reg, nil, weather.Options{ProviderTimeout: time.Second, Recorder: metrics})

	health := store.NewMemoryStore(5)
	health.Save(store.ProbeResult{Provider: "noaa", Up: true})

	return NewApp(Deps{Service: svc, Health: health, Metrics: metrics}), metrics
}

func doGet(t *testing.T, app *fiber.App, target string) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode body %q: %v", raw, err)
	}
	return resp.StatusCode, body
}

func TestCurrentWeather(t *testing.T) {
	app, metrics := newTestApp(t,
		stubProvider{name: "weather.com", temp: 50},
		stubProvider{name: "accuweather", temp: 60},
		stubProvider{name: "noaa", err: errDown},
	)

	status, body := doGet(t, app, "/current_weather?latitude=40.7128&longitude=-74.0060")
	if status != http.StatusOK {
		t.Fatalf("expected status %d, got %d (%v)", http.StatusOK, status, body)
	}
	if body["latitude"] != 40.71 || body["longitude"] != -74.01 {
		t.Fatalf("coordinate = %v,%v", body["latitude"], body["longitude"])
	}
	temp := body["temperature"].(map[string]any)
	if temp["fahrenheit"] != 55.0 || temp["celsius"] != 12.78 {
		t.Fatalf("temperature = %v", temp)
	}
	services := body["services"].([]any)
	if len(services) != 2 || services[0] != "weather.com" || services[1] != "accuweather" {
		t.Fatalf("services = %v", services)
	}
	if _, ok := body["datetime"].(string); !ok {
		t.Fatalf("datetime missing: %v", body)
	}

	if got := testutil.ToFloat64(metrics.Requests.WithLabelValues("200")); got != 1 {
		t.Fatalf("requests_total{code=200} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.ProviderRequests.WithLabelValues("noaa", observability.OutcomeError)); got != 1 {
		t.Fatalf("provider errors for noaa = %v, want 1", got)
	}
}

func TestCurrentWeatherIgnoresNonFiniteProvider(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/noaa":
			w.Write([]byte(`{"today":{"current":{"fahrenheit":"NaN"}}}`))
		case "/accuweather":
			w.Write([]byte(`{"simpleforecast":{"forecastday":[{"current":{"fahrenheit":60}}]}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer upstream.Close()

	reg, err := providers.NewRegistry(providers.Endpoints{
		AccuWeather: upstream.URL,
		NOAA:        upstream.URL,
	}, upstream.Client(), nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	app := NewApp(Deps{Service: weather.NewService(reg, nil, weather.Options{ProviderTimeout: time.Second})})

	status, body := doGet(t, app, "/current_weather?latitude=10&longitude=20")
	if status != http.StatusOK {
		t.Fatalf("expected status %d, got %d (%v)", http.StatusOK, status, body)
	}
	services := body["services"].([]any)
	if len(services) != 1 || services[0] != "accuweather" {
		t.Fatalf("services = %v", services)
	}
	if temp := body["temperature"].(map[string]any); temp["fahrenheit"] != 60.0 {
		t.Fatalf("temperature = %v", temp)
	}
}

func TestCurrentWeatherLogsRequestID(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	reg, err := weather.NewRegistry(
		stubProvider{name: "accuweather", temp: 60},
		stubProvider{name: "noaa", err: errDown},
	)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	svc := weather.NewService(reg, nil, weather.Options{ProviderTimeout: time.Second, Logger: logger})
	app := NewApp(Deps{Service: svc, Logger: logger})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/current_weather?latitude=1&longitude=2", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	id := resp.Header.Get(fiber.HeaderXRequestID)
	if id == "" {
		t.Fatal("response has no request id header")
	}

	for _, msg := range []string{"provider fetch failed", "current weather served"} {
		entries := logs.FilterMessage(msg).All()
		if len(entries) != 1 {
			t.Fatalf("%q logged %d times, want 1", msg, len(entries))
		}
		if got := entries[0].ContextMap()["request_id"]; got != id {
			t.Fatalf("%q request_id = %v, want %s", msg, got, id)
		}
	}
}

func TestCurrentWeatherInvalidInput(t *testing.T) {
	app, _ := newTestApp(t, stubProvider{name: "noaa", temp: 60})

	status, body := doGet(t, app, "/current_weather?latitude=91&longitude=200&services=badname")
	if status != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, status)
	}
	if body["error_code"] != "INVALID_INPUT" {
		t.Fatalf("error_code = %v", body["error_code"])
	}
	msgs := body["error_message"].([]any)
	if len(msgs) != 3 || msgs[2] != "Invalid services {badname}" {
		t.Fatalf("error_message = %v", msgs)
	}
}

func TestCurrentWeatherNoProviderAvailable(t *testing.T) {
	app, _ := newTestApp(t,
		stubProvider{name: "noaa", err: errDown},
		stubProvider{name: "accuweather", err: errDown},
	)

	status, body := doGet(t, app, "/current_weather?latitude=1&longitude=2")
	if status != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, status)
	}
	if body["error_code"] != "SERVICE_NOT_AVAILABLE" || body["error_message"] != "No weather service available" {
		t.Fatalf("body = %v", body)
	}
}

func TestCurrentWeatherZipcodeWithoutGeocoding(t *testing.T) {
	app, _ := newTestApp(t, stubProvider{name: "noaa", temp: 60})

	status, body := doGet(t, app, "/current_weather?zipcode=10001")
	if status != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, status)
	}
	if body["error_code"] != "SERVICE_NOT_AVAILABLE" {
		t.Fatalf("body = %v", body)
	}
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t, stubProvider{name: "noaa", temp: 60})

	status, body := doGet(t, app, "/health")
	if status != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("health = %d %v", status, body)
	}
	providers := body["providers"].([]any)
	if len(providers) != 1 || providers[0].(map[string]any)["provider"] != "noaa" {
		t.Fatalf("providers = %v", providers)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	app, _ := newTestApp(t, stubProvider{name: "noaa", temp: 60})
	doGet(t, app, "/current_weather?latitude=1&longitude=2")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if !strings.Contains(string(raw), "sure_weather_requests_total") {
		t.Fatalf("metrics output missing request counter:\n%s", raw)
	}
}

func TestUnknownRoute(t *testing.T) {
	app, _ := newTestApp(t, stubProvider{name: "noaa", temp: 60})

	status, body := doGet(t, app, "/weather")
	if status != http.StatusNotFound || body["error_code"] != "NOT_FOUND" {
		t.Fatalf("unknown route = %d %v", status, body)
	}
}

func TestPanicIsInternalError(t *testing.T) {
	app, _ := newTestApp(t, stubProvider{name: "noaa", temp: 60})
	app.Get("/boom", func(c *fiber.Ctx) error {
		panic("unexpected")
	})

	status, body := doGet(t, app, "/boom")
	if status != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, status)
	}
	if body["error_code"] != "INTERNAL_ERROR" || body["error_message"] != "internal server error" {
		t.Fatalf("body = %v", body)
	}
}
