// Package geocode resolves postal codes and checks coordinates against the
// Google Maps Geocoding API.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/vamshikr/sure-weather/internal/weather"
)

const (
	// DefaultBaseURL is the Google Maps Geocoding JSON endpoint.
	DefaultBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"
	// DefaultTimeout bounds a single geocoding call.
	DefaultTimeout = 5 * time.Second
)

// Google Maps response statuses.
const (
	statusOK             = "OK"
	statusZeroResults    = "ZERO_RESULTS"
	statusInvalidRequest = "INVALID_REQUEST"
)

var errBadStatus = errors.New("unexpected status code")

// Config configures a GoogleMaps client. APIKey is required.
type Config struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// GoogleMaps implements weather.Geocoder.
type GoogleMaps struct {
	apiKey  string
	baseURL string
	timeout time.Duration
	client  *resty.Client
	circuit *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

var _ weather.Geocoder = (*GoogleMaps)(nil)

type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// NewGoogleMaps creates a GoogleMaps client.
func NewGoogleMaps(cfg Config) (*GoogleMaps, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("google maps api key is not configured")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	var client *resty.Client
	if cfg.HTTPClient != nil {
		client = resty.NewWithClient(cfg.HTTPClient)
	} else {
		client = resty.New()
	}
	client.SetHeader("Accept", "application/json").
		SetHeader("Cache-Control", "no-cache").
		SetLogger(cfg.Logger.Sugar())

	logger := cfg.Logger
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "google_maps",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &GoogleMaps{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		timeout: cfg.Timeout,
		client:  client,
		circuit: cb,
		logger:  logger,
	}, nil
}

// Resolve looks up the coordinate of a postal code.
func (g *GoogleMaps) Resolve(ctx context.Context, postalCode string) (weather.Coordinate, error) {
	resp, err := g.lookup(ctx, "address", postalCode)
	if err != nil {
		return weather.Coordinate{}, err
	}

	switch resp.Status {
	case statusOK:
		if len(resp.Results) == 0 {
			return weather.Coordinate{}, weather.ErrLocationNotFound
		}
		loc := resp.Results[0].Geometry.Location
		g.logger.Debug("resolved postal code",
			zap.String("zipcode", postalCode),
			zap.String("address", resp.Results[0].FormattedAddress),
			zap.Float64("latitude", loc.Lat),
			zap.Float64("longitude", loc.Lng))
		return weather.Coordinate{Latitude: loc.Lat, Longitude: loc.Lng}, nil
	case statusZeroResults, statusInvalidRequest:
		return weather.Coordinate{}, weather.ErrLocationNotFound
	default:
		return weather.Coordinate{}, statusError(resp)
	}
}

// Validate reports whether coord reverse-geocodes to a known place.
func (g *GoogleMaps) Validate(ctx context.Context, coord weather.Coordinate) (bool, error) {
	latlng := strconv.FormatFloat(coord.Latitude, 'f', -1, 64) + "," +
		strconv.FormatFloat(coord.Longitude, 'f', -1, 64)

	resp, err := g.lookup(ctx, "latlng", latlng)
	if err != nil {
		return false, err
	}

	switch resp.Status {
	case statusOK:
		return true, nil
	case statusZeroResults, statusInvalidRequest:
		return false, nil
	default:
		return false, statusError(resp)
	}
}

// lookup performs one geocoding request. Only transport, HTTP status and
// decoding failures are returned as errors; the API status is left to callers.
func (g *GoogleMaps) lookup(ctx context.Context, param, value string) (geocodeResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	result, err := g.circuit.Execute(func() (interface{}, error) {
		resp, err := g.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				param: value,
				"key": g.apiKey,
			}).
			Get(g.baseURL)
		if err != nil {
			return nil, err
		}
		if !resp.IsSuccess() {
			return nil, fmt.Errorf("%w: %d", errBadStatus, resp.StatusCode())
		}

		var payload geocodeResponse
		if err := json.Unmarshal(resp.Body(), &payload); err != nil {
			return nil, err
		}
		return payload, nil
	})
	if err != nil {
		return geocodeResponse{}, fmt.Errorf("%w: %v", weather.ErrGeocode, err)
	}

	payload, ok := result.(geocodeResponse)
	if !ok {
		return geocodeResponse{}, fmt.Errorf("%w: unexpected result type from circuit breaker", weather.ErrGeocode)
	}
	return payload, nil
}

func statusError(resp geocodeResponse) error {
	if resp.ErrorMessage != "" {
		return fmt.Errorf("%w: status %s: %s", weather.ErrGeocode, resp.Status, resp.ErrorMessage)
	}
	return fmt.Errorf("%w: status %s", weather.ErrGeocode, resp.Status)
}
