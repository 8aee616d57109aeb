package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type AppConfig struct {
	// Provider base URLs. A provider with an empty URL is not registered.
	WeatherDotComURL string `validate:"omitempty,url"`
	AccuWeatherURL   string `validate:"omitempty,url"`
	NOAAURL          string `validate:"omitempty,url"`

	// Geocoding is disabled when the API key is empty.
	GoogleMapsAPIKey string
	GoogleMapsURL    string `validate:"required,url"`

	LogLevel  string
	LogFormat string `validate:"oneof=json console"`

	Port string `validate:"required,numeric"`

	ProviderTimeout time.Duration `validate:"gt=0"`
	GeocodeTimeout  time.Duration `validate:"gt=0"`

	// HealthCheckInterval controls provider probes (0 = disabled).
	HealthCheckInterval  time.Duration `validate:"gte=0"`
	HealthProbeLatitude  float64       `validate:"gte=-90,lte=90"`
	HealthProbeLongitude float64       `validate:"gte=-180,lte=180"`
	HealthHistory        int           `validate:"gte=1"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads configuration from the environment (and an optional .env file)
// with sensible defaults.
func Load() (*AppConfig, error) {
	// A missing .env file is fine; the environment is authoritative.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &AppConfig{
		WeatherDotComURL: os.Getenv("WEATHERDOTCOM_URL"),
		AccuWeatherURL:   os.Getenv("ACCUWEATHER_URL"),
		NOAAURL:          os.Getenv("NOAA_URL"),
		GoogleMapsAPIKey: os.Getenv("GOOGLE_MAPS_APIKEY"),
		GoogleMapsURL:    getenvDefault("GOOGLE_MAPS_URL", "https://maps.googleapis.com/maps/api/geocode/json"),
		LogLevel:         getenvDefault("LOGGING_LEVEL", "info"),
		LogFormat:        getenvDefault("LOG_FORMAT", "json"),
		Port:             getenvDefault("PORT", "8080"),
		HealthHistory:    getenvInt("HEALTH_HISTORY", 10),
	}

	var err error
	if cfg.ProviderTimeout, err = getenvDuration("PROVIDER_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.GeocodeTimeout, err = getenvDuration("GEOCODE_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.HealthCheckInterval, err = getenvDuration("HEALTH_CHECK_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.HealthProbeLatitude, err = getenvFloat("HEALTH_PROBE_LATITUDE", 40.71); err != nil {
		return nil, err
	}
	if cfg.HealthProbeLongitude, err = getenvFloat("HEALTH_PROBE_LONGITUDE", -74.01); err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// GeocodingEnabled reports whether a Google Maps API key is configured.
func (c *AppConfig) GeocodingEnabled() bool {
	return c.GoogleMapsAPIKey != ""
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}
