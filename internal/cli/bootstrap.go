package cli

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/vamshikr/sure-weather/internal/config"
	"github.com/vamshikr/sure-weather/internal/geocode"
	"github.com/vamshikr/sure-weather/internal/weather"
	"github.com/vamshikr/sure-weather/internal/weather/providers"
)

// components are the collaborators built once at startup and shared,
// read-only, by every request.
type components struct {
	registry *weather.Registry
	geocoder weather.Geocoder
}

func buildComponents(cfg *config.AppConfig, logger *zap.Logger) (*components, error) {
	// Shared HTTP client for outbound calls.
	httpClient := &http.Client{
		Timeout: cfg.ProviderTimeout,
	}

	registry, err := providers.NewRegistry(providers.Endpoints{
		WeatherDotCom: cfg.WeatherDotComURL,
		AccuWeather:   cfg.AccuWeatherURL,
		NOAA:          cfg.NOAAURL,
	}, httpClient, logger.Named("providers"))
	if err != nil {
		return nil, err
	}

	c := &components{registry: registry}

	// Zipcode lookup and location validation need a Google Maps key.
	if cfg.GeocodingEnabled() {
		g, err := geocode.NewGoogleMaps(geocode.Config{
			APIKey:  cfg.GoogleMapsAPIKey,
			BaseURL: cfg.GoogleMapsURL,
			Timeout: cfg.GeocodeTimeout,
			Logger:  logger.Named("geocode"),
		})
		if err != nil {
			return nil, err
		}
		c.geocoder = g
		logger.Info("Google Maps service available")
	} else {
		logger.Warn("Google Maps service NOT available")
	}

	return c, nil
}

func (c *components) service(cfg *config.AppConfig, recorder weather.Recorder, logger *zap.Logger) *weather.Service {
	return weather.NewService(c.registry, c.geocoder, weather.Options{
		ProviderTimeout: cfg.ProviderTimeout,
		Recorder:        recorder,
		Logger:          logger.Named("weather"),
	})
}
