package providers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/vamshikr/sure-weather/internal/weather"
)

// Endpoints holds the base URL of each provider. A provider whose URL is
// empty is left out of the registry.
type Endpoints struct {
	WeatherDotCom string
	AccuWeather   string
	NOAA          string
}

// NewRegistry builds the registry of every configured provider. It returns
// weather.ErrNoProviders when none is configured.
func NewRegistry(ep Endpoints, client *http.Client, logger *zap.Logger) (*weather.Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	candidates := []struct {
		name string
		url  string
		ctor func() weather.Provider
	}{
		{WeatherDotComName, ep.WeatherDotCom, func() weather.Provider {
			return NewWeatherDotComProvider(ep.WeatherDotCom, client, logger)
		}},
		{AccuWeatherName, ep.AccuWeather, func() weather.Provider {
			return NewAccuWeatherProvider(ep.AccuWeather, client, logger)
		}},
		{NOAAName, ep.NOAA, func() weather.Provider {
			return NewNOAAProvider(ep.NOAA, client, logger)
		}},
	}

	var provs []weather.Provider
	for _, c := range candidates {
		if c.url == "" {
			logger.Info("weather service not available", zap.String("provider", c.name))
			continue
		}
		provs = append(provs, c.ctor())
		logger.Info("weather service added", zap.String("provider", c.name), zap.String("url", c.url))
	}

	if len(provs) == 0 {
		return nil, weather.ErrNoProviders
	}
	return weather.NewRegistry(provs...)
}
