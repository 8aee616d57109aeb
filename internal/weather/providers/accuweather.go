package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/vamshikr/sure-weather/internal/weather"
)

// AccuWeatherName is the service identifier of AccuWeather.
const AccuWeatherName = "accuweather"

var errNoForecastDay = errors.New("forecastday is empty")

// AccuWeatherProvider implements the weather.Provider interface for AccuWeather.
type AccuWeatherProvider struct {
	up *upstream
}

func NewAccuWeatherProvider(baseURL string, client *http.Client, logger *zap.Logger) *AccuWeatherProvider {
	return &AccuWeatherProvider{up: newUpstream(AccuWeatherName, baseURL, client, logger)}
}

func (p *AccuWeatherProvider) Name() string {
	return AccuWeatherName
}

func (p *AccuWeatherProvider) Fetch(ctx context.Context, coord weather.Coordinate) (float64, error) {
	body, err := p.up.do(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.SetQueryParams(map[string]string{
			"latitude":  formatDegrees(coord.Latitude),
			"longitude": formatDegrees(coord.Longitude),
		}).Get("/accuweather")
	})
	if err != nil {
		return 0, err
	}

	var payload struct {
		SimpleForecast struct {
			ForecastDay []struct {
				Current struct {
					Fahrenheit reading `json:"fahrenheit"`
				} `json:"current"`
			} `json:"forecastday"`
		} `json:"simpleforecast"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, p.up.wrap(err)
	}

	days := payload.SimpleForecast.ForecastDay
	if len(days) == 0 {
		return 0, p.up.wrap(errNoForecastDay)
	}

	f, err := days[0].Current.Fahrenheit.fahrenheit()
	if err != nil {
		return 0, p.up.wrap(err)
	}
	return f, nil
}
