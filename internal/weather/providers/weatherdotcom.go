package providers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/vamshikr/sure-weather/internal/weather"
)

// WeatherDotComName is the service identifier of weather.com.
const WeatherDotComName = "weather.com"

// WeatherDotComProvider implements the weather.Provider interface for weather.com.
// Coordinates are sent as a JSON POST body.
type WeatherDotComProvider struct {
	up *upstream
}

func NewWeatherDotComProvider(baseURL string, client *http.Client, logger *zap.Logger) *WeatherDotComProvider {
	return &WeatherDotComProvider{up: newUpstream(WeatherDotComName, baseURL, client, logger)}
}

func (p *WeatherDotComProvider) Name() string {
	return WeatherDotComName
}

func (p *WeatherDotComProvider) Fetch(ctx context.Context, coord weather.Coordinate) (float64, error) {
	body, err := p.up.do(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.SetHeader("Content-Type", "application/json").
			SetBody(map[string]string{
				"lat": formatDegrees(coord.Latitude),
				"lon": formatDegrees(coord.Longitude),
			}).
			Post("/weatherdotcom")
	})
	if err != nil {
		return 0, err
	}

	var payload struct {
		Query struct {
			Results struct {
				Channel struct {
					Condition struct {
						Temp reading `json:"temp"`
					} `json:"condition"`
				} `json:"channel"`
			} `json:"results"`
		} `json:"query"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, p.up.wrap(err)
	}

	f, err := payload.Query.Results.Channel.Condition.Temp.fahrenheit()
	if err != nil {
		return 0, p.up.wrap(err)
	}
	return f, nil
}
