package providers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/vamshikr/sure-weather/internal/weather"
)

// NOAAName is the service identifier of NOAA.
const NOAAName = "noaa"

// NOAAProvider implements the weather.Provider interface for NOAA.
// The coordinate travels as a single "lat,lon" query value.
type NOAAProvider struct {
	up *upstream
}

func NewNOAAProvider(baseURL string, client *http.Client, logger *zap.Logger) *NOAAProvider {
	return &NOAAProvider{up: newUpstream(NOAAName, baseURL, client, logger)}
}

func (p *NOAAProvider) Name() string {
	return NOAAName
}

func (p *NOAAProvider) Fetch(ctx context.Context, coord weather.Coordinate) (float64, error) {
	body, err := p.up.do(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.SetQueryParam("latlon", formatDegrees(coord.Latitude)+","+formatDegrees(coord.Longitude)).
			Get("/noaa")
	})
	if err != nil {
		return 0, err
	}

	var payload struct {
		Today struct {
			Current struct {
				Fahrenheit reading `json:"fahrenheit"`
			} `json:"current"`
		} `json:"today"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, p.up.wrap(err)
	}

	f, err := payload.Today.Current.Fahrenheit.fahrenheit()
	if err != nil {
		return 0, p.up.wrap(err)
	}
	return f, nil
}
