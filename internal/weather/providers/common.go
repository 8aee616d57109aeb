package providers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/vamshikr/sure-weather/internal/weather"
)

var (
	errRateLimited = errors.New("rate limited")
	errServerError = errors.New("server error")
	errUnexpected  = errors.New("unexpected status code")
	errCircuitOpen = errors.New("circuit breaker open")
	errMissingTemp = errors.New("temperature missing from response")
	errBadTemp     = errors.New("temperature is not a finite number")
)

// upstream bundles the HTTP client and circuit breaker of one provider.
type upstream struct {
	name    string
	client  *resty.Client
	circuit *gobreaker.CircuitBreaker
}

func newUpstream(name, baseURL string, httpClient *http.Client, logger *zap.Logger) *upstream {
	if logger == nil {
		logger = zap.NewNop()
	}

	var client *resty.Client
	if httpClient != nil {
		client = resty.NewWithClient(httpClient)
	} else {
		client = resty.New()
	}
	client.SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetLogger(logger.Sugar())

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("provider", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &upstream{name: name, client: client, circuit: cb}
}

// do sends the request built by send through the circuit breaker and returns
// the body of a 2xx response. Every failure wraps weather.ErrProvider.
// Requests are never retried.
func (u *upstream) do(ctx context.Context, send func(*resty.Request) (*resty.Response, error)) ([]byte, error) {
	result, err := u.circuit.Execute(func() (interface{}, error) {
		resp, err := send(u.client.R().SetContext(ctx))
		if err != nil {
			return nil, err
		}

		// Handle rate limiting and server errors explicitly.
		switch code := resp.StatusCode(); {
		case code == http.StatusTooManyRequests:
			return nil, errRateLimited
		case code >= 500:
			return nil, fmt.Errorf("%w: %d", errServerError, code)
		case code < 200 || code >= 300:
			return nil, fmt.Errorf("%w: %d", errUnexpected, code)
		}
		return resp.Body(), nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		return nil, u.wrap(err)
	}

	body, ok := result.([]byte)
	if !ok {
		return nil, u.wrap(fmt.Errorf("unexpected result type from circuit breaker"))
	}
	return body, nil
}

func (u *upstream) wrap(err error) error {
	return fmt.Errorf("%w: %s: %v", weather.ErrProvider, u.name, err)
}

// reading is a temperature that upstreams send either as a JSON number or as
// a numeric string. A null or absent value leaves it unset.
type reading struct {
	value float64
	set   bool
}

func (r *reading) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("invalid temperature %s: %w", b, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s", errBadTemp, b)
	}
	r.value, r.set = v, true
	return nil
}

// fahrenheit returns the reading or errMissingTemp.
func (r reading) fahrenheit() (float64, error) {
	if !r.set {
		return 0, errMissingTemp
	}
	return r.value, nil
}

func formatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
