package weather

import (
	"math"
	"time"
)

// Coordinate is a validated point on the globe.
// Latitude is within [-90, 90] and Longitude within [-180, 180].
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Rounded returns the coordinate rounded to two decimals for display.
func (c Coordinate) Rounded() Coordinate {
	return Coordinate{
		Latitude:  round2(c.Latitude),
		Longitude: round2(c.Longitude),
	}
}

// ValidatedRequest is the only input accepted by the Aggregator.
// It is built by the Validator once every check has passed.
type ValidatedRequest struct {
	Coordinate Coordinate
	Providers  []string
}

// AggregateResult is the mean temperature over the providers that answered.
type AggregateResult struct {
	Coordinate Coordinate
	Timestamp  time.Time // always UTC
	Services   []string
	Fahrenheit float64
	Celsius    float64
}

// providerResult is the outcome of a single provider call.
type providerResult struct {
	name       string
	fahrenheit float64
	err        error
}

func fahrenheitToCelsius(f float64) float64 {
	return (f - 32) * 5 / 9
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
