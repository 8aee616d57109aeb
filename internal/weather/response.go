package weather

import "net/http"

// DateTimeLayout is the UTC timestamp format of the response, without offset.
const DateTimeLayout = "2006-01-02T15:04:05"

// CurrentWeatherResponse is the success body of the current weather endpoint.
type CurrentWeatherResponse struct {
	Latitude    float64     `json:"latitude" yaml:"latitude"`
	Longitude   float64     `json:"longitude" yaml:"longitude"`
	DateTime    string      `json:"datetime" yaml:"datetime"`
	Services    []string    `json:"services" yaml:"services"`
	Temperature Temperature `json:"temperature" yaml:"temperature"`
}

// Temperature holds the aggregate in both scales.
type Temperature struct {
	Fahrenheit float64 `json:"fahrenheit" yaml:"fahrenheit"`
	Celsius    float64 `json:"celsius" yaml:"celsius"`
}

// ErrorResponse is the body returned for every failure.
// Message is a []string for CodeInvalidInput and a string otherwise.
type ErrorResponse struct {
	Code    ErrorCode `json:"error_code" yaml:"error_code"`
	Message any       `json:"error_message" yaml:"error_message"`
}

// FormatResult renders an AggregateResult as a 200 response.
func FormatResult(res AggregateResult) (CurrentWeatherResponse, int) {
	coord := res.Coordinate.Rounded()
	return CurrentWeatherResponse{
		Latitude:  coord.Latitude,
		Longitude: coord.Longitude,
		DateTime:  res.Timestamp.UTC().Format(DateTimeLayout),
		Services:  res.Services,
		Temperature: Temperature{
			Fahrenheit: round2(res.Fahrenheit),
			Celsius:    round2(res.Celsius),
		},
	}, http.StatusOK
}

// FormatError renders err with the status fixed by its code.
func FormatError(err error) (ErrorResponse, int) {
	e := AsError(err)

	var msg any
	switch {
	case e.Code == CodeInvalidInput:
		msg = e.Messages
	case len(e.Messages) > 0:
		msg = e.Messages[0]
	default:
		msg = string(e.Code)
	}

	return ErrorResponse{Code: e.Code, Message: msg}, e.Status()
}
