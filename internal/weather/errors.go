package weather

import (
	"errors"
	"net/http"
	"strings"
)

// ErrorCode identifies a user-visible failure kind.
type ErrorCode string

const (
	CodeInvalidInput        ErrorCode = "INVALID_INPUT"
	CodeWeatherServiceError ErrorCode = "WEATHER_SERVICE_ERROR"
	CodeGoogleMapsError     ErrorCode = "GOOGLE_MAPS_ERROR"
	CodeServiceNotAvailable ErrorCode = "SERVICE_NOT_AVAILABLE"
	CodeInternalError       ErrorCode = "INTERNAL_ERROR"
)

// Status returns the fixed HTTP status for the code.
func (c ErrorCode) Status() int {
	switch c {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeWeatherServiceError, CodeGoogleMapsError, CodeServiceNotAvailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

var (
	// ErrProvider wraps every failure of an upstream weather provider.
	ErrProvider = errors.New("weather provider error")
	// ErrGeocode wraps geocoding transport and decoding failures.
	ErrGeocode = errors.New("geocode error")
	// ErrLocationNotFound is returned by a Geocoder when a postal code has no match.
	ErrLocationNotFound = errors.New("location not found")
	// ErrNoProviders is returned when no provider could be registered.
	ErrNoProviders = errors.New("no weather services available")
)

// Error is a classified failure that is reported to the caller as-is.
type Error struct {
	Code     ErrorCode
	Messages []string
	Err      error
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + strings.Join(e.Messages, "; ")
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status for the error's code.
func (e *Error) Status() int {
	return e.Code.Status()
}

// NewInputError reports every validation message at once.
func NewInputError(messages []string) *Error {
	return &Error{Code: CodeInvalidInput, Messages: messages}
}

// NewError builds a single-message Error of the given code.
func NewError(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Messages: []string{message}, Err: cause}
}

// AsError classifies err, mapping anything unknown to CodeInternalError.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return NewError(CodeInternalError, "internal server error", err)
}
