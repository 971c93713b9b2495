package weather

import (
	"errors"
	"fmt"
)

var (
	// ErrCityNotFound means the geocoding endpoint produced no usable match.
	ErrCityNotFound = errors.New("city not found, check the spelling and try again")

	// ErrInvalidAirQualityData means the air-quality endpoint answered 2xx
	// but the reading list was empty or malformed.
	ErrInvalidAirQualityData = errors.New("invalid air quality data")
)

// APIError reports a failed weather fetch. Both upstream statuses are carried
// together so the caller can diagnose partial failure.
type APIError struct {
	CurrentStatus  int
	ForecastStatus int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("weather api error: current %d, forecast %d", e.CurrentStatus, e.ForecastStatus)
}

// AirQualityAPIError reports a non-success air-quality response.
type AirQualityAPIError struct {
	Status int
}

func (e *AirQualityAPIError) Error() string {
	return fmt.Sprintf("air pollution api error: %d", e.Status)
}

// NetworkError wraps a transport-level failure, e.g. no connectivity.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
