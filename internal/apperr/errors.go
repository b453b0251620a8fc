// Package apperr defines the error kinds shared between the lifecycle
// service, the dispatch engine and the HTTP handlers.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput covers malformed tokens and cities that fail
	// weather resolution during subscribe.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict means a confirmed subscription already exists for the
	// (email, city) pair.
	ErrConflict = errors.New("subscription already exists")

	ErrNotFound = errors.New("not found")

	// ErrStore wraps persistence failures from the subscription repository.
	ErrStore = errors.New("store failure")
)

type WeatherErrorKind int

const (
	WeatherInvalidRequest WeatherErrorKind = iota
	WeatherCityNotFound
	WeatherServiceError
)

// WeatherError classifies an upstream weather provider failure by the
// response status it came from.
type WeatherError struct {
	Kind    WeatherErrorKind
	Status  int
	Message string
}

func (e *WeatherError) Error() string {
	switch e.Kind {
	case WeatherInvalidRequest:
		return fmt.Sprintf("weather api: invalid request (status %d)", e.Status)
	case WeatherCityNotFound:
		return fmt.Sprintf("weather api: city not found (status %d)", e.Status)
	default:
		return fmt.Sprintf("weather api: service error (status %d): %s", e.Status, e.Message)
	}
}
