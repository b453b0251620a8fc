package weather

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/d-kovalchuk/weather-notify-api/internal/models"
)

type BreakerConfig struct {
	Interval time.Duration
	Timeout  time.Duration
	Failures uint32
}

// BreakerClient wraps a provider client with a circuit breaker so a flapping
// upstream is not hammered on every dispatch cycle.
type BreakerClient struct {
	name    string
	cb      *gobreaker.CircuitBreaker
	wrapped client
}

func NewBreakerClient(name string, cfg BreakerConfig, wrapped client) *BreakerClient {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.Failures
		},
	}
	return &BreakerClient{
		name:    name,
		cb:      gobreaker.NewCircuitBreaker(settings),
		wrapped: wrapped,
	}
}

func (b *BreakerClient) Fetch(ctx context.Context, city string) (models.WeatherData, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.wrapped.Fetch(ctx, city)
	})
	if err != nil {
		return models.WeatherData{}, fmt.Errorf("%s: %w", b.name, err)
	}
	res, ok := result.(models.WeatherData)
	if !ok {
		return models.WeatherData{}, fmt.Errorf("%s returned unexpected result", b.name)
	}
	return res, nil
}
