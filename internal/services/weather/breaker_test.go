package weather_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d-kovalchuk/weather-notify-api/internal/models"
	"github.com/d-kovalchuk/weather-notify-api/internal/services/weather"
)

type countingClient struct {
	mu    sync.Mutex
	calls int
	data  models.WeatherData
	err   error
}

func (c *countingClient) Fetch(_ context.Context, _ string) (models.WeatherData, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.data, c.err
}

func (c *countingClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestBreakerClient_PassesThroughSuccess(t *testing.T) {
	inner := &countingClient{data: models.WeatherData{City: "Kyiv", Temperature: 7.0}}
	b := weather.NewBreakerClient("test", weather.BreakerConfig{
		Interval: time.Minute, Timeout: time.Minute, Failures: 3,
	}, inner)

	data, err := b.Fetch(context.Background(), "Kyiv")
	require.NoError(t, err)
	assert.Equal(t, inner.data, data)
}

func TestBreakerClient_OpensAfterConsecutiveFailures(t *testing.T) {
	inner := &countingClient{err: errors.New("upstream down")}
	b := weather.NewBreakerClient("test", weather.BreakerConfig{
		Interval: time.Minute, Timeout: time.Minute, Failures: 2,
	}, inner)

	for i := 0; i < 2; i++ {
		_, err := b.Fetch(context.Background(), "Kyiv")
		assert.ErrorContains(t, err, "upstream down")
	}

	// breaker is open now, the wrapped client is no longer invoked
	_, err := b.Fetch(context.Background(), "Kyiv")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, inner.callCount())
}
