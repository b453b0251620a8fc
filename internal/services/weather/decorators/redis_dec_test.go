package decorators_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/d-kovalchuk/weather-notify-api/internal/models"
	"github.com/d-kovalchuk/weather-notify-api/internal/services/weather/decorators"
)

type fakeInner struct {
	calls int
	data  models.WeatherData
	err   error
}

func (f *fakeInner) GetByCity(_ context.Context, _ string) (models.WeatherData, error) {
	f.calls++
	return f.data, f.err
}

type fakeCache struct {
	store   map[string]models.WeatherData
	getErr  error
	setErr  error
	setKeys []string
}

func (c *fakeCache) Get(_ context.Context, key string) (models.WeatherData, error) {
	if c.getErr != nil {
		return models.WeatherData{}, c.getErr
	}
	data, ok := c.store[key]
	if !ok {
		return models.WeatherData{}, errors.New("cache miss")
	}
	return data, nil
}

func (c *fakeCache) Set(_ context.Context, key string, value models.WeatherData) error {
	if c.setErr != nil {
		return c.setErr
	}
	if c.store == nil {
		c.store = make(map[string]models.WeatherData)
	}
	c.store[key] = value
	c.setKeys = append(c.setKeys, key)
	return nil
}

func TestCachedService_HitSkipsInner(t *testing.T) {
	cached := models.WeatherData{City: "Kyiv", Temperature: 1.0}
	inner := &fakeInner{}
	cache := &fakeCache{store: map[string]models.WeatherData{"weather:Kyiv": cached}}

	svc := decorators.NewCachedService(inner, cache, zap.NewNop())
	data, err := svc.GetByCity(context.Background(), "Kyiv")

	require.NoError(t, err)
	assert.Equal(t, cached, data)
	assert.Zero(t, inner.calls)
}

func TestCachedService_MissFetchesAndPopulates(t *testing.T) {
	inner := &fakeInner{data: models.WeatherData{City: "Lviv", Temperature: 9.0}}
	cache := &fakeCache{}

	svc := decorators.NewCachedService(inner, cache, zap.NewNop())
	data, err := svc.GetByCity(context.Background(), "Lviv")

	require.NoError(t, err)
	assert.Equal(t, inner.data, data)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, []string{"weather:Lviv"}, cache.setKeys)
}

func TestCachedService_InnerErrorNotCached(t *testing.T) {
	inner := &fakeInner{err: errors.New("provider down")}
	cache := &fakeCache{}

	svc := decorators.NewCachedService(inner, cache, zap.NewNop())
	_, err := svc.GetByCity(context.Background(), "Oslo")

	assert.Error(t, err)
	assert.Empty(t, cache.setKeys)
}

func TestCachedService_SetFailureIsNotFatal(t *testing.T) {
	inner := &fakeInner{data: models.WeatherData{City: "Rome"}}
	cache := &fakeCache{setErr: errors.New("redis down")}

	svc := decorators.NewCachedService(inner, cache, zap.NewNop())
	data, err := svc.GetByCity(context.Background(), "Rome")

	require.NoError(t, err)
	assert.Equal(t, inner.data, data)
}
