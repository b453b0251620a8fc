// Package decorators layers optional caching over the weather service.
package decorators

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/d-kovalchuk/weather-notify-api/internal/models"
)

type weatherGetterService interface {
	GetByCity(ctx context.Context, city string) (models.WeatherData, error)
}

type cacheClient[T any] interface {
	Set(ctx context.Context, key string, value T) error
	Get(ctx context.Context, key string) (T, error)
}

// CachedService serves snapshots from Redis before hitting the inner
// service, so a process restart does not immediately refetch every city.
type CachedService struct {
	inner weatherGetterService
	cache cacheClient[models.WeatherData]
	log   *zap.Logger
}

func NewCachedService(
	inner weatherGetterService,
	cache cacheClient[models.WeatherData],
	log *zap.Logger,
) *CachedService {
	return &CachedService{
		inner: inner,
		cache: cache,
		log:   log.With(zap.String("component", "CachedWeatherService")),
	}
}

func (s *CachedService) GetByCity(ctx context.Context, city string) (models.WeatherData, error) {
	key := fmt.Sprintf("weather:%s", city)

	weather, err := s.cache.Get(ctx, key)
	if err == nil {
		s.log.Debug("cache hit", zap.String("city", city))
		return weather, nil
	}

	weather, err = s.inner.GetByCity(ctx, city)
	if err != nil {
		return models.WeatherData{}, err
	}

	if err := s.cache.Set(ctx, key, weather); err != nil {
		s.log.Warn("cache set failed", zap.String("city", city), zap.Error(err))
	}
	return weather, nil
}
