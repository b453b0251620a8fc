// Package weather resolves city names to current weather snapshots via
// external provider APIs.
package weather

import (
	"context"

	"go.uber.org/zap"

	"github.com/d-kovalchuk/weather-notify-api/internal/models"
)

type client interface {
	Fetch(ctx context.Context, city string) (models.WeatherData, error)
}

// ServiceProvider tries each configured client in order and returns the
// first successful snapshot. The last client's error is returned as-is so
// its classification survives to the caller.
type ServiceProvider struct {
	log     *zap.Logger
	clients []client
}

func NewService(log *zap.Logger, clients ...client) *ServiceProvider {
	return &ServiceProvider{
		log:     log.With(zap.String("component", "WeatherService")),
		clients: clients,
	}
}

func (s *ServiceProvider) GetByCity(ctx context.Context, city string) (models.WeatherData, error) {
	var lastErr error
	for _, cl := range s.clients {
		data, err := cl.Fetch(ctx, city)
		if err != nil {
			s.log.Warn("weather client fetch failed",
				zap.String("city", city), zap.Error(err))
			lastErr = err
			continue
		}
		return data, nil
	}
	s.log.Error("all weather clients failed", zap.String("city", city), zap.Error(lastErr))
	return models.WeatherData{}, lastErr
}
