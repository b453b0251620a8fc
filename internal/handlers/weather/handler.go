package weather

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d-kovalchuk/weather-notify-api/internal/apperr"
	"github.com/d-kovalchuk/weather-notify-api/internal/models"
)

const timeoutDuration = 10 * time.Second

type weatherGetter interface {
	GetByCity(ctx context.Context, city string) (models.WeatherData, error)
}

type Handler struct {
	service weatherGetter
	log     *zap.Logger
}

func NewHandler(service weatherGetter, log *zap.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With(zap.String("component", "WeatherHandler")),
	}
}

// GetWeather
// @Summary Current weather
// @Description Returns the current weather for a city.
// @Tags weather
// @Param city query string true "City name"
// @Success 200 {object} models.WeatherData
// @Failure 400
// @Failure 404
// @Router /weather [get]
func (h *Handler) GetWeather(c *gin.Context) {
	city := c.Query("city")
	if city == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "city is required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
	defer cancel()

	data, err := h.service.GetByCity(ctx, city)
	if err != nil {
		var weatherErr *apperr.WeatherError
		if errors.As(err, &weatherErr) {
			switch weatherErr.Kind {
			case apperr.WeatherInvalidRequest:
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
				return
			case apperr.WeatherCityNotFound:
				c.JSON(http.StatusNotFound, gin.H{"error": "City not found"})
				return
			}
		}
		h.log.Error("weather fetch failed", zap.String("city", city), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Weather service error"})
		return
	}

	c.JSON(http.StatusOK, data)
}
