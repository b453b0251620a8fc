package weather_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/d-kovalchuk/weather-notify-api/internal/apperr"
	handler "github.com/d-kovalchuk/weather-notify-api/internal/handlers/weather"
	"github.com/d-kovalchuk/weather-notify-api/internal/models"
)

type mockWeather struct {
	data models.WeatherData
	err  error
}

func (m *mockWeather) GetByCity(_ context.Context, _ string) (models.WeatherData, error) {
	return m.data, m.err
}

func setupRouter(m *mockWeather) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := handler.NewHandler(m, zap.NewNop())
	r.GET("/weather", h.GetWeather)
	return r
}

func TestGetWeather(t *testing.T) {
	cases := []struct {
		name     string
		query    string
		mock     mockWeather
		wantCode int
	}{
		{
			name:     "success",
			query:    "?city=Kyiv",
			mock:     mockWeather{data: models.WeatherData{City: "Kyiv", Temperature: 5.0, Humidity: 80, Condition: "Snow"}},
			wantCode: http.StatusOK,
		},
		{
			name:     "missing city",
			query:    "",
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "invalid request",
			query:    "?city=%20",
			mock:     mockWeather{err: &apperr.WeatherError{Kind: apperr.WeatherInvalidRequest, Status: 400}},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "city not found",
			query:    "?city=Atlantis",
			mock:     mockWeather{err: &apperr.WeatherError{Kind: apperr.WeatherCityNotFound, Status: 404}},
			wantCode: http.StatusNotFound,
		},
		{
			name:     "service error",
			query:    "?city=Kyiv",
			mock:     mockWeather{err: &apperr.WeatherError{Kind: apperr.WeatherServiceError, Status: 500}},
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := setupRouter(&tc.mock)

			req := httptest.NewRequest(http.MethodGet, "/weather"+tc.query, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.wantCode, w.Code)
			if tc.wantCode == http.StatusOK {
				assert.JSONEq(t,
					`{"city":"Kyiv","temperature":5.0,"humidity":80,"description":"Snow"}`,
					w.Body.String())
			}
		})
	}
}
