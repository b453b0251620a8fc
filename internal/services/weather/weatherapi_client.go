package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/d-kovalchuk/weather-notify-api/internal/apperr"
	"github.com/d-kovalchuk/weather-notify-api/internal/models"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientWeatherAPI fetches current weather from weatherapi.com.
type ClientWeatherAPI struct {
	apiKey string
	apiURL string
	client HTTPClient
	log    *zap.Logger
}

func NewClientWeatherAPI(apiKey, apiURL string, httpClient HTTPClient, log *zap.Logger) *ClientWeatherAPI {
	return &ClientWeatherAPI{
		apiKey: apiKey,
		apiURL: apiURL,
		client: httpClient,
		log:    log.With(zap.String("component", "ClientWeatherAPI")),
	}
}

func (s *ClientWeatherAPI) Fetch(ctx context.Context, city string) (models.WeatherData, error) {
	reqURL := fmt.Sprintf("%s?key=%s&q=%s", s.apiURL, s.apiKey, url.QueryEscape(city))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return models.WeatherData{}, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return models.WeatherData{}, &apperr.WeatherError{
			Kind:    apperr.WeatherServiceError,
			Message: err.Error(),
		}
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			s.log.Warn("failed to close response body", zap.Error(err))
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return models.WeatherData{}, classifyStatus(resp)
	}

	var raw struct {
		Location struct {
			Name string `json:"name"`
		} `json:"location"`
		Current struct {
			TempC     float64 `json:"temp_c"`
			Humidity  int     `json:"humidity"`
			Condition struct {
				Text string `json:"text"`
			} `json:"condition"`
		} `json:"current"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return models.WeatherData{}, &apperr.WeatherError{
			Kind:    apperr.WeatherServiceError,
			Status:  resp.StatusCode,
			Message: "malformed response: " + err.Error(),
		}
	}

	return models.WeatherData{
		City:        raw.Location.Name,
		Temperature: raw.Current.TempC,
		Humidity:    raw.Current.Humidity,
		Condition:   raw.Current.Condition.Text,
	}, nil
}

func classifyStatus(resp *http.Response) error {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	// Decode failure leaves the message empty, the status still classifies.
	_ = json.NewDecoder(resp.Body).Decode(&body)

	kind := apperr.WeatherServiceError
	switch resp.StatusCode {
	case http.StatusBadRequest:
		kind = apperr.WeatherInvalidRequest
	case http.StatusNotFound:
		kind = apperr.WeatherCityNotFound
	}
	return &apperr.WeatherError{
		Kind:    kind,
		Status:  resp.StatusCode,
		Message: body.Error.Message,
	}
}
