// Package email builds the confirmation and forecast messages.
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/d-kovalchuk/weather-notify-api/internal/models"
)

type Emailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type Service struct {
	emailer      Emailer
	templatesDir string
	baseURL      string
}

func NewService(emailer Emailer, templatesDir, baseURL string) *Service {
	return &Service{
		emailer:      emailer,
		templatesDir: templatesDir,
		baseURL:      strings.TrimSuffix(baseURL, "/"),
	}
}

// SendConfirmation mails the double-opt-in link for a fresh token.
func (e *Service) SendConfirmation(ctx context.Context, toEmail, token string) error {
	body, err := e.render("confirm_email.html", map[string]string{
		"Email":      toEmail,
		"ConfirmURL": fmt.Sprintf("%s/api/confirm/%s", e.baseURL, token),
	})
	if err != nil {
		return err
	}
	return e.emailer.Send(ctx, toEmail, "Confirm your subscription", body)
}

// SendWeather mails the current snapshot with the subscriber's
// unsubscribe link.
func (e *Service) SendWeather(
	ctx context.Context, sub models.Subscription, forecast models.WeatherData,
) error {
	body, err := e.render("forecast_email.html", map[string]string{
		"City":           sub.City,
		"Temperature":    strconv.FormatFloat(forecast.Temperature, 'f', 1, 64),
		"Humidity":       strconv.Itoa(forecast.Humidity),
		"Condition":      forecast.Condition,
		"UnsubscribeURL": fmt.Sprintf("%s/api/unsubscribe/%s", e.baseURL, sub.UnsubscribeToken),
	})
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Weather Update for %s", sub.City)
	return e.emailer.Send(ctx, sub.Email, subject, body)
}

func (e *Service) render(name string, data map[string]string) (string, error) {
	tmpl, err := template.ParseFiles(e.templatesDir + "/" + name)
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", name, err)
	}
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", name, err)
	}
	return body.String(), nil
}
