// Package subscription owns the double-opt-in lifecycle of a subscription.
package subscription

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/d-kovalchuk/weather-notify-api/internal/apperr"
	"github.com/d-kovalchuk/weather-notify-api/internal/metrics"
	"github.com/d-kovalchuk/weather-notify-api/internal/models"
)

type ConfirmResult int

const (
	Confirmed ConfirmResult = iota
	AlreadyConfirmed
)

type repository interface {
	GetByEmailAndCity(ctx context.Context, email, city string) (models.Subscription, error)
	GetByConfirmationToken(ctx context.Context, token string) (models.Subscription, error)
	GetByUnsubscribeToken(ctx context.Context, token string) (models.Subscription, error)
	Create(ctx context.Context, sub *models.Subscription) error
	Update(ctx context.Context, sub *models.Subscription) error
	Delete(ctx context.Context, sub *models.Subscription) error
}

type weatherGetter interface {
	GetByCity(ctx context.Context, city string) (models.WeatherData, error)
}

type confirmationSender interface {
	SendConfirmation(ctx context.Context, toEmail, token string) error
}

type Service struct {
	repo    repository
	weather weatherGetter
	email   confirmationSender
	log     *zap.Logger
	m       *metrics.Metrics
}

func NewService(
	repo repository, weather weatherGetter, email confirmationSender,
	log *zap.Logger, m *metrics.Metrics,
) *Service {
	return &Service{
		repo:    repo,
		weather: weather,
		email:   email,
		log:     log.With(zap.String("component", "SubscriptionService")),
		m:       m,
	}
}

// Subscribe creates or refreshes an unconfirmed subscription and sends the
// confirmation email. The city is validated by resolving its weather first;
// provider detail is not surfaced to the caller.
func (s *Service) Subscribe(ctx context.Context, data models.UserSubData) error {
	if _, err := s.weather.GetByCity(ctx, data.City); err != nil {
		s.log.Warn("invalid city in subscribe request",
			zap.String("city", data.City), zap.Error(err))
		return fmt.Errorf("%w: unknown city %q", apperr.ErrInvalidInput, data.City)
	}

	existing, err := s.repo.GetByEmailAndCity(ctx, data.Email, data.City)
	switch {
	case err == nil:
		if existing.Confirmed {
			s.log.Warn("subscription already confirmed",
				zap.String("email", data.Email), zap.String("city", data.City))
			return apperr.ErrConflict
		}
		// Unconfirmed resubscribe: regenerate both tokens, take the new
		// frequency, resend the confirmation. No duplicate row.
		existing.ConfirmationToken = uuid.NewString()
		existing.UnsubscribeToken = uuid.NewString()
		existing.Frequency = data.Frequency
		if err := s.repo.Update(ctx, &existing); err != nil {
			return err
		}
		s.log.Info("resent confirmation for unconfirmed subscription",
			zap.String("email", data.Email), zap.String("city", data.City))
		return s.email.SendConfirmation(ctx, data.Email, existing.ConfirmationToken)

	case errors.Is(err, apperr.ErrNotFound):
		sub := models.Subscription{
			Email:             data.Email,
			City:              data.City,
			Frequency:         data.Frequency,
			Confirmed:         false,
			ConfirmationToken: uuid.NewString(),
			UnsubscribeToken:  uuid.NewString(),
		}
		if err := s.repo.Create(ctx, &sub); err != nil {
			return err
		}
		s.m.SubscriptionsCreated.WithLabelValues(data.Frequency).Inc()
		s.log.Info("subscription created, sending confirmation",
			zap.String("email", data.Email), zap.String("city", data.City),
			zap.String("frequency", data.Frequency))
		return s.email.SendConfirmation(ctx, data.Email, sub.ConfirmationToken)

	default:
		return err
	}
}

// Confirm flips the subscription to confirmed. Re-confirming a token is
// idempotent and does not touch the store.
func (s *Service) Confirm(ctx context.Context, token string) (ConfirmResult, error) {
	if token == "" {
		return 0, fmt.Errorf("%w: empty token", apperr.ErrInvalidInput)
	}

	sub, err := s.repo.GetByConfirmationToken(ctx, token)
	if err != nil {
		return 0, err
	}
	if sub.Confirmed {
		s.log.Info("subscription already confirmed", zap.String("email", sub.Email))
		return AlreadyConfirmed, nil
	}

	sub.Confirmed = true
	if err := s.repo.Update(ctx, &sub); err != nil {
		return 0, err
	}
	s.m.SubscriptionsConfirmed.Inc()
	s.log.Info("subscription confirmed",
		zap.String("email", sub.Email), zap.String("city", sub.City))
	return Confirmed, nil
}

// Unsubscribe deletes the record for a known token regardless of its
// confirmation state.
func (s *Service) Unsubscribe(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("%w: empty token", apperr.ErrInvalidInput)
	}

	sub, err := s.repo.GetByUnsubscribeToken(ctx, token)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, &sub); err != nil {
		return err
	}
	s.m.SubscriptionsCanceled.Inc()
	s.log.Info("unsubscribed",
		zap.String("email", sub.Email), zap.String("city", sub.City))
	return nil
}
