// Package sqlite implements the subscription store on database/sql.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/d-kovalchuk/weather-notify-api/internal/apperr"
	"github.com/d-kovalchuk/weather-notify-api/internal/models"

	_ "modernc.org/sqlite"
)

const selectColumns = `id, email, city, frequency, confirmed,
	confirmation_token, unsubscribe_token, created_at, updated_at`

type SubscriptionRepository struct {
	db  *sql.DB
	log *zap.Logger
}

func NewSubscriptionRepository(db *sql.DB, log *zap.Logger) *SubscriptionRepository {
	return &SubscriptionRepository{
		db:  db,
		log: log.With(zap.String("component", "SubscriptionRepository")),
	}
}

// Create inserts a new subscription row and fills in ID and timestamps.
func (r *SubscriptionRepository) Create(ctx context.Context, sub *models.Subscription) error {
	now := time.Now()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO subscriptions
			(email, city, frequency, confirmed, confirmation_token, unsubscribe_token, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.Email, sub.City, sub.Frequency, sub.Confirmed,
		sub.ConfirmationToken, sub.UnsubscribeToken, now, now,
	)
	if err != nil {
		r.log.Error("failed to insert subscription",
			zap.String("email", sub.Email), zap.String("city", sub.City), zap.Error(err))
		return fmt.Errorf("%w: insert subscription: %v", apperr.ErrStore, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("%w: last insert id: %v", apperr.ErrStore, err)
	}
	sub.ID = int(id)
	sub.CreatedAt = now
	sub.UpdatedAt = now

	r.log.Info("subscription created",
		zap.String("email", sub.Email), zap.String("city", sub.City), zap.String("frequency", sub.Frequency))
	return nil
}

// Update persists the mutable fields of an existing row.
func (r *SubscriptionRepository) Update(ctx context.Context, sub *models.Subscription) error {
	now := time.Now()
	res, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions
		 SET frequency = ?, confirmed = ?, confirmation_token = ?, unsubscribe_token = ?, updated_at = ?
		 WHERE id = ?`,
		sub.Frequency, sub.Confirmed, sub.ConfirmationToken, sub.UnsubscribeToken, now, sub.ID,
	)
	if err != nil {
		r.log.Error("failed to update subscription", zap.Int("id", sub.ID), zap.Error(err))
		return fmt.Errorf("%w: update subscription: %v", apperr.ErrStore, err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected: %v", apperr.ErrStore, err)
	}
	if count == 0 {
		return apperr.ErrNotFound
	}
	sub.UpdatedAt = now
	return nil
}

// Delete removes the row. Unsubscribing is a hard delete.
func (r *SubscriptionRepository) Delete(ctx context.Context, sub *models.Subscription) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = ?`, sub.ID)
	if err != nil {
		r.log.Error("failed to delete subscription", zap.Int("id", sub.ID), zap.Error(err))
		return fmt.Errorf("%w: delete subscription: %v", apperr.ErrStore, err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected: %v", apperr.ErrStore, err)
	}
	if count == 0 {
		return apperr.ErrNotFound
	}
	r.log.Info("subscription deleted",
		zap.String("email", sub.Email), zap.String("city", sub.City))
	return nil
}

func (r *SubscriptionRepository) GetByEmailAndCity(
	ctx context.Context, email, city string,
) (models.Subscription, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM subscriptions WHERE email = ? AND city = ?`, email, city)
	return r.scanOne(row)
}

func (r *SubscriptionRepository) GetByConfirmationToken(
	ctx context.Context, token string,
) (models.Subscription, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM subscriptions WHERE confirmation_token = ?`, token)
	return r.scanOne(row)
}

func (r *SubscriptionRepository) GetByUnsubscribeToken(
	ctx context.Context, token string,
) (models.Subscription, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM subscriptions WHERE unsubscribe_token = ?`, token)
	return r.scanOne(row)
}

// GetConfirmedByFrequency returns all dispatch-eligible subscriptions for a
// frequency tier, in table order.
func (r *SubscriptionRepository) GetConfirmedByFrequency(
	ctx context.Context, frequency string,
) ([]models.Subscription, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM subscriptions WHERE confirmed = 1 AND frequency = ?`, frequency)
	if err != nil {
		r.log.Error("failed to query subscriptions by frequency",
			zap.String("frequency", frequency), zap.Error(err))
		return nil, fmt.Errorf("%w: query by frequency: %v", apperr.ErrStore, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.log.Error("failed to close rows", zap.Error(err))
		}
	}()

	var subs []models.Subscription
	for rows.Next() {
		var sub models.Subscription
		if err := rows.Scan(
			&sub.ID, &sub.Email, &sub.City, &sub.Frequency, &sub.Confirmed,
			&sub.ConfirmationToken, &sub.UnsubscribeToken, &sub.CreatedAt, &sub.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scan subscription: %v", apperr.ErrStore, err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate subscriptions: %v", apperr.ErrStore, err)
	}

	r.log.Debug("fetched confirmed subscriptions",
		zap.String("frequency", frequency), zap.Int("count", len(subs)))
	return subs, nil
}

func (r *SubscriptionRepository) scanOne(row *sql.Row) (models.Subscription, error) {
	var sub models.Subscription
	err := row.Scan(
		&sub.ID, &sub.Email, &sub.City, &sub.Frequency, &sub.Confirmed,
		&sub.ConfirmationToken, &sub.UnsubscribeToken, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Subscription{}, apperr.ErrNotFound
	}
	if err != nil {
		return models.Subscription{}, fmt.Errorf("%w: scan subscription: %v", apperr.ErrStore, err)
	}
	return sub, nil
}
