package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/villageboard/villageboard/internal/billing/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() billingdomain.Repository {
	return &repo{}
}

func (r *repo) FindByProviderSubscriptionID(ctx context.Context, db *gorm.DB, providerSubscriptionID string) (*billingdomain.Subscription, error) {
	var subscription billingdomain.Subscription
	err := db.WithContext(ctx).
		Where("provider_subscription_id = ?", providerSubscriptionID).
		First(&subscription).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &subscription, nil
}

func (r *repo) FindLatestByUserID(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*billingdomain.Subscription, error) {
	var subscription billingdomain.Subscription
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		First(&subscription).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &subscription, nil
}

func (r *repo) FindLinkedUser(ctx context.Context, db *gorm.DB, provider, providerCustomerID string) (*snowflake.ID, error) {
	var subscription billingdomain.Subscription
	err := db.WithContext(ctx).
		Where("provider = ? AND provider_customer_id = ? AND user_id IS NOT NULL", provider, providerCustomerID).
		Order("updated_at DESC").
		First(&subscription).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return subscription.UserID, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, subscription *billingdomain.Subscription) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO subscriptions (
			id, provider_subscription_id, user_id, business_id, current_tier, status,
			provider, provider_customer_id, current_period_start, current_period_end,
			cancel_at, canceled_at, trial_ends_at, last_event_at, metadata, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		subscription.ID,
		subscription.ProviderSubscriptionID,
		subscription.UserID,
		subscription.BusinessID,
		subscription.CurrentTier,
		subscription.Status,
		subscription.Provider,
		subscription.ProviderCustomerID,
		subscription.CurrentPeriodStart,
		subscription.CurrentPeriodEnd,
		subscription.CancelAt,
		subscription.CanceledAt,
		subscription.TrialEndsAt,
		subscription.LastEventAt,
		subscription.Metadata,
		subscription.CreatedAt,
		subscription.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, subscription *billingdomain.Subscription) error {
	return db.WithContext(ctx).Exec(
		`UPDATE subscriptions SET
			user_id = ?, business_id = ?, current_tier = ?, status = ?,
			provider_customer_id = ?, current_period_start = ?, current_period_end = ?,
			cancel_at = ?, canceled_at = ?, trial_ends_at = ?, last_event_at = ?,
			metadata = ?, updated_at = ?
		WHERE provider_subscription_id = ?`,
		subscription.UserID,
		subscription.BusinessID,
		subscription.CurrentTier,
		subscription.Status,
		subscription.ProviderCustomerID,
		subscription.CurrentPeriodStart,
		subscription.CurrentPeriodEnd,
		subscription.CancelAt,
		subscription.CanceledAt,
		subscription.TrialEndsAt,
		subscription.LastEventAt,
		subscription.Metadata,
		subscription.UpdatedAt,
		subscription.ProviderSubscriptionID,
	).Error
}

func (r *repo) FindEvent(ctx context.Context, db *gorm.DB, provider, providerEventID string) (*billingdomain.EventRecord, error) {
	var record billingdomain.EventRecord
	err := db.WithContext(ctx).
		Where("provider = ? AND provider_event_id = ?", provider, providerEventID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *repo) InsertEvent(ctx context.Context, db *gorm.DB, event *billingdomain.EventRecord) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO billing_events (
			id, provider, provider_event_id, event_type, provider_subscription_id,
			payload, received_at, processed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.Provider,
		event.ProviderEventID,
		event.EventType,
		event.ProviderSubscriptionID,
		event.Payload,
		event.ReceivedAt,
		event.ProcessedAt,
	).Error
}

func (r *repo) MarkEventProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE billing_events SET processed_at = ? WHERE id = ?`,
		at,
		id,
	).Error
}
