// Package domain contains persistence models for billing subscriptions and
// the webhook event log.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	userdomain "github.com/villageboard/villageboard/internal/user/domain"
	"gorm.io/datatypes"
)

// ProviderStripe tags records originating from the Stripe integration.
const ProviderStripe = "stripe"

// SubscriptionStatus mirrors provider subscription lifecycle states.
type SubscriptionStatus string

const (
	StatusActive            SubscriptionStatus = "active"
	StatusTrialing          SubscriptionStatus = "trialing"
	StatusPastDue           SubscriptionStatus = "past_due"
	StatusCanceled          SubscriptionStatus = "canceled"
	StatusUnpaid            SubscriptionStatus = "unpaid"
	StatusIncomplete        SubscriptionStatus = "incomplete"
	StatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	StatusPaused            SubscriptionStatus = "paused"
)

// Valid reports whether the status is a member of the closed enum.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case StatusActive, StatusTrialing, StatusPastDue, StatusCanceled,
		StatusUnpaid, StatusIncomplete, StatusIncompleteExpired, StatusPaused:
		return true
	default:
		return false
	}
}

// Subscription is the internal record reconciled from provider webhook
// events. ProviderSubscriptionID is the idempotency key: at most one row
// exists per provider subscription, and rows are never hard-deleted —
// deletion events transition status to canceled and tier to FREE.
type Subscription struct {
	ID                     snowflake.ID              `gorm:"primaryKey"`
	ProviderSubscriptionID string                    `gorm:"type:text;not null;uniqueIndex"`
	UserID                 *snowflake.ID             `gorm:"index"`
	BusinessID             *snowflake.ID             `gorm:"index"`
	CurrentTier            userdomain.MembershipTier `gorm:"type:text;not null;default:FREE"`
	Status                 SubscriptionStatus        `gorm:"type:text;not null;default:incomplete"`
	Provider               string                    `gorm:"type:text;not null"`
	ProviderCustomerID     string                    `gorm:"type:text;index"`
	CurrentPeriodStart     time.Time                 `gorm:"not null"`
	CurrentPeriodEnd       time.Time                 `gorm:"not null"`
	CancelAt               *time.Time                `gorm:""`
	CanceledAt             *time.Time                `gorm:""`
	TrialEndsAt            *time.Time                `gorm:""`
	LastEventAt            *time.Time                `gorm:""`
	Metadata               datatypes.JSONMap         `gorm:"type:jsonb"`
	CreatedAt              time.Time                 `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt              time.Time                 `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }

// EventRecord logs each accepted webhook delivery. The unique
// (provider, provider_event_id) pair short-circuits replayed deliveries.
type EventRecord struct {
	ID                     snowflake.ID   `gorm:"primaryKey"`
	Provider               string         `gorm:"type:text;not null"`
	ProviderEventID        string         `gorm:"type:text;not null"`
	EventType              string         `gorm:"type:text;not null"`
	ProviderSubscriptionID string         `gorm:"type:text"`
	Payload                datatypes.JSON `gorm:"type:jsonb;not null"`
	ReceivedAt             time.Time      `gorm:"not null"`
	ProcessedAt            *time.Time     `gorm:""`
}

// TableName sets the database table name.
func (EventRecord) TableName() string { return "billing_events" }
