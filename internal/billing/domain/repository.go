package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindByProviderSubscriptionID(ctx context.Context, db *gorm.DB, providerSubscriptionID string) (*Subscription, error)
	FindLatestByUserID(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*Subscription, error)
	// FindLinkedUser returns the user id carried by any previously
	// reconciled subscription for the given provider customer.
	FindLinkedUser(ctx context.Context, db *gorm.DB, provider, providerCustomerID string) (*snowflake.ID, error)
	Insert(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	Update(ctx context.Context, db *gorm.DB, subscription *Subscription) error

	FindEvent(ctx context.Context, db *gorm.DB, provider, providerEventID string) (*EventRecord, error)
	InsertEvent(ctx context.Context, db *gorm.DB, event *EventRecord) error
	MarkEventProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error
}
