// Package domain contains the user model and membership tier enum.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// MembershipTier gates feature access across the application.
type MembershipTier string

const (
	TierFree   MembershipTier = "FREE"
	TierPlus   MembershipTier = "PLUS"
	TierFamily MembershipTier = "FAMILY"
)

// Valid reports whether the tier is a member of the closed enum.
func (t MembershipTier) Valid() bool {
	switch t {
	case TierFree, TierPlus, TierFamily:
		return true
	default:
		return false
	}
}

// User captures the slice of the user entity this service touches.
// MembershipTier is the denormalized field the rest of the application
// reads; subscriptions are its source of truth.
type User struct {
	ID             snowflake.ID   `gorm:"primaryKey"`
	DisplayName    string         `gorm:"type:text;not null"`
	Email          string         `gorm:"type:text;not null;uniqueIndex"`
	MembershipTier MembershipTier `gorm:"type:text;not null;default:FREE"`
	CreatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

var ErrNotFound = errors.New("user_not_found")
