package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	userdomain "github.com/villageboard/villageboard/internal/user/domain"
)

var (
	// ErrMalformedEvent covers bad JSON and envelopes missing type or
	// data.object. Client error, never retried.
	ErrMalformedEvent = errors.New("malformed_event")
	// ErrInvalidSubscriptionPayload marks a data.object missing the
	// provider subscription id. Client error, never retried.
	ErrInvalidSubscriptionPayload = errors.New("invalid_subscription_payload")
	// ErrUnresolvedIdentity means no internal user could be linked to the
	// event. Surfaced as a server error so the provider retries delivery;
	// the linking metadata may arrive on a later event.
	ErrUnresolvedIdentity = errors.New("unresolved_identity")

	// Acknowledged no-op outcomes. The webhook handler answers 200 for
	// these so the provider does not retry.
	ErrEventIgnored          = errors.New("event_ignored")
	ErrEventAlreadyProcessed = errors.New("event_already_processed")
	ErrStaleEvent            = errors.New("stale_event")
)

// MembershipSnapshot is the read-side view of a user's membership.
type MembershipSnapshot struct {
	UserID         string                    `json:"user_id"`
	MembershipTier userdomain.MembershipTier `json:"membership_tier"`
	Subscription   *Subscription             `json:"subscription,omitempty"`
}

type Service interface {
	// ProcessEvent reconciles one raw webhook delivery. The acknowledged
	// no-op sentinels above are returned for deliveries that must be
	// answered 200 without a reconciliation write.
	ProcessEvent(ctx context.Context, payload []byte) error
	// GetMembership returns the user's tier and latest subscription.
	GetMembership(ctx context.Context, userID snowflake.ID) (MembershipSnapshot, error)
}
