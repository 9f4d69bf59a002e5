// Package event parses and validates provider webhook payloads down to the
// fields the reconciliation core actually reads.
package event

import (
	"encoding/json"
	"strings"
	"time"

	billingdomain "github.com/villageboard/villageboard/internal/billing/domain"
)

// Subscription lifecycle event types this core reconciles. Every other type
// is acknowledged without processing so the provider's delivery never fails
// on events we do not care about.
const (
	TypeSubscriptionCreated = "customer.subscription.created"
	TypeSubscriptionUpdated = "customer.subscription.updated"
	TypeSubscriptionDeleted = "customer.subscription.deleted"
)

// Envelope is the validated outer shape of a webhook delivery.
type Envelope struct {
	ID      string
	Type    string
	Created *time.Time
	Object  json.RawMessage
}

type wireEnvelope struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// ParseEnvelope validates the raw delivery against the minimal envelope
// contract: a string type and a nested data.object.
func ParseEnvelope(payload []byte) (*Envelope, error) {
	if !json.Valid(payload) {
		return nil, billingdomain.ErrMalformedEvent
	}

	var wire wireEnvelope
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, billingdomain.ErrMalformedEvent
	}
	if strings.TrimSpace(wire.Type) == "" {
		return nil, billingdomain.ErrMalformedEvent
	}
	if len(wire.Data.Object) == 0 || string(wire.Data.Object) == "null" {
		return nil, billingdomain.ErrMalformedEvent
	}

	return &Envelope{
		ID:      strings.TrimSpace(wire.ID),
		Type:    strings.TrimSpace(wire.Type),
		Created: epochToTime(wire.Created),
		Object:  wire.Data.Object,
	}, nil
}

// SubscriptionLifecycle reports whether the event type is in the supported set.
func (e *Envelope) SubscriptionLifecycle() bool {
	switch e.Type {
	case TypeSubscriptionCreated, TypeSubscriptionUpdated, TypeSubscriptionDeleted:
		return true
	default:
		return false
	}
}

// Deleted reports whether the event is a subscription deletion.
func (e *Envelope) Deleted() bool {
	return e.Type == TypeSubscriptionDeleted
}

func epochToTime(seconds int64) *time.Time {
	if seconds <= 0 {
		return nil
	}
	t := time.Unix(seconds, 0).UTC()
	return &t
}
