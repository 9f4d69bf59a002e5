package event

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	billingdomain "github.com/villageboard/villageboard/internal/billing/domain"
)

func TestParseSubscription(t *testing.T) {
	object := json.RawMessage(`{
		"id": "sub_1",
		"status": "trialing",
		"customer": "cus_1",
		"metadata": {"userId": "42", "tier": "PLUS", "seats": 3},
		"items": {"data": [{"price": {"metadata": {"tier": "FAMILY"}, "product": {"id": "prod_1", "metadata": {"tier": "FREE"}}}}]},
		"current_period_start": 1767009600,
		"current_period_end": 1769688000,
		"trial_end": 1768219200
	}`)

	sub, err := ParseSubscription(object)
	assert.NoError(t, err)
	assert.Equal(t, "sub_1", sub.ID)
	assert.Equal(t, "trialing", sub.Status)
	assert.Equal(t, "cus_1", sub.CustomerID)

	// Non-string metadata values are dropped rather than coerced.
	assert.Equal(t, map[string]string{"userId": "42", "tier": "PLUS"}, sub.Metadata)
	assert.Equal(t, map[string]string{"tier": "FAMILY"}, sub.PriceMetadata)
	assert.Equal(t, map[string]string{"tier": "FREE"}, sub.ProductMetadata)

	if assert.NotNil(t, sub.CurrentPeriodStart) {
		assert.Equal(t, time.Unix(1767009600, 0).UTC(), *sub.CurrentPeriodStart)
	}
	if assert.NotNil(t, sub.TrialEnd) {
		assert.Equal(t, time.Unix(1768219200, 0).UTC(), *sub.TrialEnd)
	}
	assert.Nil(t, sub.CancelAt)
	assert.Nil(t, sub.CanceledAt)
}

func TestParseSubscriptionRequiresID(t *testing.T) {
	_, err := ParseSubscription(json.RawMessage(`{"status":"active"}`))
	assert.ErrorIs(t, err, billingdomain.ErrInvalidSubscriptionPayload)

	_, err = ParseSubscription(json.RawMessage(`{"id":"  ","status":"active"}`))
	assert.ErrorIs(t, err, billingdomain.ErrInvalidSubscriptionPayload)

	_, err = ParseSubscription(json.RawMessage(`"sub_1"`))
	assert.ErrorIs(t, err, billingdomain.ErrInvalidSubscriptionPayload)
}

func TestParseSubscriptionCustomerShapes(t *testing.T) {
	sub, err := ParseSubscription(json.RawMessage(`{"id":"sub_1","customer":{"id":"cus_2","email":"p@example.com"}}`))
	assert.NoError(t, err)
	assert.Equal(t, "cus_2", sub.CustomerID)

	sub, err = ParseSubscription(json.RawMessage(`{"id":"sub_1"}`))
	assert.NoError(t, err)
	assert.Empty(t, sub.CustomerID)
}

func TestParseSubscriptionProductReference(t *testing.T) {
	// A bare product id reference carries no metadata.
	sub, err := ParseSubscription(json.RawMessage(`{"id":"sub_1","items":{"data":[{"price":{"product":"prod_1"}}]}}`))
	assert.NoError(t, err)
	assert.Nil(t, sub.ProductMetadata)
}
