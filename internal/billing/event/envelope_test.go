package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	billingdomain "github.com/villageboard/villageboard/internal/billing/domain"
)

func TestParseEnvelope(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"customer.subscription.created","created":1767009600,"data":{"object":{"id":"sub_1"}}}`)

	env, err := ParseEnvelope(payload)
	assert.NoError(t, err)
	assert.Equal(t, "evt_1", env.ID)
	assert.Equal(t, TypeSubscriptionCreated, env.Type)
	assert.True(t, env.SubscriptionLifecycle())
	assert.False(t, env.Deleted())
	if assert.NotNil(t, env.Created) {
		assert.Equal(t, time.Unix(1767009600, 0).UTC(), *env.Created)
	}
}

func TestParseEnvelopeRejectsMalformedPayloads(t *testing.T) {
	cases := map[string]string{
		"invalid json":     `{"id":"evt_1",`,
		"not an object":    `[1,2,3]`,
		"missing type":     `{"id":"evt_1","data":{"object":{"id":"sub_1"}}}`,
		"blank type":       `{"id":"evt_1","type":"   ","data":{"object":{"id":"sub_1"}}}`,
		"missing object":   `{"id":"evt_1","type":"customer.subscription.created","data":{}}`,
		"null object":      `{"id":"evt_1","type":"customer.subscription.created","data":{"object":null}}`,
		"non-object shape": `{"id":"evt_1","type":true,"data":{"object":{"id":"sub_1"}}}`,
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseEnvelope([]byte(payload))
			assert.ErrorIs(t, err, billingdomain.ErrMalformedEvent)
		})
	}
}

func TestParseEnvelopeMissingIDAndCreated(t *testing.T) {
	// id and created are optional; only type and data.object are required.
	env, err := ParseEnvelope([]byte(`{"type":"customer.subscription.deleted","data":{"object":{"id":"sub_1"}}}`))
	assert.NoError(t, err)
	assert.Empty(t, env.ID)
	assert.Nil(t, env.Created)
	assert.True(t, env.Deleted())
}

func TestSubscriptionLifecycleExcludesOtherTypes(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{"id":"evt_1","type":"customer.subscription.trial_will_end","data":{"object":{"id":"sub_1"}}}`))
	assert.NoError(t, err)
	assert.False(t, env.SubscriptionLifecycle())

	env, err = ParseEnvelope([]byte(`{"id":"evt_2","type":"invoice.paid","data":{"object":{"id":"in_1"}}}`))
	assert.NoError(t, err)
	assert.False(t, env.SubscriptionLifecycle())
}
