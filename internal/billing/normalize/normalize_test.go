package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	billingdomain "github.com/villageboard/villageboard/internal/billing/domain"
	"github.com/villageboard/villageboard/internal/billing/event"
	userdomain "github.com/villageboard/villageboard/internal/user/domain"
)

func TestTier(t *testing.T) {
	cases := []struct {
		name     string
		deleted  bool
		sub      *event.Subscription
		expected userdomain.MembershipTier
	}{
		{
			name:     "event metadata wins over price and product",
			sub:      &event.Subscription{Metadata: map[string]string{"tier": "PLUS"}, PriceMetadata: map[string]string{"tier": "FAMILY"}, ProductMetadata: map[string]string{"tier": "FREE"}},
			expected: userdomain.TierPlus,
		},
		{
			name:     "price metadata when event metadata has no tier",
			sub:      &event.Subscription{Metadata: map[string]string{"userId": "42"}, PriceMetadata: map[string]string{"tier": "FAMILY"}},
			expected: userdomain.TierFamily,
		},
		{
			name:     "product metadata as last source",
			sub:      &event.Subscription{ProductMetadata: map[string]string{"tier": "PLUS"}},
			expected: userdomain.TierPlus,
		},
		{
			name:     "no tier anywhere defaults to FREE",
			sub:      &event.Subscription{},
			expected: userdomain.TierFree,
		},
		{
			name:     "case-insensitive values",
			sub:      &event.Subscription{Metadata: map[string]string{"tier": "plus"}},
			expected: userdomain.TierPlus,
		},
		{
			name:     "alternate key spellings",
			sub:      &event.Subscription{Metadata: map[string]string{"membership_tier": "FAMILY"}},
			expected: userdomain.TierFamily,
		},
		{
			name:     "unrecognized tier collapses to FREE",
			sub:      &event.Subscription{Metadata: map[string]string{"tier": "PLATINUM"}},
			expected: userdomain.TierFree,
		},
		{
			name:     "deletion forces FREE over any payload tier",
			deleted:  true,
			sub:      &event.Subscription{Metadata: map[string]string{"tier": "FAMILY"}},
			expected: userdomain.TierFree,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Tier(tc.deleted, tc.sub))
		})
	}
}

func TestStatus(t *testing.T) {
	cases := []struct {
		name     string
		deleted  bool
		status   string
		expected billingdomain.SubscriptionStatus
	}{
		{name: "active passes through", status: "active", expected: billingdomain.StatusActive},
		{name: "trialing passes through", status: "trialing", expected: billingdomain.StatusTrialing},
		{name: "case folded", status: "PAST_DUE", expected: billingdomain.StatusPastDue},
		{name: "unknown becomes incomplete", status: "limbo", expected: billingdomain.StatusIncomplete},
		{name: "absent becomes incomplete", status: "", expected: billingdomain.StatusIncomplete},
		{name: "deletion forces canceled", deleted: true, status: "active", expected: billingdomain.StatusCanceled},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Status(tc.deleted, &event.Subscription{Status: tc.status}))
		})
	}
}
