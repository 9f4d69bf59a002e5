// Package normalize maps free-form provider status and tier strings onto the
// internal closed enums.
package normalize

import (
	"strings"

	billingdomain "github.com/villageboard/villageboard/internal/billing/domain"
	"github.com/villageboard/villageboard/internal/billing/event"
	userdomain "github.com/villageboard/villageboard/internal/user/domain"
)

// Accepted spellings for the tier key in event, price, and product metadata.
var tierKeys = []string{"tier", "membershipTier", "membership_tier", "TIER"}

// Tier resolves the membership tier for an event. Precedence: event metadata,
// first item's price metadata, embedded product metadata, FREE. A deletion
// event forces FREE regardless of the payload.
func Tier(deleted bool, sub *event.Subscription) userdomain.MembershipTier {
	if deleted {
		return userdomain.TierFree
	}

	for _, source := range []map[string]string{sub.Metadata, sub.PriceMetadata, sub.ProductMetadata} {
		if raw, ok := lookup(source, tierKeys); ok {
			tier := userdomain.MembershipTier(strings.ToUpper(strings.TrimSpace(raw)))
			if tier.Valid() {
				return tier
			}
			// Unrecognized tiers are never stored verbatim.
			return userdomain.TierFree
		}
	}
	return userdomain.TierFree
}

// Status resolves the subscription status for an event. Unrecognized or
// absent provider statuses become incomplete; deletion forces canceled.
func Status(deleted bool, sub *event.Subscription) billingdomain.SubscriptionStatus {
	if deleted {
		return billingdomain.StatusCanceled
	}

	status := billingdomain.SubscriptionStatus(strings.ToLower(strings.TrimSpace(sub.Status)))
	if status.Valid() {
		return status
	}
	return billingdomain.StatusIncomplete
}

func lookup(source map[string]string, keys []string) (string, bool) {
	if len(source) == 0 {
		return "", false
	}
	for _, key := range keys {
		if value, ok := source[key]; ok && strings.TrimSpace(value) != "" {
			return value, true
		}
	}
	return "", false
}
