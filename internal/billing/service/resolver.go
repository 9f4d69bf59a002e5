package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/villageboard/villageboard/internal/billing/domain"
	"github.com/villageboard/villageboard/internal/billing/event"
	"gorm.io/gorm"
)

// Accepted spellings for the user id key in event metadata.
var userIDKeys = []string{"userId", "user_id", "userID", "USER_ID"}

// resolveUser determines which internal user the event applies to.
// Resolution order, first match wins: event metadata, the user already
// stored on the record for this provider subscription id, then any prior
// record carrying the same provider customer id. The last step covers a
// customer's later subscriptions whose metadata lacks the link, provided an
// earlier record for the same customer already carries it.
func (s *Service) resolveUser(ctx context.Context, db *gorm.DB, sub *event.Subscription, existing *billingdomain.Subscription) (snowflake.ID, error) {
	for _, key := range userIDKeys {
		raw, ok := sub.Metadata[key]
		if !ok {
			continue
		}
		id, err := snowflake.ParseString(strings.TrimSpace(raw))
		if err != nil {
			// A malformed id is treated as absent rather than fatal;
			// the remaining resolution steps may still link the event.
			continue
		}
		return id, nil
	}

	if existing != nil && existing.UserID != nil {
		return *existing.UserID, nil
	}

	if sub.CustomerID != "" {
		linked, err := s.repo.FindLinkedUser(ctx, db, billingdomain.ProviderStripe, sub.CustomerID)
		if err != nil {
			return 0, err
		}
		if linked != nil {
			return *linked, nil
		}
	}

	return 0, billingdomain.ErrUnresolvedIdentity
}
