// Package service implements webhook reconciliation: idempotent upsert of
// subscription records keyed by the provider subscription id, followed by
// best-effort membership propagation.
package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/villageboard/villageboard/internal/billing/domain"
	"github.com/villageboard/villageboard/internal/billing/event"
	"github.com/villageboard/villageboard/internal/billing/normalize"
	"github.com/villageboard/villageboard/internal/clock"
	"github.com/villageboard/villageboard/internal/membership"
	obsmetrics "github.com/villageboard/villageboard/internal/observability/metrics"
	userdomain "github.com/villageboard/villageboard/internal/user/domain"
	"github.com/villageboard/villageboard/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       billingdomain.Repository
	Users      userdomain.Repository
	Membership *membership.Service
	Metrics    *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       billingdomain.Repository
	users      userdomain.Repository
	membership *membership.Service
	metrics    *obsmetrics.Metrics
}

func NewService(p Params) billingdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("billing"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		users:      p.Users,
		membership: p.Membership,
		metrics:    p.Metrics,
	}
}

func (s *Service) ProcessEvent(ctx context.Context, payload []byte) error {
	env, err := event.ParseEnvelope(payload)
	if err != nil {
		return err
	}

	if !env.SubscriptionLifecycle() {
		s.metrics.RecordWebhookEvent(ctx, env.Type, "ignored")
		s.log.Debug("ignoring unsupported event type", zap.String("event_type", env.Type))
		return billingdomain.ErrEventIgnored
	}

	sub, err := event.ParseSubscription(env.Object)
	if err != nil {
		return err
	}

	var (
		userID    snowflake.ID
		tier      userdomain.MembershipTier
		operation string
	)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if env.ID != "" {
			seen, err := s.repo.FindEvent(ctx, tx, billingdomain.ProviderStripe, env.ID)
			if err != nil {
				return err
			}
			if seen != nil {
				return billingdomain.ErrEventAlreadyProcessed
			}
		}

		existing, err := s.repo.FindByProviderSubscriptionID(ctx, tx, sub.ID)
		if err != nil {
			return err
		}

		// Identity resolves entirely before any write: a failure here
		// leaves the store untouched.
		userID, err = s.resolveUser(ctx, tx, sub, existing)
		if err != nil {
			return err
		}

		deleted := env.Deleted()
		tier = normalize.Tier(deleted, sub)
		status := normalize.Status(deleted, sub)

		if existing != nil && staleEvent(env.Created, existing.LastEventAt) {
			s.log.Warn("skipping out-of-order event",
				zap.String("provider_subscription_id", sub.ID),
				zap.String("event_type", env.Type),
			)
			return billingdomain.ErrStaleEvent
		}

		now := s.clock.Now()
		if existing == nil {
			operation = "insert"
			if err := s.repo.Insert(ctx, tx, s.newRecord(env, sub, userID, tier, status, now)); err != nil {
				return err
			}
		} else {
			operation = "update"
			applyEvent(existing, env, sub, userID, tier, status, now)
			if err := s.repo.Update(ctx, tx, existing); err != nil {
				return err
			}
		}

		if env.ID != "" {
			processedAt := now
			err := s.repo.InsertEvent(ctx, tx, &billingdomain.EventRecord{
				ID:                     s.genID.Generate(),
				Provider:               billingdomain.ProviderStripe,
				ProviderEventID:        env.ID,
				EventType:              env.Type,
				ProviderSubscriptionID: sub.ID,
				Payload:                datatypes.JSON(payload),
				ReceivedAt:             now,
				ProcessedAt:            &processedAt,
			})
			if err != nil {
				// A concurrent delivery of the same event won the race.
				if db.IsDuplicateKeyErr(err) {
					return billingdomain.ErrEventAlreadyProcessed
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.RecordWebhookEvent(ctx, env.Type, "processed")
	s.metrics.RecordReconciliation(ctx, operation, string(tier))

	// Propagation is best-effort relative to the reconciliation write.
	s.membership.Propagate(ctx, userID, tier)
	return nil
}

func (s *Service) GetMembership(ctx context.Context, userID snowflake.ID) (billingdomain.MembershipSnapshot, error) {
	user, err := s.users.FindByID(ctx, s.db, userID)
	if err != nil {
		return billingdomain.MembershipSnapshot{}, err
	}

	subscription, err := s.repo.FindLatestByUserID(ctx, s.db, userID)
	if err != nil {
		return billingdomain.MembershipSnapshot{}, err
	}

	return billingdomain.MembershipSnapshot{
		UserID:         user.ID.String(),
		MembershipTier: user.MembershipTier,
		Subscription:   subscription,
	}, nil
}

// newRecord builds the initial row. Period bounds default to now so a row is
// never created with null periods.
func (s *Service) newRecord(env *event.Envelope, sub *event.Subscription, userID snowflake.ID, tier userdomain.MembershipTier, status billingdomain.SubscriptionStatus, now time.Time) *billingdomain.Subscription {
	periodStart := now
	if sub.CurrentPeriodStart != nil {
		periodStart = *sub.CurrentPeriodStart
	}
	periodEnd := now
	if sub.CurrentPeriodEnd != nil {
		periodEnd = *sub.CurrentPeriodEnd
	}

	return &billingdomain.Subscription{
		ID:                     s.genID.Generate(),
		ProviderSubscriptionID: sub.ID,
		UserID:                 &userID,
		CurrentTier:            tier,
		Status:                 status,
		Provider:               billingdomain.ProviderStripe,
		ProviderCustomerID:     sub.CustomerID,
		CurrentPeriodStart:     periodStart,
		CurrentPeriodEnd:       periodEnd,
		CancelAt:               sub.CancelAt,
		CanceledAt:             sub.CanceledAt,
		TrialEndsAt:            sub.TrialEnd,
		LastEventAt:            env.Created,
		Metadata:               metadataMap(sub.Metadata),
		CreatedAt:              now,
		UpdatedAt:              now,
	}
}

// applyEvent merges an event into the existing row. Period bounds fall back
// to the stored values and never regress to null; cancel and trial
// timestamps are replaced outright; metadata is shallow-merged with new keys
// overriding old ones.
func applyEvent(existing *billingdomain.Subscription, env *event.Envelope, sub *event.Subscription, userID snowflake.ID, tier userdomain.MembershipTier, status billingdomain.SubscriptionStatus, now time.Time) {
	existing.UserID = &userID
	existing.CurrentTier = tier
	existing.Status = status

	if sub.CustomerID != "" {
		existing.ProviderCustomerID = sub.CustomerID
	}
	if sub.CurrentPeriodStart != nil {
		existing.CurrentPeriodStart = *sub.CurrentPeriodStart
	}
	if sub.CurrentPeriodEnd != nil {
		existing.CurrentPeriodEnd = *sub.CurrentPeriodEnd
	}

	existing.CancelAt = sub.CancelAt
	existing.CanceledAt = sub.CanceledAt
	existing.TrialEndsAt = sub.TrialEnd

	if env.Created != nil {
		existing.LastEventAt = env.Created
	}

	if len(sub.Metadata) > 0 {
		if existing.Metadata == nil {
			existing.Metadata = datatypes.JSONMap{}
		}
		for key, value := range sub.Metadata {
			existing.Metadata[key] = value
		}
	}

	existing.UpdatedAt = now
}

// staleEvent reports whether the delivery predates the last applied event
// for this record. Equal timestamps still apply so replays stay idempotent.
func staleEvent(created, lastApplied *time.Time) bool {
	if created == nil || lastApplied == nil {
		return false
	}
	return created.Before(*lastApplied)
}

func metadataMap(raw map[string]string) datatypes.JSONMap {
	if len(raw) == 0 {
		return nil
	}
	out := datatypes.JSONMap{}
	for key, value := range raw {
		out[key] = value
	}
	return out
}
