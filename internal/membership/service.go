// Package membership propagates the reconciled tier onto the user entity
// and the secondary projection store.
package membership

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/villageboard/villageboard/internal/clock"
	obsmetrics "github.com/villageboard/villageboard/internal/observability/metrics"
	userdomain "github.com/villageboard/villageboard/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	Users      userdomain.Repository
	Projection Projection          `optional:"true"`
	Metrics    *obsmetrics.Metrics `optional:"true"`
}

// Service writes the resolved tier wherever the rest of the application
// reads it. The subscription record stays the durable source of truth:
// every failure here is logged and swallowed, never rolled back into the
// reconciliation write.
type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	clock      clock.Clock
	users      userdomain.Repository
	projection Projection
	metrics    *obsmetrics.Metrics
}

func NewService(p Params) *Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("membership"),
		clock:      p.Clock,
		users:      p.Users,
		projection: p.Projection,
		metrics:    p.Metrics,
	}
}

// Propagate writes tier onto the user row, then mirrors it to the
// projection store. Best-effort on both targets.
func (s *Service) Propagate(ctx context.Context, userID snowflake.ID, tier userdomain.MembershipTier) {
	if err := s.users.UpdateMembershipTier(ctx, s.db, userID, tier, s.clock.Now()); err != nil {
		s.log.Error("membership tier update failed",
			zap.String("user_id", userID.String()),
			zap.String("tier", string(tier)),
			zap.Error(err),
		)
		s.metrics.RecordPropagationFailure(ctx, "primary")
		return
	}

	if s.projection == nil {
		return
	}
	if err := s.projection.SetTier(ctx, userID.String(), tier); err != nil {
		// The projection can drift until the next event for this user;
		// there is no repair sweep.
		s.log.Warn("membership tier projection write failed",
			zap.String("user_id", userID.String()),
			zap.String("tier", string(tier)),
			zap.Error(err),
		)
		s.metrics.RecordPropagationFailure(ctx, "projection")
	}
}

var Module = fx.Module("membership",
	fx.Provide(
		NewRedisClient,
		NewProjection,
		NewService,
	),
)
