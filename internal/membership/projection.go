package membership

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"
	"github.com/villageboard/villageboard/internal/config"
	userdomain "github.com/villageboard/villageboard/internal/user/domain"
	"go.uber.org/fx"
)

// Projection is the secondary persistence backend that mirrors the
// membership tier. Writes to it are best-effort.
type Projection interface {
	SetTier(ctx context.Context, userID string, tier userdomain.MembershipTier) error
}

// NewRedisClient builds the projection store client, or nil when no address
// is configured.
func NewRedisClient(lc fx.Lifecycle, cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				_ = ctx
				return client.Close()
			},
		})
	}

	return client
}

type redisProjection struct {
	client *redis.Client
}

// NewProjection wraps the redis client as the tier projection.
func NewProjection(client *redis.Client) Projection {
	if client == nil {
		return nil
	}
	return &redisProjection{client: client}
}

func (p *redisProjection) SetTier(ctx context.Context, userID string, tier userdomain.MembershipTier) error {
	key := fmt.Sprintf("membership:tier:%s", userID)
	return p.client.Set(ctx, key, string(tier), 0).Err()
}
