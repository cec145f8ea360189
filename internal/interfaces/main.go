package interfaces

import (
	"context"

	"github.com/go-redis/redis_rate/v10"

	"apexearn/internal/models"
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) error
}

// Shortener turns a destination link into a monetized short link. Any
// failure falls back to the original url; task creation never fails because
// a provider is down.
type Shortener interface {
	Shorten(ctx context.Context, originalURL string, provider models.Provider) string
}

// MembershipChecker gates task access on force-join channel membership.
// Implementations fail closed: an error means "not a member".
type MembershipChecker interface {
	IsMember(ctx context.Context, userID int64) bool
}
