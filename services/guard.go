package services

import (
	"context"

	"github.com/rpupo63/portfolio-cms/auth"
	"github.com/rpupo63/portfolio-cms/ratelimit"
)

// Guard admits a mutating operation: the actor must hold one of the roles and
// be within its rate limit. Roles are checked before the limiter is consulted.
type Guard struct {
	limiter ratelimit.Limiter
}

func NewGuard(limiter ratelimit.Limiter) Guard {
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	return Guard{limiter: limiter}
}

// RateLimitKey is the limiter key of an actor.
func RateLimitKey(actor auth.Actor) string {
	return "admin:" + actor.ID
}

func (g Guard) Check(ctx context.Context, roles ...auth.Role) (auth.Actor, error) {
	actor, err := auth.Require(ctx, roles...)
	if err != nil {
		return auth.Actor{}, err
	}
	if err := g.limiter.Allow(ctx, RateLimitKey(actor)); err != nil {
		return auth.Actor{}, err
	}
	return actor, nil
}
