package selector

import (
	"context"
	"fmt"
	"sort"

	"daily-tips/internal/models"
)

type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// TierOf derives a user's plan. Admins stand in for premium until billing
// exists.
func TierOf(user models.User) Tier {
	if user.IsAdmin {
		return TierPremium
	}
	return TierFree
}

// PlanLimits are the quotas applied per tier.
type PlanLimits struct {
	FreeTopicLimit int
	FreePerTopic   int
	MaxPerTopic    int
}

func DefaultPlanLimits() PlanLimits {
	return PlanLimits{FreeTopicLimit: 3, FreePerTopic: 1, MaxPerTopic: 5}
}

// Policy reshapes a request to what the user's plan allows. Asking for more
// than allowed is clamped, never rejected.
type Policy struct {
	topics TopicStore
	limits PlanLimits
}

func NewPolicy(topics TopicStore, limits PlanLimits) *Policy {
	return &Policy{topics: topics, limits: limits}
}

// Apply returns the topics to serve and the number of tips per topic.
func (p *Policy) Apply(ctx context.Context, user models.User, requestedPerTopic int) ([]models.Topic, int, error) {
	topics, err := p.topics.SubscribedTopics(ctx, user.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("load subscribed topics: %w", err)
	}

	if TierOf(user) == TierPremium {
		return topics, clamp(requestedPerTopic, 1, p.limits.MaxPerTopic), nil
	}

	allowed := make([]models.Topic, len(topics))
	copy(allowed, topics)
	sort.SliceStable(allowed, func(i, j int) bool {
		if allowed[i].Name != allowed[j].Name {
			return allowed[i].Name < allowed[j].Name
		}
		return allowed[i].Slug < allowed[j].Slug
	})
	if lim := max(0, p.limits.FreeTopicLimit); len(allowed) > lim {
		allowed = allowed[:lim]
	}
	return allowed, max(1, p.limits.FreePerTopic), nil
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
