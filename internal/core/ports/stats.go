package ports

import (
	"context"

	"github.com/rulesiliveby/rules-api/internal/core/domain"
)

// StatsJob asks the workers to recompute one rule's event counters.
type StatsJob struct {
	UserID string
	RuleID string
}

// StatsUpdater is what the queue dispatcher drives.
type StatsUpdater interface {
	Recompute(ctx context.Context, job StatsJob) error
}

// StatsRepository persists the per-rule counters.
type StatsRepository interface {
	Upsert(ctx context.Context, stats *domain.RuleStats) error
	// TopRule returns the user's rule stats with the highest counter of the
	// given event type, or domain.ErrRuleNotFound when the user has none.
	TopRule(ctx context.Context, userID string, by domain.EventType) (*domain.RuleStats, error)
	// Totals sums the user's counters across all rules.
	Totals(ctx context.Context, userID string) (respected, broken int64, err error)
}

// DashboardStats is the aggregated view served to the dashboard.
type DashboardStats struct {
	RespectedRate float64      `json:"respected_rate"`
	MostBroken    *domain.Rule `json:"most_broken,omitempty"`
	MostRespected *domain.Rule `json:"most_respected,omitempty"`
}

// StatsCache is the read-through cache for dashboard payloads.
// Get returns (nil, nil) on a miss.
type StatsCache interface {
	Get(ctx context.Context, userID string) (*DashboardStats, error)
	Set(ctx context.Context, userID string, stats *DashboardStats) error
	Invalidate(ctx context.Context, userID string) error
}

// StatsService serves the aggregated statistics endpoints.
type StatsService interface {
	RespectedRate(ctx context.Context, userID string) (float64, error)
	MostBroken(ctx context.Context, userID string) (*domain.Rule, error)
	MostRespected(ctx context.Context, userID string) (*domain.Rule, error)
	Dashboard(ctx context.Context, userID string) (*DashboardStats, error)
}
