package ports

import (
	"context"
	"time"

	"github.com/rulesiliveby/rules-api/internal/core/domain"
)

// ListEventsFilter carries all query parameters for listing rule events.
type ListEventsFilter struct {
	UserID string
	RuleID string           // optional: scope to one rule
	Type   domain.EventType // optional: respected or broken
	From   time.Time        // optional: occurred_at >= From
	To     time.Time        // optional: occurred_at <= To
	Page   int
	Size   int
}

// EventPatch is a partial rule-event update; nil fields are left untouched.
type EventPatch struct {
	Type    *domain.EventType
	Context *string
	Emotion *string
	Note    *string
}

// RuleEventRepository defines persistence operations for rule events.
type RuleEventRepository interface {
	Create(ctx context.Context, event *domain.RuleEvent) (*domain.RuleEvent, error)
	FindByID(ctx context.Context, id string) (*domain.RuleEvent, error)
	List(ctx context.Context, filter ListEventsFilter) ([]*domain.RuleEvent, int64, error)
	Update(ctx context.Context, id string, patch EventPatch) (*domain.RuleEvent, error)
	// CountByType tallies the rule's events per type, used by the stats
	// workers to recompute counters.
	CountByType(ctx context.Context, ruleID string) (respected, broken int64, err error)
}
