package ports

import (
	"context"
	"time"

	"github.com/rulesiliveby/rules-api/internal/core/domain"
)

// ListRulesFilter carries all query parameters for listing rules.
// UserID is always set by the service layer (owner scoping).
type ListRulesFilter struct {
	UserID string
	Status domain.RuleStatus // optional: filter by lifecycle status
	From   time.Time         // optional: created_at >= From
	To     time.Time         // optional: created_at <= To
	Page   int               // 1-based
	Size   int               // rows per page (capped by service)
}

// RulePatch is a partial rule update; nil fields are left untouched.
type RulePatch struct {
	Title       *string
	Description *string
}

// RuleRepository defines persistence operations for rules.
type RuleRepository interface {
	Create(ctx context.Context, rule *domain.Rule) (*domain.Rule, error)
	FindByID(ctx context.Context, id string) (*domain.Rule, error)
	// List returns a page of rules matching filter and the total count.
	List(ctx context.Context, filter ListRulesFilter) ([]*domain.Rule, int64, error)
	Update(ctx context.Context, id string, patch RulePatch) (*domain.Rule, error)
	SetStatus(ctx context.Context, id string, status domain.RuleStatus) (*domain.Rule, error)
}
