package ports

import (
	"context"
	"time"

	"github.com/rulesiliveby/rules-api/internal/core/domain"
)

// CreateRuleInput carries the data needed to create a rule.
type CreateRuleInput struct {
	UserID      string
	Title       string
	Description string
}

// ListRulesInput carries all parameters for the rule list endpoint.
type ListRulesInput struct {
	UserID string
	Status string
	From   time.Time
	To     time.Time
	Page   int
	Size   int
}

// ListRulesResult is a page of rules plus pagination metadata.
type ListRulesResult struct {
	Items      []*domain.Rule
	Total      int64
	Page       int
	Size       int
	TotalPages int
}

// RuleService defines use-case operations for rules. All operations are
// scoped to the authenticated user; touching another user's rule fails with
// domain.ErrForbidden.
type RuleService interface {
	Create(ctx context.Context, input CreateRuleInput) (*domain.Rule, error)
	Get(ctx context.Context, userID, id string) (*domain.Rule, error)
	List(ctx context.Context, input ListRulesInput) (*ListRulesResult, error)
	Update(ctx context.Context, userID, id string, patch RulePatch) (*domain.Rule, error)
	Archive(ctx context.Context, userID, id string) (*domain.Rule, error)
}
