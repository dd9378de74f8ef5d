package ports

import (
	"context"
	"time"

	"github.com/rulesiliveby/rules-api/internal/core/domain"
)

// CreateEventInput is the DTO passed from the transport layer when logging an
// event against a rule. OccurredAt is set server-side.
type CreateEventInput struct {
	UserID  string
	RuleID  string
	Type    domain.EventType
	Context string
	Emotion string
	Note    string
}

// RuleEventDetail is an event together with its rule, as returned by Get.
type RuleEventDetail struct {
	Event *domain.RuleEvent
	Rule  *domain.Rule
}

// ListEventsInput carries all parameters for the event list endpoint.
type ListEventsInput struct {
	UserID string
	RuleID string
	Type   string
	From   time.Time
	To     time.Time
	Page   int
	Size   int
}

// ListEventsResult is a page of events plus pagination metadata.
type ListEventsResult struct {
	Items      []*domain.RuleEvent
	Total      int64
	Page       int
	Size       int
	TotalPages int
}

// RuleEventService defines use-case operations for rule events, owner-scoped
// like RuleService.
type RuleEventService interface {
	Create(ctx context.Context, input CreateEventInput) (*domain.RuleEvent, error)
	Get(ctx context.Context, userID, id string) (*RuleEventDetail, error)
	List(ctx context.Context, input ListEventsInput) (*ListEventsResult, error)
	Update(ctx context.Context, userID, id string, patch EventPatch) (*domain.RuleEvent, error)
}
