package domain

import (
	"errors"
	"time"
)

// EventType says whether the user respected or broke a rule.
type EventType string

const (
	EventRespected EventType = "respected"
	EventBroken    EventType = "broken"
)

var (
	ErrEventNotFound = errors.New("rule event not found")
	ErrNoEvents      = errors.New("no events recorded")
)

// RuleEvent is one logged occurrence against a rule.
type RuleEvent struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	RuleID     string    `json:"rule_id"`
	Type       EventType `json:"type"`
	Context    string    `json:"context,omitempty"`
	Emotion    string    `json:"emotion,omitempty"`
	Note       string    `json:"note,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
