package domain

import (
	"errors"
	"time"
)

// RuleStatus is the lifecycle state of a rule. Archived rules stay readable
// but are excluded from active listings and stop accepting new events.
type RuleStatus string

const (
	RuleStatusActive   RuleStatus = "active"
	RuleStatusArchived RuleStatus = "archived"
)

var (
	ErrRuleNotFound = errors.New("rule not found")
	ErrRuleArchived = errors.New("rule is archived")
	ErrForbidden    = errors.New("access forbidden")
)

// Rule is a personal rule a user tracks events against.
type Rule struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      RuleStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// RuleStats holds the per-rule event counters maintained asynchronously by
// the stats workers.
type RuleStats struct {
	RuleID         string    `json:"rule_id"`
	UserID         string    `json:"user_id"`
	RespectedCount int64     `json:"respected_count"`
	BrokenCount    int64     `json:"broken_count"`
	RecomputedAt   time.Time `json:"recomputed_at"`
}
