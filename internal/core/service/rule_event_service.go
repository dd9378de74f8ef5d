package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/rulesiliveby/rules-api/internal/api/metrics"
	"github.com/rulesiliveby/rules-api/internal/core/domain"
	"github.com/rulesiliveby/rules-api/internal/core/ports"
)

// StatsEnqueuer hands recompute jobs to the worker pool.
type StatsEnqueuer interface {
	Enqueue(job ports.StatsJob)
}

type RuleEventService struct {
	events ports.RuleEventRepository
	rules  ports.RuleRepository
	stats  StatsEnqueuer
	log    zerolog.Logger
}

func NewRuleEventService(
	events ports.RuleEventRepository,
	rules ports.RuleRepository,
	stats StatsEnqueuer,
	log zerolog.Logger,
) *RuleEventService {
	return &RuleEventService{events: events, rules: rules, stats: stats, log: log}
}

func (s *RuleEventService) Create(ctx context.Context, input ports.CreateEventInput) (*domain.RuleEvent, error) {
	rule, err := s.rules.FindByID(ctx, input.RuleID)
	if err != nil {
		return nil, err
	}
	if rule.UserID != input.UserID {
		return nil, domain.ErrForbidden
	}
	if rule.Status == domain.RuleStatusArchived {
		return nil, domain.ErrRuleArchived
	}

	event, err := s.events.Create(ctx, &domain.RuleEvent{
		UserID:     input.UserID,
		RuleID:     input.RuleID,
		Type:       input.Type,
		Context:    input.Context,
		Emotion:    input.Emotion,
		Note:       input.Note,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		s.log.Error().Err(err).Str("rule_id", input.RuleID).Msg("failed to record event")
		return nil, err
	}

	metrics.EventsRecordedTotal.WithLabelValues(string(event.Type)).Inc()
	s.stats.Enqueue(ports.StatsJob{UserID: event.UserID, RuleID: event.RuleID})

	s.log.Info().
		Str("event_id", event.ID).
		Str("rule_id", event.RuleID).
		Str("type", string(event.Type)).
		Msg("event recorded")
	return event, nil
}

func (s *RuleEventService) Get(ctx context.Context, userID, id string) (*ports.RuleEventDetail, error) {
	event, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	rule, err := s.rules.FindByID(ctx, event.RuleID)
	if err != nil {
		return nil, err
	}
	return &ports.RuleEventDetail{Event: event, Rule: rule}, nil
}

func (s *RuleEventService) List(ctx context.Context, input ports.ListEventsInput) (*ports.ListEventsResult, error) {
	page, size := normalizePage(input.Page, input.Size)

	filter := ports.ListEventsFilter{
		UserID: input.UserID,
		RuleID: input.RuleID,
		Type:   domain.EventType(input.Type),
		From:   input.From,
		To:     input.To,
		Page:   page,
		Size:   size,
	}

	items, total, err := s.events.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &ports.ListEventsResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Size:       size,
		TotalPages: totalPages(total, size),
	}, nil
}

func (s *RuleEventService) Update(ctx context.Context, userID, id string, patch ports.EventPatch) (*domain.RuleEvent, error) {
	if _, err := s.getOwned(ctx, userID, id); err != nil {
		return nil, err
	}
	event, err := s.events.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	// A type change shifts the respected/broken balance; recount either way.
	s.stats.Enqueue(ports.StatsJob{UserID: event.UserID, RuleID: event.RuleID})
	return event, nil
}

func (s *RuleEventService) getOwned(ctx context.Context, userID, id string) (*domain.RuleEvent, error) {
	event, err := s.events.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return event, nil
}
