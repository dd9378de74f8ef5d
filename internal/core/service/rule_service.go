package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/rulesiliveby/rules-api/internal/core/domain"
	"github.com/rulesiliveby/rules-api/internal/core/ports"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type RuleService struct {
	repo ports.RuleRepository
	log  zerolog.Logger
}

func NewRuleService(repo ports.RuleRepository, log zerolog.Logger) *RuleService {
	return &RuleService{repo: repo, log: log}
}

func (s *RuleService) Create(ctx context.Context, input ports.CreateRuleInput) (*domain.Rule, error) {
	now := time.Now().UTC()
	rule, err := s.repo.Create(ctx, &domain.Rule{
		UserID:      input.UserID,
		Title:       input.Title,
		Description: input.Description,
		Status:      domain.RuleStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("failed to create rule")
		return nil, err
	}
	s.log.Info().Str("rule_id", rule.ID).Str("user_id", rule.UserID).Msg("rule created")
	return rule, nil
}

func (s *RuleService) Get(ctx context.Context, userID, id string) (*domain.Rule, error) {
	return s.getOwned(ctx, userID, id)
}

func (s *RuleService) List(ctx context.Context, input ports.ListRulesInput) (*ports.ListRulesResult, error) {
	page, size := normalizePage(input.Page, input.Size)

	filter := ports.ListRulesFilter{
		UserID: input.UserID,
		Status: domain.RuleStatus(input.Status),
		From:   input.From,
		To:     input.To,
		Page:   page,
		Size:   size,
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &ports.ListRulesResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Size:       size,
		TotalPages: totalPages(total, size),
	}, nil
}

func (s *RuleService) Update(ctx context.Context, userID, id string, patch ports.RulePatch) (*domain.Rule, error) {
	if _, err := s.getOwned(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, patch)
}

func (s *RuleService) Archive(ctx context.Context, userID, id string) (*domain.Rule, error) {
	if _, err := s.getOwned(ctx, userID, id); err != nil {
		return nil, err
	}
	rule, err := s.repo.SetStatus(ctx, id, domain.RuleStatusArchived)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("rule_id", id).Msg("rule archived")
	return rule, nil
}

// getOwned loads a rule and enforces owner-only access.
func (s *RuleService) getOwned(ctx context.Context, userID, id string) (*domain.Rule, error) {
	rule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rule.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return rule, nil
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

func totalPages(total int64, size int) int {
	if total == 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}
