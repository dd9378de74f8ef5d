package service

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/rulesiliveby/rules-api/internal/api/metrics"
	"github.com/rulesiliveby/rules-api/internal/core/domain"
	"github.com/rulesiliveby/rules-api/internal/core/ports"
)

// StatsService serves the aggregated statistics endpoints and, as
// ports.StatsUpdater, recomputes per-rule counters for the worker pool.
type StatsService struct {
	rules  ports.RuleRepository
	events ports.RuleEventRepository
	stats  ports.StatsRepository
	cache  ports.StatsCache
	log    zerolog.Logger
}

func NewStatsService(
	rules ports.RuleRepository,
	events ports.RuleEventRepository,
	stats ports.StatsRepository,
	cache ports.StatsCache,
	log zerolog.Logger,
) *StatsService {
	return &StatsService{rules: rules, events: events, stats: stats, cache: cache, log: log}
}

// Recompute recounts one rule's events and upserts its counter document.
// The dashboard cache for the owner is invalidated afterwards.
func (s *StatsService) Recompute(ctx context.Context, job ports.StatsJob) error {
	start := time.Now()

	respected, broken, err := s.events.CountByType(ctx, job.RuleID)
	if err != nil {
		metrics.StatsRecomputeDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return err
	}

	err = s.stats.Upsert(ctx, &domain.RuleStats{
		RuleID:         job.RuleID,
		UserID:         job.UserID,
		RespectedCount: respected,
		BrokenCount:    broken,
		RecomputedAt:   time.Now().UTC(),
	})
	if err != nil {
		metrics.StatsRecomputeDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return err
	}

	if err := s.cache.Invalidate(ctx, job.UserID); err != nil {
		s.log.Warn().Err(err).Str("user_id", job.UserID).Msg("failed to invalidate stats cache")
	}

	metrics.StatsRecomputeDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	return nil
}

// RespectedRate returns the share of respected events in percent.
func (s *StatsService) RespectedRate(ctx context.Context, userID string) (float64, error) {
	respected, broken, err := s.stats.Totals(ctx, userID)
	if err != nil {
		return 0, err
	}
	total := respected + broken
	if total == 0 {
		return 0, domain.ErrNoEvents
	}
	ratio := math.Round(float64(respected)/float64(total)*100) / 100
	return ratio * 100, nil
}

func (s *StatsService) MostBroken(ctx context.Context, userID string) (*domain.Rule, error) {
	return s.topRule(ctx, userID, domain.EventBroken)
}

func (s *StatsService) MostRespected(ctx context.Context, userID string) (*domain.Rule, error) {
	return s.topRule(ctx, userID, domain.EventRespected)
}

func (s *StatsService) topRule(ctx context.Context, userID string, by domain.EventType) (*domain.Rule, error) {
	top, err := s.stats.TopRule(ctx, userID, by)
	if err != nil {
		return nil, err
	}
	return s.rules.FindByID(ctx, top.RuleID)
}

// Dashboard assembles the combined stats view, served from the cache when a
// fresh entry exists.
func (s *StatsService) Dashboard(ctx context.Context, userID string) (*ports.DashboardStats, error) {
	cached, err := s.cache.Get(ctx, userID)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("stats cache read failed")
	} else if cached != nil {
		return cached, nil
	}

	rate, err := s.RespectedRate(ctx, userID)
	if err != nil {
		return nil, err
	}
	mostBroken, err := s.MostBroken(ctx, userID)
	if err != nil {
		return nil, err
	}
	mostRespected, err := s.MostRespected(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &ports.DashboardStats{
		RespectedRate: rate,
		MostBroken:    mostBroken,
		MostRespected: mostRespected,
	}

	if err := s.cache.Set(ctx, userID, stats); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("failed to cache dashboard stats")
	}
	return stats, nil
}
