package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rulesiliveby/rules-api/internal/core/domain"
)

const statsCollection = "rule_stats"

// StatsRepository implements ports.StatsRepository using MongoDB. One document
// per rule holds the respected/broken counters maintained by the workers.
type StatsRepository struct {
	coll *mongo.Collection
}

func NewStatsRepository(db *mongo.Database) *StatsRepository {
	return &StatsRepository{coll: db.Collection(statsCollection)}
}

func (r *StatsRepository) Upsert(ctx context.Context, stats *domain.RuleStats) error {
	filter := bson.M{"rule_id": stats.RuleID}
	update := bson.M{"$set": bson.M{
		"rule_id":         stats.RuleID,
		"user_id":         stats.UserID,
		"respected_count": stats.RespectedCount,
		"broken_count":    stats.BrokenCount,
		"recomputed_at":   stats.RecomputedAt,
	}}

	_, err := r.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert rule stats: %w", err)
	}
	return nil
}

type statsDoc struct {
	RuleID         string    `bson:"rule_id"`
	UserID         string    `bson:"user_id"`
	RespectedCount int64     `bson:"respected_count"`
	BrokenCount    int64     `bson:"broken_count"`
	RecomputedAt   time.Time `bson:"recomputed_at"`
}

func (r *StatsRepository) TopRule(ctx context.Context, userID string, by domain.EventType) (*domain.RuleStats, error) {
	field := "respected_count"
	if by == domain.EventBroken {
		field = "broken_count"
	}

	opts := options.FindOne().SetSort(bson.D{{Key: field, Value: -1}})
	var doc statsDoc
	err := r.coll.FindOne(ctx, bson.M{"user_id": userID}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRuleNotFound
		}
		return nil, fmt.Errorf("find top rule: %w", err)
	}
	return &domain.RuleStats{
		RuleID:         doc.RuleID,
		UserID:         doc.UserID,
		RespectedCount: doc.RespectedCount,
		BrokenCount:    doc.BrokenCount,
		RecomputedAt:   doc.RecomputedAt,
	}, nil
}

func (r *StatsRepository) Totals(ctx context.Context, userID string) (int64, int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID}}},
		{{Key: "$group", Value: bson.M{
			"_id":       nil,
			"respected": bson.M{"$sum": "$respected_count"},
			"broken":    bson.M{"$sum": "$broken_count"},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, fmt.Errorf("aggregate totals: %w", err)
	}
	defer cursor.Close(ctx)

	var result struct {
		Respected int64 `bson:"respected"`
		Broken    int64 `bson:"broken"`
	}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&result); err != nil {
			return 0, 0, fmt.Errorf("decode totals: %w", err)
		}
	}
	if err := cursor.Err(); err != nil {
		return 0, 0, fmt.Errorf("aggregate totals: %w", err)
	}
	return result.Respected, result.Broken, nil
}
