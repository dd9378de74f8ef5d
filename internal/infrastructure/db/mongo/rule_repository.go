package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rulesiliveby/rules-api/internal/core/domain"
	"github.com/rulesiliveby/rules-api/internal/core/ports"
)

const rulesCollection = "rules"

// RuleRepository implements ports.RuleRepository using MongoDB.
type RuleRepository struct {
	coll *mongo.Collection
}

func NewRuleRepository(db *mongo.Database) *RuleRepository {
	return &RuleRepository{coll: db.Collection(rulesCollection)}
}

type ruleDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	UserID      string             `bson:"user_id"`
	Title       string             `bson:"title"`
	Description string             `bson:"description,omitempty"`
	Status      string             `bson:"status"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func (r *RuleRepository) Create(ctx context.Context, rule *domain.Rule) (*domain.Rule, error) {
	doc := ruleDoc{
		UserID:      rule.UserID,
		Title:       rule.Title,
		Description: rule.Description,
		Status:      string(rule.Status),
		CreatedAt:   rule.CreatedAt,
		UpdatedAt:   rule.UpdatedAt,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert rule: %w", err)
	}

	created := *rule
	created.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return &created, nil
}

func (r *RuleRepository) FindByID(ctx context.Context, id string) (*domain.Rule, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrRuleNotFound
	}

	var doc ruleDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRuleNotFound
		}
		return nil, fmt.Errorf("find rule: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *RuleRepository) List(ctx context.Context, filter ports.ListRulesFilter) ([]*domain.Rule, int64, error) {
	query := bson.M{"user_id": filter.UserID}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}
	if createdAt := rangeFilter(filter.From, filter.To); len(createdAt) > 0 {
		query["created_at"] = createdAt
	}

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count rules: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((filter.Page - 1) * filter.Size)).
		SetLimit(int64(filter.Size))

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list rules: %w", err)
	}
	defer cursor.Close(ctx)

	var rules []*domain.Rule
	for cursor.Next(ctx) {
		var doc ruleDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, fmt.Errorf("decode rule: %w", err)
		}
		rules = append(rules, doc.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("list rules: %w", err)
	}
	return rules, total, nil
}

func (r *RuleRepository) Update(ctx context.Context, id string, patch ports.RulePatch) (*domain.Rule, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	return r.findOneAndSet(ctx, id, set)
}

func (r *RuleRepository) SetStatus(ctx context.Context, id string, status domain.RuleStatus) (*domain.Rule, error) {
	return r.findOneAndSet(ctx, id, bson.M{
		"status":     string(status),
		"updated_at": time.Now().UTC(),
	})
}

func (r *RuleRepository) findOneAndSet(ctx context.Context, id string, set bson.M) (*domain.Rule, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrRuleNotFound
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc ruleDoc
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRuleNotFound
		}
		return nil, fmt.Errorf("update rule: %w", err)
	}
	return doc.toDomain(), nil
}

// EnsureIndexes creates the query indexes on the rules collection.
func (r *RuleRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}

// rangeFilter builds an optional time range condition; empty bounds are skipped.
func rangeFilter(from, to time.Time) bson.M {
	cond := bson.M{}
	if !from.IsZero() {
		cond["$gte"] = from
	}
	if !to.IsZero() {
		cond["$lte"] = to
	}
	return cond
}

func (d *ruleDoc) toDomain() *domain.Rule {
	return &domain.Rule{
		ID:          d.ID.Hex(),
		UserID:      d.UserID,
		Title:       d.Title,
		Description: d.Description,
		Status:      domain.RuleStatus(d.Status),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}
