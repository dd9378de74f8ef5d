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

const eventsCollection = "rule_events"

// RuleEventRepository implements ports.RuleEventRepository using MongoDB.
type RuleEventRepository struct {
	coll *mongo.Collection
}

func NewRuleEventRepository(db *mongo.Database) *RuleEventRepository {
	return &RuleEventRepository{coll: db.Collection(eventsCollection)}
}

type eventDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	UserID     string             `bson:"user_id"`
	RuleID     string             `bson:"rule_id"`
	Type       string             `bson:"type"`
	Context    string             `bson:"context,omitempty"`
	Emotion    string             `bson:"emotion,omitempty"`
	Note       string             `bson:"note,omitempty"`
	OccurredAt time.Time          `bson:"occurred_at"`
}

func (r *RuleEventRepository) Create(ctx context.Context, event *domain.RuleEvent) (*domain.RuleEvent, error) {
	doc := eventDoc{
		UserID:     event.UserID,
		RuleID:     event.RuleID,
		Type:       string(event.Type),
		Context:    event.Context,
		Emotion:    event.Emotion,
		Note:       event.Note,
		OccurredAt: event.OccurredAt,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}

	created := *event
	created.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return &created, nil
}

func (r *RuleEventRepository) FindByID(ctx context.Context, id string) (*domain.RuleEvent, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrEventNotFound
	}

	var doc eventDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("find event: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *RuleEventRepository) List(ctx context.Context, filter ports.ListEventsFilter) ([]*domain.RuleEvent, int64, error) {
	query := bson.M{"user_id": filter.UserID}
	if filter.RuleID != "" {
		query["rule_id"] = filter.RuleID
	}
	if filter.Type != "" {
		query["type"] = string(filter.Type)
	}
	if occurredAt := rangeFilter(filter.From, filter.To); len(occurredAt) > 0 {
		query["occurred_at"] = occurredAt
	}

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "occurred_at", Value: -1}}).
		SetSkip(int64((filter.Page - 1) * filter.Size)).
		SetLimit(int64(filter.Size))

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*domain.RuleEvent
	for cursor.Next(ctx) {
		var doc eventDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, fmt.Errorf("decode event: %w", err)
		}
		events = append(events, doc.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	return events, total, nil
}

func (r *RuleEventRepository) Update(ctx context.Context, id string, patch ports.EventPatch) (*domain.RuleEvent, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrEventNotFound
	}

	set := bson.M{}
	if patch.Type != nil {
		set["type"] = string(*patch.Type)
	}
	if patch.Context != nil {
		set["context"] = *patch.Context
	}
	if patch.Emotion != nil {
		set["emotion"] = *patch.Emotion
	}
	if patch.Note != nil {
		set["note"] = *patch.Note
	}
	if len(set) == 0 {
		return r.FindByID(ctx, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc eventDoc
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return doc.toDomain(), nil
}

// CountByType tallies the rule's events per type for the stats workers.
func (r *RuleEventRepository) CountByType(ctx context.Context, ruleID string) (int64, int64, error) {
	respected, err := r.coll.CountDocuments(ctx, bson.M{
		"rule_id": ruleID,
		"type":    string(domain.EventRespected),
	})
	if err != nil {
		return 0, 0, fmt.Errorf("count respected: %w", err)
	}

	broken, err := r.coll.CountDocuments(ctx, bson.M{
		"rule_id": ruleID,
		"type":    string(domain.EventBroken),
	})
	if err != nil {
		return 0, 0, fmt.Errorf("count broken: %w", err)
	}
	return respected, broken, nil
}

// EnsureIndexes creates the query indexes on the rule_events collection.
func (r *RuleEventRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "occurred_at", Value: -1}}},
		{Keys: bson.D{{Key: "rule_id", Value: 1}, {Key: "type", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}

func (d *eventDoc) toDomain() *domain.RuleEvent {
	return &domain.RuleEvent{
		ID:         d.ID.Hex(),
		UserID:     d.UserID,
		RuleID:     d.RuleID,
		Type:       domain.EventType(d.Type),
		Context:    d.Context,
		Emotion:    d.Emotion,
		Note:       d.Note,
		OccurredAt: d.OccurredAt,
	}
}
