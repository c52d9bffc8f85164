package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	appoutbox "staybook/internal/app/outbox"
	infraoutbox "staybook/internal/infra/outbox"
)

const (
	outboxStatusPending = "pending"
	outboxStatusClaimed = "claimed"
	outboxStatusSent    = "sent"
)

// OutboxStore persists event records alongside the aggregates they came
// from, so the relay worker can publish them after commit.
type OutboxStore struct {
	col *mongo.Collection
}

func NewOutboxStore(db *mongo.Database) *OutboxStore {
	return &OutboxStore{col: db.Collection("outbox")}
}

func (s *OutboxStore) Add(ctx context.Context, record appoutbox.EventRecord) error {
	doc := outboxDocument{
		ID:         record.ID,
		Name:       record.Name,
		Payload:    record.Payload,
		OccurredAt: record.OccurredAt,
		Aggregate:  record.Aggregate,
		Headers:    record.Headers,
		Status:     outboxStatusPending,
		NextAt:     time.Now(),
	}
	_, err := s.col.InsertOne(ctx, doc)
	return err
}

// Flush is a no-op: records inserted inside the transaction become visible
// on commit.
func (s *OutboxStore) Flush(ctx context.Context) error {
	return nil
}

func (s *OutboxStore) Claim(ctx context.Context, workerID string) (*infraoutbox.EventDocument, error) {
	filter := bson.M{
		"status":  bson.M{"$in": []string{outboxStatusPending, outboxStatusClaimed}},
		"next_at": bson.M{"$lte": time.Now()},
	}
	update := bson.M{"$set": bson.M{
		"status":     outboxStatusClaimed,
		"claimed_by": workerID,
		"next_at":    time.Now().Add(30 * time.Second),
	}}
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "occurred_at", Value: 1}}).
		SetReturnDocument(options.Before)

	var doc outboxDocument
	err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &infraoutbox.EventDocument{
		ID:         doc.ID,
		Name:       doc.Name,
		Payload:    doc.Payload,
		OccurredAt: doc.OccurredAt,
		Aggregate:  doc.Aggregate,
		Headers:    doc.Headers,
		Attempts:   doc.Attempts,
	}, nil
}

func (s *OutboxStore) MarkSent(ctx context.Context, id string) error {
	update := bson.M{"$set": bson.M{
		"status":  outboxStatusSent,
		"sent_at": time.Now(),
	}}
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

func (s *OutboxStore) MarkFailed(ctx context.Context, id string, retryAt time.Time, reason string) error {
	update := bson.M{
		"$set": bson.M{
			"status":     outboxStatusPending,
			"next_at":    retryAt,
			"last_error": reason,
		},
		"$inc": bson.M{"attempts": 1},
	}
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

type outboxDocument struct {
	ID         string            `bson:"_id"`
	Name       string            `bson:"name"`
	Payload    []byte            `bson:"payload"`
	OccurredAt time.Time         `bson:"occurred_at"`
	Aggregate  string            `bson:"aggregate"`
	Headers    map[string]string `bson:"headers,omitempty"`
	Status     string            `bson:"status"`
	Attempts   int               `bson:"attempts"`
	NextAt     time.Time         `bson:"next_at"`
	ClaimedBy  string            `bson:"claimed_by,omitempty"`
	SentAt     time.Time         `bson:"sent_at,omitempty"`
	LastError  string            `bson:"last_error,omitempty"`
}

var _ appoutbox.Outbox = (*OutboxStore)(nil)
var _ infraoutbox.Store = (*OutboxStore)(nil)
