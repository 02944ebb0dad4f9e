package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/chatrelay/chat-system/internal/core/domain"
)

const messageCollection = "messages"

// MessageRepository implements ports.MessageRepository on MongoDB. The
// messages collection is append-only; the broadcaster treats Insert failure
// as non-fatal.
type MessageRepository struct {
	coll *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{coll: db.Collection(messageCollection)}
}

func (r *MessageRepository) Insert(ctx context.Context, msg *domain.ChatMessage) error {
	doc := bson.M{
		"sender":    msg.Sender,
		"content":   msg.Content,
		"timestamp": msg.Timestamp.UTC(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

type mongoMessage struct {
	Sender    string    `bson:"sender"`
	Content   string    `bson:"content"`
	Timestamp time.Time `bson:"timestamp"`
}

// Recent returns the latest limit messages in chronological order.
func (r *MessageRepository) Recent(ctx context.Context, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		return nil, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find messages: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoMessage
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}

	// Reverse the newest-first sort so callers replay oldest to newest.
	out := make([]domain.ChatMessage, len(docs))
	for i, d := range docs {
		out[len(docs)-1-i] = domain.ChatMessage{
			Sender:    d.Sender,
			Content:   d.Content,
			Timestamp: d.Timestamp.UTC(),
		}
	}
	return out, nil
}
