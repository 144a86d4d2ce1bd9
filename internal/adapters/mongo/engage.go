package mongo

import (
	"context"
	"time"

	"github.com/eventdesk/eventdesk/internal/observability"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EngageRepository stores comments and feedback. Feedback uniqueness per
// (user, event) is backed by a compound index created at startup.
type EngageRepository struct {
	comments  *mongo.Collection
	feedbacks *mongo.Collection
	logger    observability.Logger
}

func NewEngageRepository(db *mongo.Database, logger observability.Logger) *EngageRepository {
	return &EngageRepository{
		comments:  db.Collection("comments"),
		feedbacks: db.Collection("feedbacks"),
		logger:    logger,
	}
}

// EnsureIndexes creates the feedback uniqueness index. Idempotent.
func (e *EngageRepository) EnsureIndexes(ctx context.Context) error {
	_, err := e.feedbacks.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "event_id", Value: 1}, {Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

type CommentDoc struct {
	ID         string    `bson:"_id"`
	EventID    string    `bson:"event_id"`
	AuthorID   string    `bson:"author_id"`
	AuthorName string    `bson:"author_name"`
	Text       string    `bson:"text"`
	CreatedAt  time.Time `bson:"created_at"`
}

type FeedbackDoc struct {
	ID        string    `bson:"_id"`
	EventID   string    `bson:"event_id"`
	UserID    string    `bson:"user_id"`
	Rating    int       `bson:"rating"`
	Comment   string    `bson:"comment,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

func (e *EngageRepository) InsertComment(ctx context.Context, doc CommentDoc) (CommentDoc, error) {
	doc.ID = uuid.NewString()
	doc.CreatedAt = time.Now()
	if _, err := e.comments.InsertOne(ctx, doc); err != nil {
		e.logger.Error("failed to insert comment", err)
		return CommentDoc{}, err
	}
	return doc, nil
}

func (e *EngageRepository) ListComments(ctx context.Context, eventID string) ([]CommentDoc, error) {
	cursor, err := e.comments.Find(ctx, bson.M{"event_id": eventID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []CommentDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// InsertFeedback returns mongo.IsDuplicateKeyError-compatible errors when the
// user already rated the event.
func (e *EngageRepository) InsertFeedback(ctx context.Context, doc FeedbackDoc) (FeedbackDoc, error) {
	doc.ID = uuid.NewString()
	doc.CreatedAt = time.Now()
	if _, err := e.feedbacks.InsertOne(ctx, doc); err != nil {
		return FeedbackDoc{}, err
	}
	return doc, nil
}

func (e *EngageRepository) ListFeedback(ctx context.Context, eventID string) ([]FeedbackDoc, error) {
	cursor, err := e.feedbacks.Find(ctx, bson.M{"event_id": eventID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []FeedbackDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// GetFeedback returns the user's feedback for an event, or
// mongo.ErrNoDocuments when none was submitted.
func (e *EngageRepository) GetFeedback(ctx context.Context, eventID, userID string) (FeedbackDoc, error) {
	var doc FeedbackDoc
	err := e.feedbacks.FindOne(ctx, bson.M{"event_id": eventID, "user_id": userID}).Decode(&doc)
	if err != nil {
		return FeedbackDoc{}, err
	}
	return doc, nil
}

// HasFeedback reports whether the user already rated the event.
func (e *EngageRepository) HasFeedback(ctx context.Context, eventID, userID string) (bool, error) {
	err := e.feedbacks.FindOne(ctx, bson.M{"event_id": eventID, "user_id": userID}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
