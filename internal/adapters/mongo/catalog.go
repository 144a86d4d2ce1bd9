// Package mongo holds the event catalog and the engagement collections. The
// attendee set itself lives in Postgres; documents here carry catalog metadata
// only.
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

type CatalogRepository struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewCatalogRepository(db *mongo.Database, logger observability.Logger) *CatalogRepository {
	return &CatalogRepository{
		coll:   db.Collection("events"),
		logger: logger,
	}
}

type EventDoc struct {
	ID          string    `bson:"_id"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
	Location    string    `bson:"location"`
	Date        time.Time `bson:"date"`
	PriceCents  int64     `bson:"price_cents"`
	ImageURL    string    `bson:"image_url,omitempty"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func (c *CatalogRepository) CreateEvent(ctx context.Context, event EventDoc) (EventDoc, error) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt
	if _, err := c.coll.InsertOne(ctx, event); err != nil {
		c.logger.Error("failed to create event", err)
		return EventDoc{}, err
	}
	return event, nil
}

func (c *CatalogRepository) GetEvent(ctx context.Context, id string) (*EventDoc, error) {
	var event EventDoc
	err := c.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&event)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (c *CatalogRepository) ListEvents(ctx context.Context) ([]EventDoc, error) {
	cursor, err := c.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		c.logger.Error("failed to list events", err)
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []EventDoc
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// ListEventsByID fetches the given events, preserving existence only (order is
// not guaranteed).
func (c *CatalogRepository) ListEventsByID(ctx context.Context, ids []string) ([]EventDoc, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cursor, err := c.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []EventDoc
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
