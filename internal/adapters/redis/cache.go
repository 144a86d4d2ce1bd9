package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Client() *redis.Client {
	return c.client
}

// PendingSession is a checkout session waiting for the provider redirect.
// Parked with a TTL; an abandoned checkout simply expires.
type PendingSession struct {
	EventID    string `json:"event_id"`
	PriceCents int64  `json:"price_cents"`
}

func (c *Cache) SavePaymentSession(ctx context.Context, sessionID string, sess PendingSession, ttl time.Duration) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "paysession:"+sessionID, data, ttl).Err()
}

// GetPaymentSession returns the parked session, or found=false when the id is
// unknown or expired.
func (c *Cache) GetPaymentSession(ctx context.Context, sessionID string) (PendingSession, bool, error) {
	val, err := c.client.Get(ctx, "paysession:"+sessionID).Bytes()
	if err == redis.Nil {
		return PendingSession{}, false, nil
	}
	if err != nil {
		return PendingSession{}, false, err
	}
	var sess PendingSession
	if err := json.Unmarshal(val, &sess); err != nil {
		return PendingSession{}, false, err
	}
	return sess, true, nil
}
