// Package outbox relays committed registration events to RabbitMQ. Rows are
// written in the same transaction as the registration, so a crash between
// commit and publish only delays delivery, never loses it.
package outbox

import (
	"context"
	"time"

	"github.com/eventdesk/eventdesk/internal/adapters/pg"
	"github.com/eventdesk/eventdesk/internal/adapters/rabbit"
	"github.com/eventdesk/eventdesk/internal/observability"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	pollInterval = 5 * time.Second
	batchSize    = 10
)

type Publisher struct {
	repo      *pg.Repository
	rabbitPub *rabbit.Publisher
	logger    observability.Logger
}

func NewPublisher(repo *pg.Repository, rabbitPub *rabbit.Publisher, logger observability.Logger) *Publisher {
	return &Publisher{repo: repo, rabbitPub: rabbitPub, logger: logger}
}

func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.drain(ctx)
		}
	}
}

func (p *Publisher) drain(ctx context.Context) {
	records, err := p.repo.GetUnpublishedOutbox(ctx, batchSize)
	if err != nil {
		p.logger.Error("failed to read outbox", err)
		return
	}
	for _, rec := range records {
		msg := amqp.Publishing{
			MessageId:   rec.DedupeKey,
			ContentType: "application/json",
			Body:        rec.Payload,
		}
		if err := p.rabbitPub.Publish(ctx, rec.EventType, msg); err != nil {
			p.logger.WithField("outbox_id", rec.ID.String()).Error("failed to publish", err)
			continue
		}
		now := time.Now()
		if err := p.repo.MarkPublished(ctx, rec.ID, now); err != nil {
			p.logger.WithField("outbox_id", rec.ID.String()).Error("failed to mark published", err)
			continue
		}
		observability.OutboxLag.Set(now.Sub(rec.CreatedAt).Seconds())
	}
}
