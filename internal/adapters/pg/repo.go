// Package pg stores attendee membership and confirmation dedup state. Both
// invariants live in unique constraints: one row per (event, user), one
// confirmation per correlation id.
package pg

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/eventdesk/eventdesk/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

const (
	SerializationFailureCode = "40001"
)

var ErrSerializationFailure = errors.New("serialization failure")

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, "SET TRANSACTION ISOLATION LEVEL SERIALIZABLE")
	if err != nil {
		return err
	}

	err = fn(tx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == SerializationFailureCode {
			return ErrSerializationFailure
		}
		return err
	}

	return tx.Commit(ctx)
}

// InsertConfirmation claims a correlation id. Returns false when the id was
// already claimed, which marks the call as a replay of an applied confirmation.
func (r *Repository) InsertConfirmation(ctx context.Context, tx pgx.Tx, correlationID, eventID, userID string) (bool, error) {
	result, err := tx.Exec(ctx, `
		INSERT INTO confirmations (correlation_id, event_id, user_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (correlation_id) DO NOTHING
	`, correlationID, eventID, userID)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() == 1, nil
}

// SetConfirmationCount records the attendee count the confirmation produced so
// replays can return the same number.
func (r *Repository) SetConfirmationCount(ctx context.Context, tx pgx.Tx, correlationID string, count int) error {
	_, err := tx.Exec(ctx, `
		UPDATE confirmations SET attendee_count = $2 WHERE correlation_id = $1
	`, correlationID, count)
	return err
}

// ConfirmationCount returns the recorded count for an applied confirmation.
func (r *Repository) ConfirmationCount(ctx context.Context, correlationID string) (int, error) {
	var count *int
	err := r.pool.QueryRow(ctx, `
		SELECT attendee_count FROM confirmations WHERE correlation_id = $1
	`, correlationID).Scan(&count)
	if err == pgx.ErrNoRows {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	if count == nil {
		return 0, domain.ErrNotFound
	}
	return *count, nil
}

// AddAttendee appends the user to the event's attendee set. The primary key
// on (event_id, user_id) makes a duplicate a domain.ErrConflict.
func (r *Repository) AddAttendee(ctx context.Context, tx pgx.Tx, eventID, userID string) error {
	result, err := tx.Exec(ctx, `
		INSERT INTO attendees (event_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (event_id, user_id) DO NOTHING
	`, eventID, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *Repository) CountAttendees(ctx context.Context, tx pgx.Tx, eventID string) (int, error) {
	var count int
	err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM attendees WHERE event_id = $1
	`, eventID).Scan(&count)
	return count, err
}

// AttendeeTotal counts attendees outside a transaction.
func (r *Repository) AttendeeTotal(ctx context.Context, eventID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM attendees WHERE event_id = $1
	`, eventID).Scan(&count)
	return count, err
}

func (r *Repository) IsAttendee(ctx context.Context, eventID, userID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM attendees WHERE event_id = $1 AND user_id = $2)
	`, eventID, userID).Scan(&exists)
	return exists, err
}

// Attendees loads the attendee sets for a batch of events.
func (r *Repository) Attendees(ctx context.Context, eventIDs []string) (map[string][]string, error) {
	out := make(map[string][]string, len(eventIDs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, id := range eventIDs {
		id := id
		g.Go(func() error {
			rows, err := r.pool.Query(gctx, `
				SELECT user_id FROM attendees WHERE event_id = $1 ORDER BY created_at
			`, id)
			if err != nil {
				return err
			}
			defer rows.Close()

			var users []string
			for rows.Next() {
				var u string
				if err := rows.Scan(&u); err != nil {
					return err
				}
				users = append(users, u)
			}
			mu.Lock()
			out[id] = users
			mu.Unlock()
			return rows.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// EventsForUser returns ids of events the user attends.
func (r *Repository) EventsForUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT event_id FROM attendees WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
