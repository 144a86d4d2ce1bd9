package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type AttemptStatus string

const (
	AttemptPending           AttemptStatus = "PENDING"
	AttemptAwaitingPayment   AttemptStatus = "AWAITING_PAYMENT"
	AttemptConfirmed         AttemptStatus = "CONFIRMED"
	AttemptAlreadyRegistered AttemptStatus = "ALREADY_REGISTERED"
	AttemptFailed            AttemptStatus = "FAILED"
	AttemptCancelled         AttemptStatus = "CANCELLED"
)

// RegistrationAttempt is the transient client-side state of one registration
// flow. It is never persisted; a paid attempt is reconstructed from the return
// URL after the payment redirect.
type RegistrationAttempt struct {
	EventID       string
	UserID        string
	CorrelationID string
	Status        AttemptStatus
}

// NewAttempt creates a pending attempt with a fresh correlation id. The id is
// the idempotency key the backend dedupes confirmation calls by, so it must be
// unique per attempt, not per (user, event).
func NewAttempt(eventID, userID string, now time.Time) RegistrationAttempt {
	return RegistrationAttempt{
		EventID:       eventID,
		UserID:        userID,
		CorrelationID: NewCorrelationID(now),
		Status:        AttemptPending,
	}
}

// NewCorrelationID combines a random token with a timestamp so a retried
// transport call cannot be double-applied by the backend.
func NewCorrelationID(now time.Time) string {
	return fmt.Sprintf("reg_%s_%d", uuid.NewString(), now.UnixMilli())
}
