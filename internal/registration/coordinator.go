// Package registration drives a single event registration attempt from user
// intent to a confirmed, suspended, or failed outcome.
package registration

import (
	"context"
	"net/url"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/eventdesk/eventdesk/internal/apiclient"
	"github.com/eventdesk/eventdesk/internal/domain"
	"github.com/eventdesk/eventdesk/internal/observability"
)

// Query parameter names the payment provider is instructed to echo back on the
// return URL. They are the only state that survives the redirect.
const (
	ParamSessionID     = "session_id"
	ParamPaymentStatus = "payment_status"
	ParamEventID       = "event_id"

	PaymentStatusSuccess = "success"
	PaymentStatusCancel  = "cancel"
)

type OutcomeKind string

const (
	OutcomeConfirmed         OutcomeKind = "confirmed"
	OutcomeAlreadyRegistered OutcomeKind = "already-registered"
	OutcomePaymentPending    OutcomeKind = "payment-pending"
	OutcomeFailed            OutcomeKind = "failed"
)

// Outcome is the terminal (or suspended) result of one attempt.
type Outcome struct {
	Kind          OutcomeKind
	Attempt       domain.RegistrationAttempt
	AttendeeCount int
	// CheckoutURL is set for payment-pending outcomes: where to send the user.
	CheckoutURL string
	// ReturnQuery is the state the provider must echo back so the attempt can
	// be resumed after a full page reload.
	ReturnQuery url.Values
	Err         error
}

type Coordinator struct {
	api       *apiclient.Client
	logger    observability.Logger
	returnURL string
	now       func() time.Time
}

// NewCoordinator builds a coordinator. returnURL is the confirmation view the
// payment provider redirects back to.
func NewCoordinator(api *apiclient.Client, returnURL string, logger observability.Logger) *Coordinator {
	return &Coordinator{api: api, logger: logger, returnURL: returnURL, now: time.Now}
}

// Attempt registers user for event. Preconditions: the user id was verified by
// the external identity provider; the event carries a valid id.
//
// Free events confirm in one idempotent call. Paid events request a payment
// session and suspend; the redirect reconciler resumes them. A user already in
// the attendee set is refused locally before any network call, and a backend
// "already registered" response is a success, never an error.
func (c *Coordinator) Attempt(ctx context.Context, event domain.Event, userID string) Outcome {
	if event.ID == "" || userID == "" {
		return c.failed(domain.RegistrationAttempt{EventID: event.ID, UserID: userID}, domain.ErrInvalidInput)
	}
	if event.HasAttendee(userID) {
		observability.RegistrationsTotal.WithLabelValues(string(OutcomeAlreadyRegistered)).Inc()
		return Outcome{
			Kind:          OutcomeAlreadyRegistered,
			Attempt:       domain.RegistrationAttempt{EventID: event.ID, UserID: userID, Status: domain.AttemptAlreadyRegistered},
			AttendeeCount: event.AttendeeCount,
		}
	}

	attempt := domain.NewAttempt(event.ID, userID, c.now())

	if event.Free() {
		return c.confirm(ctx, attempt, event.AttendeeCount)
	}

	session, err := c.api.CreatePaymentSession(ctx, event.ID, event.PriceCents, event.Title)
	if err != nil {
		return c.failed(attempt, err)
	}
	observability.PaymentSessionsTotal.Inc()

	// The provider session id becomes the attempt's correlation id; carried in
	// the return URL, not in memory, so it survives a full page reload.
	attempt.CorrelationID = session.ID
	attempt.Status = domain.AttemptAwaitingPayment

	q := url.Values{}
	q.Set(ParamSessionID, session.ID)
	q.Set(ParamEventID, event.ID)
	q.Set(ParamPaymentStatus, PaymentStatusSuccess)

	c.logger.WithField("event_id", event.ID).WithField("session_id", session.ID).Info("registration suspended for payment")
	return Outcome{
		Kind:        OutcomePaymentPending,
		Attempt:     attempt,
		CheckoutURL: session.CheckoutURL,
		ReturnQuery: q,
	}
}

func (c *Coordinator) confirm(ctx context.Context, attempt domain.RegistrationAttempt, knownCount int) Outcome {
	count, err := c.api.ConfirmRegistration(ctx, attempt.EventID, attempt.UserID, attempt.CorrelationID)
	if errors.Is(err, domain.ErrConflict) {
		// Benign: the desired end state already holds. Count unchanged.
		attempt.Status = domain.AttemptAlreadyRegistered
		observability.RegistrationsTotal.WithLabelValues(string(OutcomeAlreadyRegistered)).Inc()
		return Outcome{Kind: OutcomeAlreadyRegistered, Attempt: attempt, AttendeeCount: knownCount}
	}
	if err != nil {
		return c.failed(attempt, err)
	}
	attempt.Status = domain.AttemptConfirmed
	observability.RegistrationsTotal.WithLabelValues(string(OutcomeConfirmed)).Inc()
	return Outcome{Kind: OutcomeConfirmed, Attempt: attempt, AttendeeCount: count}
}

func (c *Coordinator) failed(attempt domain.RegistrationAttempt, err error) Outcome {
	attempt.Status = domain.AttemptFailed
	observability.RegistrationsTotal.WithLabelValues(string(OutcomeFailed)).Inc()
	c.logger.WithField("event_id", attempt.EventID).Error("registration attempt failed: ", err)
	return Outcome{Kind: OutcomeFailed, Attempt: attempt, Err: err}
}

// ReturnURL renders the full return URL for a suspended attempt. The cancel
// variant carries payment_status=cancel so the reconciler can distinguish an
// abandoned checkout.
func (c *Coordinator) ReturnURL(q url.Values, cancelled bool) string {
	out := url.Values{}
	for k, vs := range q {
		out[k] = vs
	}
	if cancelled {
		out.Set(ParamPaymentStatus, PaymentStatusCancel)
	}
	return c.returnURL + "?" + out.Encode()
}
