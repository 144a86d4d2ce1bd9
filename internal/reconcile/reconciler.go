// Package reconcile resumes a paid registration after the browser returns from
// the external payment provider. The confirmation call must fire at most once
// per correlation id even when the view is re-entered or the return URL is
// replayed by a reload.
package reconcile

import (
	"context"
	"net/url"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/eventdesk/eventdesk/internal/apiclient"
	"github.com/eventdesk/eventdesk/internal/domain"
	"github.com/eventdesk/eventdesk/internal/observability"
	"github.com/eventdesk/eventdesk/internal/registration"
)

type State string

const (
	StateIdle          State = "IDLE"
	StateConfirming    State = "CONFIRMING"
	StateDone          State = "DONE"
	StateDoneWithError State = "DONE_WITH_ERROR"
	StateCancelled     State = "CANCELLED"
)

// Result tells the confirmation view what happened and whether the markers
// must be stripped from the URL so a refresh cannot replay the call.
type Result struct {
	State         State
	EventID       string
	CorrelationID string
	AttendeeCount int
	StripMarkers  bool
	Err           error
}

type Reconciler struct {
	api    *apiclient.Client
	logger observability.Logger

	mu        sync.Mutex
	processed map[string]Result
}

func New(api *apiclient.Client, logger observability.Logger) *Reconciler {
	return &Reconciler{api: api, logger: logger, processed: make(map[string]Result)}
}

// Resume inspects the return-URL query for the provider markers and replays
// the registration confirmation exactly once.
//
// Idle -> markers absent: no-op. Idle -> cancel: inform, strip, no call.
// Idle -> success: Confirming, one confirmation call, then Done (benign
// conflicts included) or DoneWithError; markers stripped on every terminal
// state so there is no infinite retry.
func (r *Reconciler) Resume(ctx context.Context, userID string, query url.Values) Result {
	correlationID := query.Get(registration.ParamSessionID)
	status := query.Get(registration.ParamPaymentStatus)
	eventID := query.Get(registration.ParamEventID)

	if correlationID == "" || status == "" || eventID == "" {
		return Result{State: StateIdle}
	}

	if status == registration.PaymentStatusCancel {
		// The user abandoned checkout. No confirmation call, no compensating
		// transaction; the attendee set is untouched.
		r.logger.WithField("event_id", eventID).Info("payment cancelled")
		return Result{State: StateCancelled, EventID: eventID, CorrelationID: correlationID, StripMarkers: true}
	}
	if status != registration.PaymentStatusSuccess {
		return Result{State: StateIdle}
	}

	// The processed set lives for the page's lifetime and is the idempotency
	// guard: a duplicate mount or a replayed URL returns the recorded result
	// without a second call.
	r.mu.Lock()
	if prior, ok := r.processed[correlationID]; ok {
		r.mu.Unlock()
		observability.ReplaysSuppressed.Inc()
		return prior
	}
	r.processed[correlationID] = Result{State: StateConfirming, EventID: eventID, CorrelationID: correlationID}
	r.mu.Unlock()

	result := r.confirm(ctx, eventID, userID, correlationID)

	r.mu.Lock()
	r.processed[correlationID] = result
	r.mu.Unlock()
	return result
}

func (r *Reconciler) confirm(ctx context.Context, eventID, userID, correlationID string) Result {
	count, err := r.api.ConfirmRegistration(ctx, eventID, userID, correlationID)
	switch {
	case errors.Is(err, domain.ErrConflict):
		// Already registered: the end state we wanted.
		return Result{State: StateDone, EventID: eventID, CorrelationID: correlationID, StripMarkers: true}
	case err != nil:
		r.logger.WithField("event_id", eventID).Error("confirmation after redirect failed: ", err)
		return Result{State: StateDoneWithError, EventID: eventID, CorrelationID: correlationID, StripMarkers: true, Err: err}
	default:
		return Result{State: StateDone, EventID: eventID, CorrelationID: correlationID, AttendeeCount: count, StripMarkers: true}
	}
}

// Processed reports whether a correlation id has already been handled.
func (r *Reconciler) Processed(correlationID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.processed[correlationID]
	return ok
}
