package registration_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/eventdesk/eventdesk/internal/apiclient"
	"github.com/eventdesk/eventdesk/internal/domain"
	"github.com/eventdesk/eventdesk/internal/observability"
	"github.com/eventdesk/eventdesk/internal/registration"
)

// backendStub counts calls per endpoint so tests can assert exactly how many
// network round-trips an attempt produced.
type backendStub struct {
	mu            sync.Mutex
	confirmCalls  int
	paymentCalls  int
	confirmStatus int
	attendees     int
}

func (b *backendStub) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		switch {
		case strings.HasPrefix(r.URL.Path, "/api/events/update-attendees/"):
			b.confirmCalls++
			if b.confirmStatus != 0 && b.confirmStatus != http.StatusOK {
				w.WriteHeader(b.confirmStatus)
				w.Write([]byte(`{"error": "User already registered"}`))
				return
			}
			b.attendees++
			w.Write([]byte(`{"attendees": ` + strconv.Itoa(b.attendees) + `}`))
		case r.URL.Path == "/api/events/create-payment":
			b.paymentCalls++
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id": "cs_test_123", "checkout_url": "https://pay.example/cs_test_123"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error": "not found"}`))
		}
	})
}

func (b *backendStub) counts() (confirm, pay int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.confirmCalls, b.paymentCalls
}

func newCoordinator(t *testing.T, stub *backendStub) (*registration.Coordinator, func()) {
	t.Helper()
	srv := httptest.NewServer(stub.handler())
	api := apiclient.New(srv.URL, 2*time.Second, observability.NopLogger())
	c := registration.NewCoordinator(api, "http://localhost:8081/registered-events", observability.NopLogger())
	return c, srv.Close
}

func TestAttempt_FreeEventConfirmsOnce(t *testing.T) {
	stub := &backendStub{attendees: 2}
	c, done := newCoordinator(t, stub)
	defer done()

	ev := domain.Event{ID: "e1", Title: "Free Meetup", AttendeeCount: 2}
	outcome := c.Attempt(context.Background(), ev, "u1")

	if outcome.Kind != registration.OutcomeConfirmed {
		t.Fatalf("expected confirmed, got %s (%v)", outcome.Kind, outcome.Err)
	}
	if outcome.AttendeeCount != 3 {
		t.Errorf("expected server count 3, got %d", outcome.AttendeeCount)
	}
	confirm, pay := stub.counts()
	if confirm != 1 {
		t.Errorf("free flow must confirm exactly once, got %d", confirm)
	}
	if pay != 0 {
		t.Errorf("free flow must not touch the payment endpoint, got %d calls", pay)
	}
	if outcome.Attempt.CorrelationID == "" {
		t.Error("confirmed attempt must carry a correlation id")
	}
}

func TestAttempt_PaidEventSuspends(t *testing.T) {
	stub := &backendStub{}
	c, done := newCoordinator(t, stub)
	defer done()

	ev := domain.Event{ID: "e2", Title: "Paid Conf", PriceCents: 4900}
	outcome := c.Attempt(context.Background(), ev, "u1")

	if outcome.Kind != registration.OutcomePaymentPending {
		t.Fatalf("expected payment-pending, got %s (%v)", outcome.Kind, outcome.Err)
	}
	if outcome.CheckoutURL != "https://pay.example/cs_test_123" {
		t.Errorf("unexpected checkout url %s", outcome.CheckoutURL)
	}
	confirm, pay := stub.counts()
	if confirm != 0 {
		t.Errorf("paid flow must not confirm before payment, got %d calls", confirm)
	}
	if pay != 1 {
		t.Errorf("expected one payment session, got %d", pay)
	}

	// The provider session id is the correlation id and must survive in the
	// return query, not just in memory.
	q := outcome.ReturnQuery
	if q.Get(registration.ParamSessionID) != "cs_test_123" {
		t.Errorf("session id missing from return query: %v", q)
	}
	if q.Get(registration.ParamEventID) != "e2" {
		t.Errorf("event id missing from return query: %v", q)
	}
	if q.Get(registration.ParamPaymentStatus) != registration.PaymentStatusSuccess {
		t.Errorf("unexpected payment status marker: %v", q)
	}
	if outcome.Attempt.Status != domain.AttemptAwaitingPayment {
		t.Errorf("expected AWAITING_PAYMENT, got %s", outcome.Attempt.Status)
	}
}

func TestAttempt_AlreadyAttendeeSkipsNetwork(t *testing.T) {
	stub := &backendStub{}
	c, done := newCoordinator(t, stub)
	defer done()

	ev := domain.Event{ID: "e3", Attendees: []string{"u1"}, AttendeeCount: 1}
	outcome := c.Attempt(context.Background(), ev, "u1")

	if outcome.Kind != registration.OutcomeAlreadyRegistered {
		t.Fatalf("expected already-registered, got %s", outcome.Kind)
	}
	confirm, pay := stub.counts()
	if confirm+pay != 0 {
		t.Errorf("local membership must short-circuit, got %d network calls", confirm+pay)
	}
	if outcome.AttendeeCount != 1 {
		t.Errorf("count must be the known count, got %d", outcome.AttendeeCount)
	}
}

func TestAttempt_BackendConflictIsSuccess(t *testing.T) {
	stub := &backendStub{confirmStatus: http.StatusConflict}
	c, done := newCoordinator(t, stub)
	defer done()

	ev := domain.Event{ID: "e4", AttendeeCount: 9}
	outcome := c.Attempt(context.Background(), ev, "u2")

	if outcome.Kind != registration.OutcomeAlreadyRegistered {
		t.Fatalf("409 must resolve as already-registered, got %s (%v)", outcome.Kind, outcome.Err)
	}
	if outcome.Err != nil {
		t.Errorf("benign conflict must not surface an error, got %v", outcome.Err)
	}
	if outcome.AttendeeCount != 9 {
		t.Errorf("count must stay at the known value, got %d", outcome.AttendeeCount)
	}
}

func TestAttempt_InvalidInput(t *testing.T) {
	stub := &backendStub{}
	c, done := newCoordinator(t, stub)
	defer done()

	outcome := c.Attempt(context.Background(), domain.Event{}, "u1")
	if outcome.Kind != registration.OutcomeFailed {
		t.Fatalf("expected failed outcome for missing event id, got %s", outcome.Kind)
	}
}

func TestReturnURL_CancelVariant(t *testing.T) {
	stub := &backendStub{}
	c, done := newCoordinator(t, stub)
	defer done()

	ev := domain.Event{ID: "e5", PriceCents: 1000}
	outcome := c.Attempt(context.Background(), ev, "u1")
	if outcome.Kind != registration.OutcomePaymentPending {
		t.Fatal("expected payment-pending")
	}

	cancel := c.ReturnURL(outcome.ReturnQuery, true)
	if !strings.Contains(cancel, "payment_status=cancel") {
		t.Errorf("cancel url must carry the cancel marker: %s", cancel)
	}
	success := c.ReturnURL(outcome.ReturnQuery, false)
	if !strings.Contains(success, "payment_status=success") {
		t.Errorf("success url must carry the success marker: %s", success)
	}
	// Rendering the cancel variant must not mutate the stored query.
	if outcome.ReturnQuery.Get(registration.ParamPaymentStatus) != registration.PaymentStatusSuccess {
		t.Error("ReturnURL mutated the suspended attempt's query")
	}
}
