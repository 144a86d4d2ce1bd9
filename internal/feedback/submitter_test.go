package feedback_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/eventdesk/eventdesk/internal/apiclient"
	"github.com/eventdesk/eventdesk/internal/domain"
	"github.com/eventdesk/eventdesk/internal/feedback"
	"github.com/eventdesk/eventdesk/internal/observability"
)

type feedbackStub struct {
	mu     sync.Mutex
	calls  int
	status int
}

func (s *feedbackStub) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls++
		status := s.status
		s.mu.Unlock()
		switch status {
		case http.StatusConflict:
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"error": "User already submitted feedback for this event"}`))
		default:
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id": "f1", "event_id": "e1", "user_id": "u1", "rating": 5}`))
		}
	})
}

func (s *feedbackStub) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newSubmitter(t *testing.T, stub *feedbackStub) (*feedback.Submitter, func()) {
	t.Helper()
	srv := httptest.NewServer(stub.handler())
	api := apiclient.New(srv.URL, 2*time.Second, observability.NopLogger())
	return feedback.NewSubmitter(api), srv.Close
}

func TestSubmit_InvalidRatingSkipsNetwork(t *testing.T) {
	stub := &feedbackStub{}
	s, done := newSubmitter(t, stub)
	defer done()

	for _, rating := range []int{0, 6, -3} {
		_, err := s.Submit(context.Background(), "e1", "u1", rating, "")
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("rating %d: expected ErrInvalidInput, got %v", rating, err)
		}
	}
	if stub.callCount() != 0 {
		t.Errorf("invalid ratings must never reach the network, got %d calls", stub.callCount())
	}
}

func TestSubmit_RatingWithoutCommentIsValid(t *testing.T) {
	stub := &feedbackStub{}
	s, done := newSubmitter(t, stub)
	defer done()

	res, err := s.Submit(context.Background(), "e1", "u1", 5, "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != feedback.StatusSubmitted {
		t.Errorf("expected submitted, got %s", res.Status)
	}
	if feed := s.Feed("e1"); len(feed) != 1 || feed[0].ID != "f1" {
		t.Errorf("submitted feedback must be prepended to the local list, got %v", feed)
	}
}

func TestSubmit_DuplicateIsBenign(t *testing.T) {
	stub := &feedbackStub{status: http.StatusConflict}
	s, done := newSubmitter(t, stub)
	defer done()

	res, err := s.Submit(context.Background(), "e1", "u1", 4, "nice")
	if err != nil {
		t.Fatalf("duplicate must not be an error, got %v", err)
	}
	if res.Status != feedback.StatusDuplicate {
		t.Errorf("expected duplicate status, got %s", res.Status)
	}
	if len(s.Feed("e1")) != 0 {
		t.Error("duplicate submission must not touch the local list")
	}
}
