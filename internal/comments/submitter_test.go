package comments_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/eventdesk/eventdesk/internal/apiclient"
	"github.com/eventdesk/eventdesk/internal/comments"
	"github.com/eventdesk/eventdesk/internal/domain"
	"github.com/eventdesk/eventdesk/internal/observability"
)

type commentStub struct {
	mu    sync.Mutex
	calls int
	next  int
}

func (s *commentStub) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls++
		s.next++
		id := s.next
		s.mu.Unlock()

		if r.Method == http.MethodGet {
			json.NewEncoder(w).Encode([]domain.Comment{})
			return
		}
		var body struct {
			Text string `json:"text"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(domain.Comment{ID: "c" + strconv.Itoa(id), EventID: "e1", Text: body.Text})
	})
}

func (s *commentStub) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newSubmitter(t *testing.T, stub *commentStub) (*comments.Submitter, func()) {
	t.Helper()
	srv := httptest.NewServer(stub.handler())
	api := apiclient.New(srv.URL, 2*time.Second, observability.NopLogger())
	return comments.NewSubmitter(api), srv.Close
}

func TestPost_EmptyTextSkipsNetwork(t *testing.T) {
	stub := &commentStub{}
	s, done := newSubmitter(t, stub)
	defer done()

	_, err := s.Post(context.Background(), "e1", "u1", "Ann", "   ")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if stub.callCount() != 0 {
		t.Errorf("blank comment must not reach the network, got %d calls", stub.callCount())
	}
}

func TestPost_PrependsNewestFirst(t *testing.T) {
	stub := &commentStub{}
	s, done := newSubmitter(t, stub)
	defer done()

	if _, err := s.Post(context.Background(), "e1", "u1", "Ann", "first"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Post(context.Background(), "e1", "u1", "Ann", "second"); err != nil {
		t.Fatal(err)
	}

	feed := s.Feed("e1")
	if len(feed) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(feed))
	}
	if feed[0].Text != "second" || feed[1].Text != "first" {
		t.Errorf("expected newest first, got %v", feed)
	}
}
