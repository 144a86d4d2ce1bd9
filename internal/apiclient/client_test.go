package apiclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eventdesk/eventdesk/internal/apiclient"
	"github.com/eventdesk/eventdesk/internal/domain"
	"github.com/eventdesk/eventdesk/internal/observability"
)

func newClient(srv *httptest.Server) *apiclient.Client {
	return apiclient.New(srv.URL, 2*time.Second, observability.NopLogger())
}

func TestClient_StatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, domain.ErrNotFound},
		{http.StatusConflict, domain.ErrConflict},
		{http.StatusBadRequest, domain.ErrInvalidInput},
		{http.StatusForbidden, domain.ErrInvalidInput},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			w.Write([]byte(`{"error": "nope"}`))
		}))
		c := newClient(srv)

		_, err := c.ConfirmRegistration(context.Background(), "e1", "u1", "corr")
		if !errors.Is(err, tc.want) {
			t.Errorf("status %d: expected %v, got %v", tc.status, tc.want, err)
		}
		srv.Close()
	}
}

func TestClient_TransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := newClient(srv)
	_, err := c.FetchEvents(context.Background())
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable on transport failure, got %v", err)
	}
}

func TestClient_ConfirmRegistration(t *testing.T) {
	var gotPath string
	var gotBody struct {
		UserID    string `json:"user_id"`
		SessionID string `json:"session_id"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		decodeJSON(t, r, &gotBody)
		w.Write([]byte(`{"attendees": 12}`))
	}))
	defer srv.Close()

	c := newClient(srv)
	count, err := c.ConfirmRegistration(context.Background(), "ev9", "u7", "corr-1")
	if err != nil {
		t.Fatal(err)
	}
	if count != 12 {
		t.Errorf("expected attendees 12, got %d", count)
	}
	if gotPath != "/api/events/update-attendees/ev9" {
		t.Errorf("unexpected path %s", gotPath)
	}
	if gotBody.UserID != "u7" || gotBody.SessionID != "corr-1" {
		t.Errorf("unexpected body %+v", gotBody)
	}
}

func TestClient_FetchEventsNormalizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"_id": "e1", "name": "Legacy", "price": 10.0}, {"id": "e2", "title": "Canonical", "price_cents": 0}]`))
	}))
	defer srv.Close()

	c := newClient(srv)
	events, err := c.FetchEvents(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Title != "Legacy" || events[0].PriceCents != 1000 {
		t.Errorf("legacy shape not normalized: %+v", events[0])
	}
	if !events[1].Free() {
		t.Errorf("expected e2 free: %+v", events[1])
	}
}

func TestClient_CreateEventValidatesLocally(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	c := newClient(srv)
	_, err := c.CreateEvent(context.Background(), apiclient.CreateEventRequest{Title: "  "})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if calls != 0 {
		t.Errorf("invalid event must not reach the network, got %d calls", calls)
	}
}

func decodeJSON(t *testing.T, r *http.Request, out interface{}) {
	t.Helper()
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		t.Fatal(err)
	}
}
