package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mongoadapter "github.com/eventdesk/eventdesk/internal/adapters/mongo"
	"github.com/eventdesk/eventdesk/internal/observability"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestGetEvent_StoreFailureIsNot404(t *testing.T) {
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI("mongodb://127.0.0.1:1"))
	if err != nil {
		t.Fatal(err)
	}
	h := &Handlers{
		catalog: mongoadapter.NewCatalogRepository(client.Database("eventdesk"), observability.NopLogger()),
		logger:  observability.NopLogger(),
	}

	// A cancelled context makes the lookup fail without a round-trip, which
	// stands in for any store outage.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := chi.NewRouter()
	r.Get("/api/feedback/event/{eventID}", h.EventFeedback)

	req := httptest.NewRequest(http.MethodGet, "/api/feedback/event/e1", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for a store failure, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "Event not found") {
		t.Error("a store failure must not masquerade as a missing event")
	}
}
