// Package web is the HTTP surface of the registration client application. It
// renders no markup; views consume JSON. Identity arrives as an externally
// verified X-User-Id header and is threaded through as an argument, never read
// from ambient state.
package web

import (
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/eventdesk/eventdesk/internal/apiclient"
	"github.com/eventdesk/eventdesk/internal/catalog"
	"github.com/eventdesk/eventdesk/internal/comments"
	"github.com/eventdesk/eventdesk/internal/domain"
	"github.com/eventdesk/eventdesk/internal/feedback"
	"github.com/eventdesk/eventdesk/internal/observability"
	"github.com/eventdesk/eventdesk/internal/reconcile"
	"github.com/eventdesk/eventdesk/internal/registration"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

type Handlers struct {
	api         *apiclient.Client
	store       *catalog.Store
	coordinator *registration.Coordinator
	reconciler  *reconcile.Reconciler
	comments    *comments.Submitter
	feedback    *feedback.Submitter
	logger      observability.Logger
}

func NewHandlers(
	api *apiclient.Client,
	store *catalog.Store,
	coordinator *registration.Coordinator,
	reconciler *reconcile.Reconciler,
	comments *comments.Submitter,
	feedback *feedback.Submitter,
	logger observability.Logger,
) *Handlers {
	return &Handlers{
		api:         api,
		store:       store,
		coordinator: coordinator,
		reconciler:  reconciler,
		comments:    comments,
		feedback:    feedback,
		logger:      logger,
	}
}

func (h *Handlers) userID(r *http.Request) string {
	return r.Header.Get("X-User-Id")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// Dashboard re-fetches the catalog and applies the search/timeframe filters.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	events, err := h.store.LoadAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	timeframe := catalog.Timeframe(r.URL.Query().Get("timeframe"))
	if timeframe == "" {
		timeframe = catalog.TimeframeAll
	}
	filtered := h.store.Filter(events, r.URL.Query().Get("query"), timeframe)
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": filtered})
}

// CreateEvent is the organizer flow, proxied through to the backend.
func (h *Handlers) CreateEvent(w http.ResponseWriter, r *http.Request) {
	if h.userID(r) == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}
	var req apiclient.CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	ev, err := h.api.CreateEvent(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

// EventDetail loads one event plus its comments and feedback in parallel.
func (h *Handlers) EventDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ev, ok := h.store.Get(id)
	if !ok {
		if _, err := h.store.LoadAll(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		if ev, ok = h.store.Get(id); !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "event not found"})
			return
		}
	}

	var (
		feed    []domain.Comment
		summary apiclient.FeedbackSummary
	)
	g, gctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		feed, err = h.comments.Load(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		summary, err = h.feedback.Load(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"event":    ev,
		"comments": feed,
		"feedback": summary,
	})
}

// Register starts a registration attempt for the authenticated user.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	userID := h.userID(r)
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}
	id := chi.URLParam(r, "id")
	ev, ok := h.store.Get(id)
	if !ok {
		if _, err := h.store.LoadAll(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		if ev, ok = h.store.Get(id); !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "event not found"})
			return
		}
	}

	outcome := h.coordinator.Attempt(r.Context(), ev, userID)
	switch outcome.Kind {
	case registration.OutcomeConfirmed:
		h.store.ApplyCount(ev.ID, userID, outcome.AttendeeCount)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"outcome":   outcome.Kind,
			"attendees": outcome.AttendeeCount,
		})
	case registration.OutcomeAlreadyRegistered:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"outcome":   outcome.Kind,
			"attendees": outcome.AttendeeCount,
		})
	case registration.OutcomePaymentPending:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"outcome":      outcome.Kind,
			"checkout_url": outcome.CheckoutURL,
			"return_url":   h.coordinator.ReturnURL(outcome.ReturnQuery, false),
			"cancel_url":   h.coordinator.ReturnURL(outcome.ReturnQuery, true),
		})
	default:
		writeError(w, outcome.Err)
	}
}

// RegisteredEvents is the registration-confirmation view. When the payment
// provider markers are present in the query string it runs the reconciler,
// then points the caller at the bare path so the markers disappear from the
// address bar and a refresh cannot replay the confirmation.
func (h *Handlers) RegisteredEvents(w http.ResponseWriter, r *http.Request) {
	userID := h.userID(r)
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	result := h.reconciler.Resume(r.Context(), userID, r.URL.Query())
	if result.State == reconcile.StateDone && result.AttendeeCount > 0 {
		h.store.ApplyCount(result.EventID, userID, result.AttendeeCount)
	}

	events, err := h.store.LoadAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	mine := make([]domain.Event, 0)
	for _, ev := range events {
		if ev.HasAttendee(userID) {
			mine = append(mine, ev)
		}
	}

	resp := map[string]interface{}{
		"events":         mine,
		"reconciliation": result.State,
	}
	if result.StripMarkers {
		resp["next"] = r.URL.Path
	}
	if result.Err != nil {
		resp["error"] = result.Err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

type postCommentBody struct {
	AuthorName string `json:"author_name"`
	Text       string `json:"text"`
}

func (h *Handlers) PostComment(w http.ResponseWriter, r *http.Request) {
	userID := h.userID(r)
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}
	var body postCommentBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	comment, err := h.comments.Post(r.Context(), chi.URLParam(r, "id"), userID, body.AuthorName, body.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

type submitFeedbackBody struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h *Handlers) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	userID := h.userID(r)
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}
	var body submitFeedbackBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	result, err := h.feedback.Submit(r.Context(), chi.URLParam(r, "id"), userID, body.Rating, body.Comment)
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusCreated
	if result.Status == feedback.StatusDuplicate {
		// Benign: already rated. Informational, not an error.
		status = http.StatusOK
	}
	writeJSON(w, status, map[string]interface{}{"status": result.Status, "feedback": result.Feedback})
}

func (h *Handlers) PendingFeedback(w http.ResponseWriter, r *http.Request) {
	userID := h.userID(r)
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}
	pending, err := h.feedback.Pending(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": pending})
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
