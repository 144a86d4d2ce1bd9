package httpapi

import (
	"encoding/json"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	mongoadapter "github.com/eventdesk/eventdesk/internal/adapters/mongo"
	"github.com/eventdesk/eventdesk/internal/adapters/pg"
	redisadapter "github.com/eventdesk/eventdesk/internal/adapters/redis"
	"github.com/eventdesk/eventdesk/internal/config"
	"github.com/eventdesk/eventdesk/internal/domain"
	"github.com/eventdesk/eventdesk/internal/idempotency"
	"github.com/eventdesk/eventdesk/internal/observability"
	"github.com/eventdesk/eventdesk/internal/payment"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.mongodb.org/mongo-driver/mongo"
)

type Handlers struct {
	cfg     *config.Config
	repo    *pg.Repository
	catalog *mongoadapter.CatalogRepository
	engage  *mongoadapter.EngageRepository
	cache   *redisadapter.Cache
	idemp   *idempotency.Idempotency
	gateway payment.Gateway
	logger  observability.Logger
}

func NewHandlers(
	cfg *config.Config,
	repo *pg.Repository,
	catalog *mongoadapter.CatalogRepository,
	engage *mongoadapter.EngageRepository,
	cache *redisadapter.Cache,
	idemp *idempotency.Idempotency,
	gateway payment.Gateway,
	logger observability.Logger,
) *Handlers {
	return &Handlers{
		cfg:     cfg,
		repo:    repo,
		catalog: catalog,
		engage:  engage,
		cache:   cache,
		idemp:   idemp,
		gateway: gateway,
		logger:  logger,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeErrorMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// getEvent fetches a catalog event, writing 404 only for a genuinely missing
// document. A Mongo outage is a 500, not "Event not found".
func (h *Handlers) getEvent(w http.ResponseWriter, r *http.Request, eventID string) (*mongoadapter.EventDoc, bool) {
	doc, err := h.catalog.GetEvent(r.Context(), eventID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		writeErrorMsg(w, http.StatusNotFound, "Event not found")
		return nil, false
	}
	if err != nil {
		writeErrorMsg(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return doc, true
}

// eventWire is the external shape of an event: canonical fields only, date as
// RFC3339, attendee set hydrated from the registry.
func eventWire(doc mongoadapter.EventDoc, attendees []string) map[string]interface{} {
	if attendees == nil {
		attendees = []string{}
	}
	return map[string]interface{}{
		"id":             doc.ID,
		"title":          doc.Title,
		"description":    doc.Description,
		"location":       doc.Location,
		"date":           doc.Date.UTC().Format(time.RFC3339),
		"price_cents":    doc.PriceCents,
		"image_url":      doc.ImageURL,
		"attendees":      attendees,
		"attendee_count": len(attendees),
	}
}

func (h *Handlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	docs, err := h.catalog.ListEvents(r.Context())
	if err != nil {
		writeErrorMsg(w, http.StatusInternalServerError, err.Error())
		return
	}
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	attendees, err := h.repo.Attendees(r.Context(), ids)
	if err != nil {
		writeErrorMsg(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]map[string]interface{}, len(docs))
	for i, d := range docs {
		out[i] = eventWire(d, attendees[d.ID])
	}
	writeJSON(w, http.StatusOK, out)
}

type createEventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Date        string `json:"date"`
	PriceCents  int64  `json:"price_cents"`
	ImageURL    string `json:"image_url"`
}

func (h *Handlers) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Title) == "" || req.Date == "" {
		writeErrorMsg(w, http.StatusBadRequest, "Event title and date are required")
		return
	}
	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "date must be RFC3339")
		return
	}
	if req.PriceCents < 0 {
		writeErrorMsg(w, http.StatusBadRequest, "price cannot be negative")
		return
	}

	doc, err := h.catalog.CreateEvent(r.Context(), mongoadapter.EventDoc{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Location:    req.Location,
		Date:        date,
		PriceCents:  req.PriceCents,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		writeErrorMsg(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, eventWire(doc, nil))
}

type createPaymentRequest struct {
	EventID string `json:"eventId"`
	Price   int64  `json:"price"`
	Title   string `json:"title"`
}

// CreatePayment mints a checkout session for a paid event. The stored price is
// authoritative; the client-supplied one is ignored beyond presence.
func (h *Handlers) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	doc, ok := h.getEvent(w, r, req.EventID)
	if !ok {
		return
	}
	if doc.PriceCents <= 0 {
		writeErrorMsg(w, http.StatusBadRequest, "event is free, no payment session needed")
		return
	}

	returnBase := h.cfg.PublicBaseURL + "/registered-events"
	sess, err := h.gateway.CreateCheckoutSession(r.Context(), payment.CheckoutParams{
		ReferenceID: doc.ID,
		Title:       doc.Title,
		AmountCents: doc.PriceCents,
		SuccessURL:  returnBase + "?payment_status=success&session_id={CHECKOUT_SESSION_ID}&event_id=" + doc.ID,
		CancelURL:   returnBase + "?payment_status=cancel&session_id={CHECKOUT_SESSION_ID}&event_id=" + doc.ID,
	})
	if err != nil {
		h.logger.Error("failed to create checkout session", err)
		writeErrorMsg(w, http.StatusBadGateway, "payment provider unavailable")
		return
	}

	if err := h.cache.SavePaymentSession(r.Context(), sess.ID, redisadapter.PendingSession{
		EventID:    doc.ID,
		PriceCents: doc.PriceCents,
	}, h.cfg.SessionTTL); err != nil {
		writeErrorMsg(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"id":           sess.ID,
		"checkout_url": sess.CheckoutURL,
	})
}

type updateAttendeesRequest struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

var errUnknownPaymentSession = errors.New("unknown or expired payment session")

// UpdateAttendees appends one attendee, deduped two ways: the correlation
// (session) id makes retries of the same attempt replay-safe, and the
// (event, user) constraint rejects a second registration outright.
func (h *Handlers) UpdateAttendees(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	var req updateAttendeesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID == "" || req.SessionID == "" {
		writeErrorMsg(w, http.StatusBadRequest, "user_id and session_id are required")
		return
	}

	// Replay short-circuit: the exact response the original call produced.
	if cached, err := h.idemp.Get(r.Context(), req.SessionID); err == nil && cached != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(cached.Status)
		w.Write(cached.Result)
		return
	}

	doc, ok := h.getEvent(w, r, eventID)
	if !ok {
		return
	}

	var (
		count  int
		replay bool
	)
	start := time.Now()
	err := h.repo.WithTx(r.Context(), func(tx pgx.Tx) error {
		inserted, err := h.repo.InsertConfirmation(r.Context(), tx, req.SessionID, eventID, req.UserID)
		if err != nil {
			return err
		}
		if !inserted {
			replay = true
			return nil
		}
		// Paid events need a live parked session, but only on the first
		// confirmation: a replayed correlation id must return the recorded
		// count even after the session TTL lapsed. Failing here rolls back
		// the confirmation claim.
		if doc.PriceCents > 0 {
			_, found, err := h.cache.GetPaymentSession(r.Context(), req.SessionID)
			if err != nil {
				return err
			}
			if !found {
				return errUnknownPaymentSession
			}
		}
		if err := h.repo.AddAttendee(r.Context(), tx, eventID, req.UserID); err != nil {
			return err
		}
		count, err = h.repo.CountAttendees(r.Context(), tx, eventID)
		if err != nil {
			return err
		}
		if err := h.repo.SetConfirmationCount(r.Context(), tx, req.SessionID, count); err != nil {
			return err
		}

		payload, _ := json.Marshal(map[string]interface{}{
			"event_id":       eventID,
			"user_id":        req.UserID,
			"attendees":      count,
			"correlation_id": req.SessionID,
		})
		return h.repo.InsertOutbox(r.Context(), tx, pg.OutboxRecord{
			ID:            uuid.New(),
			AggregateType: "registration",
			AggregateID:   eventID,
			EventType:     "registration.confirmed",
			Payload:       payload,
			DedupeKey:     req.SessionID,
		})
	})
	observability.DBTxDuration.Observe(time.Since(start).Seconds())

	if errors.Is(err, errUnknownPaymentSession) {
		writeErrorMsg(w, http.StatusBadRequest, errUnknownPaymentSession.Error())
		return
	}
	if errors.Is(err, domain.ErrConflict) {
		writeErrorMsg(w, http.StatusConflict, "User already registered")
		return
	}
	if errors.Is(err, pg.ErrSerializationFailure) {
		writeErrorMsg(w, http.StatusConflict, "conflict, try again")
		return
	}
	if err != nil {
		writeErrorMsg(w, http.StatusInternalServerError, err.Error())
		return
	}

	if replay {
		count, err = h.repo.ConfirmationCount(r.Context(), req.SessionID)
		if errors.Is(err, domain.ErrNotFound) {
			count, err = h.repo.AttendeeTotal(r.Context(), eventID)
		}
		if err != nil {
			writeErrorMsg(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	data, _ := json.Marshal(map[string]int{"attendees": count})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)

	h.idemp.Set(r.Context(), req.SessionID, idempotency.Response{Status: http.StatusOK, Result: data})
}

type createCommentRequest struct {
	AuthorID   string `json:"author_id"`
	AuthorName string `json:"author_name"`
	Text       string `json:"text"`
}

func commentWire(doc mongoadapter.CommentDoc) map[string]interface{} {
	return map[string]interface{}{
		"id":          doc.ID,
		"event_id":    doc.EventID,
		"author_id":   doc.AuthorID,
		"author_name": doc.AuthorName,
		"text":        doc.Text,
		"created_at":  doc.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *Handlers) ListComments(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	docs, err := h.engage.ListComments(r.Context(), eventID)
	if err != nil {
		writeErrorMsg(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]map[string]interface{}, len(docs))
	for i, d := range docs {
		out[i] = commentWire(d)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) CreateComment(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	var req createCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.AuthorID == "" || strings.TrimSpace(req.Text) == "" {
		writeErrorMsg(w, http.StatusBadRequest, "author_id and text are required")
		return
	}
	if _, ok := h.getEvent(w, r, eventID); !ok {
		return
	}

	doc, err := h.engage.InsertComment(r.Context(), mongoadapter.CommentDoc{
		EventID:    eventID,
		AuthorID:   req.AuthorID,
		AuthorName: req.AuthorName,
		Text:       strings.TrimSpace(req.Text),
	})
	if err != nil {
		writeErrorMsg(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, commentWire(doc))
}

type submitFeedbackRequest struct {
	UserID  string `json:"user_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func feedbackWire(doc mongoadapter.FeedbackDoc) map[string]interface{} {
	return map[string]interface{}{
		"id":         doc.ID,
		"event_id":   doc.EventID,
		"user_id":    doc.UserID,
		"rating":     doc.Rating,
		"comment":    doc.Comment,
		"created_at": doc.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *Handlers) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	var req submitFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID == "" || domain.ValidateRating(req.Rating) != nil {
		writeErrorMsg(w, http.StatusBadRequest, "Invalid feedback data. Rating must be between 1-5.")
		return
	}
	if _, ok := h.getEvent(w, r, eventID); !ok {
		return
	}
	attended, err := h.repo.IsAttendee(r.Context(), eventID, req.UserID)
	if err != nil {
		writeErrorMsg(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !attended {
		writeErrorMsg(w, http.StatusForbidden, "User did not attend this event")
		return
	}

	doc, err := h.engage.InsertFeedback(r.Context(), mongoadapter.FeedbackDoc{
		EventID: eventID,
		UserID:  req.UserID,
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if mongo.IsDuplicateKeyError(err) {
		writeErrorMsg(w, http.StatusConflict, "User already submitted feedback for this event")
		return
	}
	if err != nil {
		writeErrorMsg(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, feedbackWire(doc))
}

func (h *Handlers) EventFeedback(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	if _, ok := h.getEvent(w, r, eventID); !ok {
		return
	}
	docs, err := h.engage.ListFeedback(r.Context(), eventID)
	if err != nil {
		writeErrorMsg(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]map[string]interface{}, len(docs))
	sum := 0
	for i, d := range docs {
		out[i] = feedbackWire(d)
		sum += d.Rating
	}
	avg := 0.0
	if len(docs) > 0 {
		avg = math.Round(float64(sum)/float64(len(docs))*10) / 10
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"feedbacks":      out,
		"count":          len(docs),
		"average_rating": avg,
	})
}

// UserEventFeedback returns one user's feedback for one event.
func (h *Handlers) UserEventFeedback(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	eventID := chi.URLParam(r, "eventID")

	doc, err := h.engage.GetFeedback(r.Context(), eventID, userID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		writeErrorMsg(w, http.StatusNotFound, "No feedback found")
		return
	}
	if err != nil {
		writeErrorMsg(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, feedbackWire(doc))
}

// PendingFeedback lists past events the user attended but has not rated.
func (h *Handlers) PendingFeedback(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	ids, err := h.repo.EventsForUser(r.Context(), userID)
	if err != nil {
		writeErrorMsg(w, http.StatusInternalServerError, err.Error())
		return
	}
	docs, err := h.catalog.ListEventsByID(r.Context(), ids)
	if err != nil {
		writeErrorMsg(w, http.StatusInternalServerError, err.Error())
		return
	}

	now := time.Now()
	pending := make([]map[string]interface{}, 0)
	for _, d := range docs {
		if !d.Date.Before(now) {
			continue
		}
		rated, err := h.engage.HasFeedback(r.Context(), d.ID, userID)
		if err != nil {
			writeErrorMsg(w, http.StatusInternalServerError, err.Error())
			return
		}
		if rated {
			continue
		}
		pending = append(pending, eventWire(d, nil))
	}
	writeJSON(w, http.StatusOK, pending)
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ready"))
}
