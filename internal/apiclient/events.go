package apiclient

import (
	"context"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/eventdesk/eventdesk/internal/domain"
)

// FetchEvents loads the full catalog and normalizes every entry at the
// ingestion boundary.
func (c *Client) FetchEvents(ctx context.Context) ([]domain.Event, error) {
	var raw []byte
	if err := c.do(ctx, http.MethodGet, "/api/events/all", nil, &raw); err != nil {
		return nil, err
	}
	return domain.NormalizeEvents(raw)
}

type CreateEventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Date        string `json:"date"`
	PriceCents  int64  `json:"price_cents"`
	ImageURL    string `json:"image_url,omitempty"`
}

// CreateEvent is the organizer flow.
func (c *Client) CreateEvent(ctx context.Context, req CreateEventRequest) (domain.Event, error) {
	if strings.TrimSpace(req.Title) == "" || req.Date == "" {
		return domain.Event{}, errors.Wrap(domain.ErrInvalidInput, "event title and date are required")
	}
	var raw []byte
	if err := c.do(ctx, http.MethodPost, "/api/events/create", req, &raw); err != nil {
		return domain.Event{}, err
	}
	return domain.NormalizeEvent(raw)
}

type paymentSessionRequest struct {
	EventID string `json:"eventId"`
	Price   int64  `json:"price"`
	Title   string `json:"title"`
}

type paymentSessionResponse struct {
	ID          string `json:"id"`
	CheckoutURL string `json:"checkout_url,omitempty"`
}

// PaymentSession is the provider handoff for a paid registration. The session
// id doubles as the attempt's correlation id across the redirect.
type PaymentSession struct {
	ID          string
	CheckoutURL string
}

// CreatePaymentSession asks the backend to mint a checkout session for a paid
// event.
func (c *Client) CreatePaymentSession(ctx context.Context, eventID string, priceCents int64, title string) (PaymentSession, error) {
	req := paymentSessionRequest{EventID: eventID, Price: priceCents, Title: title}
	var resp paymentSessionResponse
	if err := c.do(ctx, http.MethodPost, "/api/events/create-payment", req, &resp); err != nil {
		return PaymentSession{}, err
	}
	if resp.ID == "" {
		return PaymentSession{}, errors.New("payment session response missing id")
	}
	return PaymentSession{ID: resp.ID, CheckoutURL: resp.CheckoutURL}, nil
}

type confirmRequest struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

type confirmResponse struct {
	Attendees int `json:"attendees"`
}

// ConfirmRegistration appends the user to the event's attendee set, deduped
// backend-side by the correlation id. The returned count is authoritative;
// callers must not locally increment. A domain.ErrConflict return means the
// user was already registered.
func (c *Client) ConfirmRegistration(ctx context.Context, eventID, userID, correlationID string) (int, error) {
	req := confirmRequest{UserID: userID, SessionID: correlationID}
	var resp confirmResponse
	if err := c.do(ctx, http.MethodPost, "/api/events/update-attendees/"+eventID, req, &resp); err != nil {
		return 0, err
	}
	return resp.Attendees, nil
}
