package domain

import (
	"encoding/json"
	"math"
	"strings"
	"time"
)

// Event is the canonical, normalized shape of an event. Everything the rest of
// the codebase touches goes through this type; legacy field fallbacks live only
// in NormalizeEvent.
type Event struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Location      string    `json:"location"`
	StartsAt      time.Time `json:"starts_at"`
	PriceCents    int64     `json:"price_cents"`
	ImageURL      string    `json:"image_url,omitempty"`
	Attendees     []string  `json:"attendees"`
	AttendeeCount int       `json:"attendee_count"`
}

// Free reports whether registration requires no payment step.
func (e Event) Free() bool {
	return e.PriceCents <= 0
}

// HasAttendee reports whether userID is already in the attendee set.
func (e Event) HasAttendee(userID string) bool {
	for _, id := range e.Attendees {
		if id == userID {
			return true
		}
	}
	return false
}

// Upcoming classifies the event against now. An event starting exactly at now
// counts as upcoming.
func (e Event) Upcoming(now time.Time) bool {
	return !e.StartsAt.Before(now)
}

// rawEvent accepts the historical wire shapes: id under "id" or "_id", the
// title under "title", "name" or "eventName", date either RFC3339 or a bare
// "date" string, and price as a float amount or integer cents.
type rawEvent struct {
	ID          string   `json:"id"`
	MongoID     string   `json:"_id"`
	Title       string   `json:"title"`
	Name        string   `json:"name"`
	EventName   string   `json:"eventName"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Date        string   `json:"date"`
	Price       *float64 `json:"price"`
	PriceCents  *int64   `json:"price_cents"`
	ImageURL    string   `json:"image_url"`
	Attendees   []string `json:"attendees"`
	Count       *int     `json:"attendee_count"`
}

// NormalizeEvent is the single ingestion point for event payloads. Consumers
// never see the fallback chains.
func NormalizeEvent(data []byte) (Event, error) {
	var raw rawEvent
	if err := json.Unmarshal(data, &raw); err != nil {
		return Event{}, err
	}

	ev := Event{
		ID:          firstNonEmpty(raw.ID, raw.MongoID),
		Title:       firstNonEmpty(raw.Title, raw.Name, raw.EventName),
		Description: raw.Description,
		Location:    raw.Location,
		ImageURL:    raw.ImageURL,
		Attendees:   dedupe(raw.Attendees),
	}
	if ev.ID == "" {
		return Event{}, ErrInvalidInput
	}
	if raw.Date != "" {
		ts, err := time.Parse(time.RFC3339, raw.Date)
		if err != nil {
			return Event{}, err
		}
		ev.StartsAt = ts
	}
	switch {
	case raw.PriceCents != nil:
		ev.PriceCents = *raw.PriceCents
	case raw.Price != nil:
		// Round, don't truncate: 19.99 is not representable in binary floating
		// point and truncation would drop a cent.
		ev.PriceCents = int64(math.Round(*raw.Price * 100))
	}
	// Server-returned count wins after any mutation; the array length is only
	// the initial-load fallback.
	if raw.Count != nil {
		ev.AttendeeCount = *raw.Count
	} else {
		ev.AttendeeCount = len(ev.Attendees)
	}
	return ev, nil
}

// NormalizeEvents decodes a JSON array of events, dropping entries that do not
// carry an identifier.
func NormalizeEvents(data []byte) ([]Event, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, err
	}
	events := make([]Event, 0, len(raws))
	for _, r := range raws {
		ev, err := NormalizeEvent(r)
		if err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func dedupe(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
