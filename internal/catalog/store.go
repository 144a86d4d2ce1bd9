// Package catalog holds the fetched event list and its filtered views. The
// snapshot is replaced wholesale on re-fetch; readers never mutate it.
package catalog

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/eventdesk/eventdesk/internal/apiclient"
	"github.com/eventdesk/eventdesk/internal/domain"
	"github.com/eventdesk/eventdesk/internal/observability"
)

type Timeframe string

const (
	TimeframeAll      Timeframe = "all"
	TimeframeUpcoming Timeframe = "upcoming"
	TimeframePast     Timeframe = "past"
)

type Store struct {
	api    *apiclient.Client
	logger observability.Logger
	now    func() time.Time

	mu     sync.RWMutex
	events []domain.Event
}

func NewStore(api *apiclient.Client, logger observability.Logger) *Store {
	return &Store{api: api, logger: logger, now: time.Now}
}

// LoadAll re-fetches the whole catalog and replaces the snapshot. The local
// copy is non-authoritative; after any write the server response wins.
func (s *Store) LoadAll(ctx context.Context) ([]domain.Event, error) {
	events, err := s.api.FetchEvents(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.events = events
	s.mu.Unlock()
	s.logger.WithField("count", len(events)).Debug("catalog refreshed")
	return events, nil
}

// Events returns the current snapshot.
func (s *Store) Events() []domain.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Get returns one event from the snapshot by id.
func (s *Store) Get(id string) (domain.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ev := range s.events {
		if ev.ID == id {
			return ev, true
		}
	}
	return domain.Event{}, false
}

// ApplyCount records a server-returned attendee count and membership for
// userID after a confirmed registration.
func (s *Store) ApplyCount(eventID, userID string, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.events {
		if s.events[i].ID != eventID {
			continue
		}
		s.events[i].AttendeeCount = count
		if !s.events[i].HasAttendee(userID) {
			s.events[i].Attendees = append(s.events[i].Attendees, userID)
		}
		return
	}
}

// Filter narrows events by a case-insensitive substring match on title and a
// timeframe relative to now. An event starting exactly at now is upcoming.
func (s *Store) Filter(events []domain.Event, query string, timeframe Timeframe) []domain.Event {
	now := s.now()
	query = strings.ToLower(strings.TrimSpace(query))

	out := make([]domain.Event, 0, len(events))
	for _, ev := range events {
		if query != "" && !strings.Contains(strings.ToLower(ev.Title), query) {
			continue
		}
		switch timeframe {
		case TimeframeUpcoming:
			if !ev.Upcoming(now) {
				continue
			}
		case TimeframePast:
			if ev.Upcoming(now) {
				continue
			}
		}
		out = append(out, ev)
	}
	return out
}
