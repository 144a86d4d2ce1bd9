// Package feedback submits post-event ratings. The backend enforces one
// feedback per (user, event); a duplicate rejection is an expected,
// informational outcome rather than a failure.
package feedback

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/eventdesk/eventdesk/internal/apiclient"
	"github.com/eventdesk/eventdesk/internal/domain"
)

type SubmitStatus string

const (
	StatusSubmitted SubmitStatus = "submitted"
	StatusDuplicate SubmitStatus = "duplicate"
)

type SubmitResult struct {
	Status   SubmitStatus
	Feedback domain.Feedback
}

type Submitter struct {
	api *apiclient.Client

	mu   sync.Mutex
	feed map[string][]domain.Feedback
}

func NewSubmitter(api *apiclient.Client) *Submitter {
	return &Submitter{api: api, feed: make(map[string][]domain.Feedback)}
}

// Submit validates the rating client-side before any network call, then posts.
// On success the feedback is prepended to the local list. A duplicate
// rejection comes back as StatusDuplicate, not as an error.
func (s *Submitter) Submit(ctx context.Context, eventID, userID string, rating int, comment string) (SubmitResult, error) {
	if err := domain.ValidateRating(rating); err != nil {
		return SubmitResult{}, errors.Wrapf(err, "rating must be an integer between %d and %d", domain.RatingMin, domain.RatingMax)
	}
	fb, err := s.api.SubmitFeedback(ctx, eventID, userID, rating, comment)
	if errors.Is(err, domain.ErrConflict) {
		return SubmitResult{Status: StatusDuplicate}, nil
	}
	if err != nil {
		return SubmitResult{}, err
	}
	s.mu.Lock()
	s.feed[eventID] = append([]domain.Feedback{fb}, s.feed[eventID]...)
	s.mu.Unlock()
	return SubmitResult{Status: StatusSubmitted, Feedback: fb}, nil
}

// Load replaces the local list for an event with the backend's summary.
func (s *Submitter) Load(ctx context.Context, eventID string) (apiclient.FeedbackSummary, error) {
	summary, err := s.api.EventFeedback(ctx, eventID)
	if err != nil {
		return apiclient.FeedbackSummary{}, err
	}
	s.mu.Lock()
	s.feed[eventID] = summary.Feedbacks
	s.mu.Unlock()
	return summary, nil
}

// Feed returns the local list for an event, newest first.
func (s *Submitter) Feed(eventID string) []domain.Feedback {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Feedback, len(s.feed[eventID]))
	copy(out, s.feed[eventID])
	return out
}

// Pending lists past events the user attended but has not rated yet.
func (s *Submitter) Pending(ctx context.Context, userID string) ([]domain.Event, error) {
	return s.api.PendingFeedback(ctx, userID)
}
