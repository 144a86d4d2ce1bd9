// Package comments posts event comments and keeps the local feed in sync.
package comments

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/eventdesk/eventdesk/internal/apiclient"
	"github.com/eventdesk/eventdesk/internal/domain"
)

type Submitter struct {
	api *apiclient.Client

	mu   sync.Mutex
	feed map[string][]domain.Comment
}

func NewSubmitter(api *apiclient.Client) *Submitter {
	return &Submitter{api: api, feed: make(map[string][]domain.Comment)}
}

// Load replaces the local feed for an event from the backend.
func (s *Submitter) Load(ctx context.Context, eventID string) ([]domain.Comment, error) {
	comments, err := s.api.ListComments(ctx, eventID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.feed[eventID] = comments
	s.mu.Unlock()
	return comments, nil
}

// Post validates text client-side, creates the comment, and prepends it to the
// local feed on success.
func (s *Submitter) Post(ctx context.Context, eventID, authorID, authorName, text string) (domain.Comment, error) {
	if err := domain.ValidateComment(text); err != nil {
		return domain.Comment{}, errors.Wrap(err, "comment text is required")
	}
	comment, err := s.api.PostComment(ctx, eventID, authorID, authorName, text)
	if err != nil {
		return domain.Comment{}, err
	}
	s.mu.Lock()
	s.feed[eventID] = append([]domain.Comment{comment}, s.feed[eventID]...)
	s.mu.Unlock()
	return comment, nil
}

// Feed returns the local feed for an event, newest first.
func (s *Submitter) Feed(eventID string) []domain.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Comment, len(s.feed[eventID]))
	copy(out, s.feed[eventID])
	return out
}
