package domain

import (
	"strings"
	"time"
)

// Comment is immutable once created. No edit or delete.
type Comment struct {
	ID         string    `json:"id"`
	EventID    string    `json:"event_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

// Feedback is a post-event rating. The backend enforces one per (user, event);
// a duplicate submission is a benign conflict, not a failure.
type Feedback struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	RatingMin = 1
	RatingMax = 5
)

// ValidateComment rejects empty comment text before it reaches the network.
func ValidateComment(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrInvalidInput
	}
	return nil
}

// ValidateRating enforces the 1..5 inclusive range.
func ValidateRating(rating int) error {
	if rating < RatingMin || rating > RatingMax {
		return ErrInvalidInput
	}
	return nil
}
