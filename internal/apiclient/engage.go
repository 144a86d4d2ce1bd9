package apiclient

import (
	"context"
	"net/http"

	"github.com/eventdesk/eventdesk/internal/domain"
)

// ListComments returns the comments for an event, newest first.
func (c *Client) ListComments(ctx context.Context, eventID string) ([]domain.Comment, error) {
	var comments []domain.Comment
	if err := c.do(ctx, http.MethodGet, "/api/events/"+eventID+"/comments", nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

type postCommentRequest struct {
	AuthorID   string `json:"author_id"`
	AuthorName string `json:"author_name"`
	Text       string `json:"text"`
}

func (c *Client) PostComment(ctx context.Context, eventID, authorID, authorName, text string) (domain.Comment, error) {
	req := postCommentRequest{AuthorID: authorID, AuthorName: authorName, Text: text}
	var comment domain.Comment
	if err := c.do(ctx, http.MethodPost, "/api/events/"+eventID+"/comments", req, &comment); err != nil {
		return domain.Comment{}, err
	}
	return comment, nil
}

type submitFeedbackRequest struct {
	UserID  string `json:"user_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

func (c *Client) SubmitFeedback(ctx context.Context, eventID, userID string, rating int, comment string) (domain.Feedback, error) {
	req := submitFeedbackRequest{UserID: userID, Rating: rating, Comment: comment}
	var fb domain.Feedback
	if err := c.do(ctx, http.MethodPost, "/api/feedback/submit/"+eventID, req, &fb); err != nil {
		return domain.Feedback{}, err
	}
	return fb, nil
}

// FeedbackSummary mirrors the backend's event feedback envelope: the entries
// plus the precomputed average.
type FeedbackSummary struct {
	Feedbacks     []domain.Feedback `json:"feedbacks"`
	Count         int               `json:"count"`
	AverageRating float64           `json:"average_rating"`
}

func (c *Client) EventFeedback(ctx context.Context, eventID string) (FeedbackSummary, error) {
	var summary FeedbackSummary
	if err := c.do(ctx, http.MethodGet, "/api/feedback/event/"+eventID, nil, &summary); err != nil {
		return FeedbackSummary{}, err
	}
	return summary, nil
}

// PendingFeedback lists past events the user attended but has not rated yet.
func (c *Client) PendingFeedback(ctx context.Context, userID string) ([]domain.Event, error) {
	var raw []byte
	if err := c.do(ctx, http.MethodGet, "/api/feedback/pending/"+userID, nil, &raw); err != nil {
		return nil, err
	}
	return domain.NormalizeEvents(raw)
}
