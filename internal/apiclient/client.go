// Package apiclient is the single HTTP boundary between the client application
// and the backend API. Responses are decoded and normalized here; failures are
// mapped onto the domain error taxonomy so callers can branch with errors.Is.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/eventdesk/eventdesk/internal/domain"
	"github.com/eventdesk/eventdesk/internal/observability"
)

type Client struct {
	base   string
	http   *http.Client
	logger observability.Logger
}

// New builds a client against base. Every call is bounded by timeout so a flow
// is reported as failed rather than left pending indefinitely.
func New(base string, timeout time.Duration, logger observability.Logger) *Client {
	return &Client{
		base:   strings.TrimRight(base, "/"),
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// No response arrived: the caller must not assume any state change.
		return errors.Wrapf(domain.ErrUnavailable, "%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(domain.ErrUnavailable, "%s %s: %v", method, path, err)
	}

	if resp.StatusCode >= 300 {
		var eb errorBody
		_ = json.Unmarshal(data, &eb)
		return mapStatus(resp.StatusCode, eb.Error)
	}

	if out == nil {
		return nil
	}
	switch v := out.(type) {
	case *[]byte:
		*v = data
		return nil
	default:
		return json.Unmarshal(data, out)
	}
}

func mapStatus(code int, msg string) error {
	switch {
	case code == http.StatusNotFound:
		return errors.Wrapf(domain.ErrNotFound, "%s", msg)
	case code == http.StatusConflict:
		return errors.Wrapf(domain.ErrConflict, "%s", msg)
	case code == http.StatusForbidden || code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		return errors.Wrapf(domain.ErrInvalidInput, "%s", msg)
	default:
		return errors.Newf("backend returned %d: %s", code, msg)
	}
}
