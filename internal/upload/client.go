package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrRejected is returned when the server refuses a file outright. Rejected
// files are not retried.
var ErrRejected = errors.New("upload: rejected by server")

// Result is the server's summary of one imported file.
type Result struct {
	Message   string `json:"message"`
	Workouts  int    `json:"workouts"`
	Templates int    `json:"templates"`
	Exercises int    `json:"exercises"`
	Replaced  int    `json:"replaced"`
}

// Client sends bulk files to a wodlink server over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
	attempts   int
	backoff    time.Duration
}

// NewClient creates a new HTTP client for the wodlink server.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		attempts: 3,
		backoff:  time.Second,
	}
}

// SendFile POSTs a master or blueprint file to the server's import endpoint.
// Transport errors and 5xx responses are retried up to 3 times with
// exponential backoff.
func (c *Client) SendFile(ctx context.Context, data []byte, dryRun bool) (*Result, error) {
	url := c.serverURL + "/api/v1/import"
	if dryRun {
		url += "?dry_run=true"
	}

	var lastErr error
	for attempt := range c.attempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff << uint(attempt-1)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("building request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("X-API-Key", c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			var res Result
			if err := json.Unmarshal(body, &res); err != nil {
				return nil, fmt.Errorf("decoding import response: %w", err)
			}
			return &res, nil
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("import failed (status %d): %s", resp.StatusCode, body)
		default:
			return nil, fmt.Errorf("%w (status %d): %s", ErrRejected, resp.StatusCode, body)
		}
	}

	return nil, fmt.Errorf("after %d attempts: %w", c.attempts, lastErr)
}
