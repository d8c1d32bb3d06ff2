package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/meltforce/wodlink/internal/models"
	"github.com/meltforce/wodlink/internal/share"
	"github.com/meltforce/wodlink/internal/teamsync"
)

// HTTPClient implements DataSource by calling the wodlink REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// the workspace lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL. apiKey is
// sent on mutating requests when set.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, params url.Values) (int, []byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("httpclient: create request: %w", err)
	}
	if c.apiKey != "" && method != http.MethodGet {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("httpclient: read body: %w", err)
	}
	return resp.StatusCode, body, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, v any) error {
	status, body, err := c.do(ctx, http.MethodGet, path, params)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("httpclient: %s returned %d: %s", path, status, body)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) Sessions(ctx context.Context, date string) ([]models.Workout, error) {
	params := url.Values{}
	if date != "" {
		params.Set("date", date)
	}
	var workouts []models.Workout
	if err := c.get(ctx, "/api/v1/workouts", params, &workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

func (c *HTTPClient) Blueprints(ctx context.Context) ([]models.Template, error) {
	var templates []models.Template
	if err := c.get(ctx, "/api/v1/templates", nil, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

func (c *HTTPClient) ShareLink(ctx context.Context, kind share.Kind, key string) (string, error) {
	path := "/api/v1/share/" + kind.Param() + "/" + url.PathEscape(key)
	status, body, err := c.do(ctx, http.MethodPost, path, nil)
	if err != nil {
		return "", err
	}
	switch status {
	case http.StatusOK:
	case http.StatusRequestEntityTooLarge:
		return "", fmt.Errorf("%w: %s", share.ErrPayloadTooLarge, body)
	default:
		return "", fmt.Errorf("httpclient: %s returned %d: %s", path, status, body)
	}
	var resp struct {
		Link string `json:"link"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return resp.Link, nil
}

// ImportLink replays the link's query against the server's landing endpoint.
func (c *HTTPClient) ImportLink(ctx context.Context, link string) (*teamsync.Notification, error) {
	u, err := url.Parse(link)
	if err != nil {
		return nil, fmt.Errorf("parsing link: %w", err)
	}
	status, body, err := c.do(ctx, http.MethodGet, "/", u.Query())
	if err != nil {
		return nil, err
	}
	var resp struct {
		Notification *teamsync.Notification `json:"notification"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("httpclient: decode landing response: %w", err)
	}
	if resp.Notification == nil {
		return nil, ErrNoPayload
	}
	if status != http.StatusOK {
		return resp.Notification, fmt.Errorf("%s (status %d)", resp.Notification.Message, status)
	}
	return resp.Notification, nil
}
