package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/reptrack/internal/models"
	"github.com/claude/reptrack/internal/schedule"
	"github.com/claude/reptrack/internal/session"
)

// HTTPClient implements DataSource by calling the reptrack REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// the tracker runs elsewhere (reached over Tailscale). The user is whoever
// the remote server identifies the caller as, so userID arguments are ignored.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// errNoContent marks a 404 from an endpoint where absence is a valid answer.
var errNoContent = errors.New("httpclient: not found")

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, errNoContent
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	return body, nil
}

func (c *HTTPClient) TodayWorkouts(ctx context.Context, _ int) ([]schedule.Assignment, error) {
	body, err := c.get(ctx, "/api/v1/today", nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Workouts []schedule.Assignment `json:"workouts"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("httpclient: decode today: %w", err)
	}
	return resp.Workouts, nil
}

func (c *HTTPClient) Reminders(ctx context.Context, _ int) ([]schedule.Reminder, error) {
	body, err := c.get(ctx, "/api/v1/reminders", nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Incomplete []schedule.Reminder `json:"incomplete_workouts"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("httpclient: decode reminders: %w", err)
	}
	return resp.Incomplete, nil
}

func (c *HTTPClient) Calendar(ctx context.Context, _ int, month string) (schedule.Month, error) {
	params := url.Values{}
	if month != "" {
		params.Set("month", month)
	}

	body, err := c.get(ctx, "/api/v1/calendar", params)
	if err != nil {
		return schedule.Month{}, err
	}

	var m schedule.Month
	if err := json.Unmarshal(body, &m); err != nil {
		return schedule.Month{}, fmt.Errorf("httpclient: decode calendar: %w", err)
	}
	return m, nil
}

func (c *HTTPClient) ActiveSession(ctx context.Context) (*session.Session, error) {
	body, err := c.get(ctx, "/api/v1/workouts/active", nil)
	if errors.Is(err, errNoContent) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var resp struct {
		Session session.Session `json:"session"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("httpclient: decode active session: %w", err)
	}
	return &resp.Session, nil
}

func (c *HTTPClient) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	body, err := c.get(ctx, "/api/v1/exercises", nil)
	if err != nil {
		return nil, err
	}

	var exercises []models.Exercise
	if err := json.Unmarshal(body, &exercises); err != nil {
		return nil, fmt.Errorf("httpclient: decode exercises: %w", err)
	}
	return exercises, nil
}
