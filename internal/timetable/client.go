package timetable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/classmanager/backend/internal/models"
	appErrors "github.com/classmanager/backend/pkg/errors"
)

// Client talks to the scheduling service REST API and implements Service.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithToken sets the bearer token attached to every request.
func WithToken(token string) ClientOption {
	return func(c *Client) { c.token = token }
}

// NewClient builds a scheduling service client for the given base URL, e.g.
// "http://localhost:8080/api/v1".
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope mirrors the service's common response contract.
type envelope struct {
	Data       json.RawMessage   `json:"data"`
	Error      *appErrors.Error  `json:"error"`
	Pagination *models.Pagination `json:"pagination"`
}

// TimeWindow fetches the course time window. A 404 maps to the
// not-configured error so callers can distinguish it from transport
// failures.
func (c *Client) TimeWindow(ctx context.Context, courseID string) (*models.TimeWindow, error) {
	var window models.TimeWindow
	if _, err := c.do(ctx, http.MethodGet, "/courses/"+url.PathEscape(courseID)+"/time-window", nil, &window); err != nil {
		return nil, err
	}
	return &window, nil
}

// Groups fetches one page of assignable groups for a course.
func (c *Client) Groups(ctx context.Context, courseID string, page, pageSize int) ([]models.ClassGroup, *models.Pagination, error) {
	query := url.Values{}
	query.Set("courseId", courseID)
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(pageSize))

	var groups []models.ClassGroup
	pagination, err := c.do(ctx, http.MethodGet, "/groups?"+query.Encode(), nil, &groups)
	if err != nil {
		return nil, nil, err
	}
	return groups, pagination, nil
}

// Schedules fetches all placed entries for a course and term.
func (c *Client) Schedules(ctx context.Context, courseID, termID string) ([]models.ScheduleEntry, error) {
	query := url.Values{}
	query.Set("courseId", courseID)
	query.Set("termId", termID)

	var entries []models.ScheduleEntry
	if _, err := c.do(ctx, http.MethodGet, "/schedules?"+query.Encode(), nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// PlaceSchedule creates a new entry for a group.
func (c *Client) PlaceSchedule(ctx context.Context, req PlacementRequest) (*models.ScheduleEntry, error) {
	var entry models.ScheduleEntry
	if _, err := c.do(ctx, http.MethodPost, "/schedules", req, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// MoveSchedule relocates an existing entry.
func (c *Client) MoveSchedule(ctx context.Context, req MoveRequest) (*models.ScheduleEntry, error) {
	var entry models.ScheduleEntry
	if _, err := c.do(ctx, http.MethodPost, "/schedules", req, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// DeleteSchedule removes an entry by id.
func (c *Client) DeleteSchedule(ctx context.Context, scheduleID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/schedules/"+url.PathEscape(scheduleID), nil, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body, dest interface{}) (*models.Pagination, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response for %s %s: %w", method, path, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, c.asError(resp.StatusCode, env.Error)
	}

	if dest != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, dest); err != nil {
			return nil, fmt.Errorf("decode payload for %s %s: %w", method, path, err)
		}
	}
	return env.Pagination, nil
}

// asError maps service error envelopes to typed errors: 404 becomes the
// not-configured/not-found class, 409 becomes a ScheduleConflictError whose
// code is the machine-readable conflict reason.
func (c *Client) asError(status int, apiErr *appErrors.Error) error {
	if apiErr == nil {
		return appErrors.New(appErrors.ErrInternal.Code, status, http.StatusText(status))
	}
	if status == http.StatusConflict {
		return &models.ScheduleConflictError{
			Code:    models.ConflictCode(apiErr.Code),
			Message: apiErr.Message,
		}
	}
	return appErrors.New(apiErr.Code, status, apiErr.Message)
}
