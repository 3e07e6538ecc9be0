// Package client talks to a running habitual server over its REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"

	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/lockfile"
	"github.com/julianstephens/habitual/internal/models"
)

type Client struct {
	baseURL string
	client  *http.Client
}

// StatsOptions are the query parameters of the stats endpoint.
type StatsOptions struct {
	Policy string `url:"policy,omitempty"`
}

// CalendarOptions are the query parameters of the calendar endpoint.
type CalendarOptions struct {
	Days int `url:"days,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func New(baseURL string) *Client {
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 90 * time.Second},
	}
}

// Discover returns a client for the server advertised in dir's lockfile.
func Discover(dir string) (*Client, error) {
	addr, err := lockfile.Find(dir)
	if err != nil {
		return nil, err
	}
	return New(addr), nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any, params any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("unable to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if params != nil {
		v, err := query.Values(params)
		if err != nil {
			return nil, fmt.Errorf("unable to encode query: %w", err)
		}
		req.URL.RawQuery = v.Encode()
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("unable to perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		switch resp.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%s %w", req.URL.Path, apperrors.ErrNotFound)
		case http.StatusBadRequest:
			return apperrors.Invalid("%s", e.Error)
		default:
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, e.Error)
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}

func habitPath(id string, rest ...string) string {
	return "/api/habits/" + url.PathEscape(id) + strings.Join(rest, "")
}

func (c *Client) List(ctx context.Context) ([]models.Habit, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/habits", nil, nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Habits []models.Habit `json:"habits"`
	}
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out.Habits, nil
}

func (c *Client) Get(ctx context.Context, id string) (models.Habit, error) {
	req, err := c.newRequest(ctx, http.MethodGet, habitPath(id), nil, nil)
	if err != nil {
		return models.Habit{}, err
	}
	var habit models.Habit
	return habit, c.do(req, &habit)
}

func (c *Client) Create(ctx context.Context, in models.HabitInput) (models.Habit, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/habits", in, nil)
	if err != nil {
		return models.Habit{}, err
	}
	var habit models.Habit
	return habit, c.do(req, &habit)
}

// Update applies in and returns the stored habit.
func (c *Client) Update(ctx context.Context, id string, in models.HabitInput) (models.Habit, error) {
	req, err := c.newRequest(ctx, http.MethodPut, habitPath(id), in, nil)
	if err != nil {
		return models.Habit{}, err
	}
	if err := c.do(req, nil); err != nil {
		return models.Habit{}, err
	}
	return c.Get(ctx, id)
}

func (c *Client) Delete(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, habitPath(id), nil, nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *Client) Toggle(ctx context.Context, id, date string) (models.ToggleResult, error) {
	req, err := c.newRequest(ctx, http.MethodPost, habitPath(id, "/toggle"), map[string]string{"date": date}, nil)
	if err != nil {
		return models.ToggleResult{}, err
	}
	var res models.ToggleResult
	return res, c.do(req, &res)
}

func (c *Client) Stats(ctx context.Context, opts StatsOptions) (models.StatsReport, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/habits/stats", nil, opts)
	if err != nil {
		return models.StatsReport{}, err
	}
	var report models.StatsReport
	return report, c.do(req, &report)
}

func (c *Client) Calendar(ctx context.Context, id string, opts CalendarOptions) ([]models.CalendarDay, error) {
	req, err := c.newRequest(ctx, http.MethodGet, habitPath(id, "/calendar"), nil, opts)
	if err != nil {
		return nil, err
	}
	var out struct {
		Days []models.CalendarDay `json:"days"`
	}
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out.Days, nil
}

func (c *Client) Insights(ctx context.Context) (models.Insights, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/insights", nil, nil)
	if err != nil {
		return models.Insights{}, err
	}
	var ins models.Insights
	return ins, c.do(req, &ins)
}

func (c *Client) Health(ctx context.Context) (map[string]string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/health", nil, nil)
	if err != nil {
		return nil, err
	}
	health := map[string]string{}
	return health, c.do(req, &health)
}
