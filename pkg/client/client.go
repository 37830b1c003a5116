package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/adranna/tasknotes/pkg/auth"
	"github.com/adranna/tasknotes/pkg/model"
	"github.com/adranna/tasknotes/pkg/notion"
	"github.com/adranna/tasknotes/pkg/server"
)

// Error is a non-2xx answer from the task API.
type Error struct {
	Status int
}

func (e *Error) Error() string {
	return fmt.Sprintf("task api request failed (%d %s)", e.Status, http.StatusText(e.Status))
}

// Client talks to a running task API.
type Client struct {
	http    *http.Client
	baseURL string
}

// New creates a Client for baseURL. When token is non-empty it is sent as
// the session bearer on every request.
func New(ctx context.Context, baseURL, token string) (*Client, error) {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	if token != "" {
		var err error
		httpClient, err = auth.NewBearerClient(ctx, token, httpClient)
		if err != nil {
			return nil, err
		}
	}
	return &Client{http: httpClient, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// ListTasks fetches tasks sorted by due date. openOnly drops done tasks.
func (c *Client) ListTasks(ctx context.Context, direction notion.SortDirection, openOnly bool) ([]model.Task, error) {
	status := "all"
	if openOnly {
		status = "open"
	}
	q := url.Values{}
	q.Set("sort", string(direction))
	q.Set("status", status)

	var result server.LoaderResult
	if err := c.do(ctx, http.MethodGet, "/api/tasks?"+q.Encode(), nil, &result); err != nil {
		return nil, err
	}
	if result.IsError {
		return nil, fmt.Errorf("task api reported an error")
	}
	return result.Data, nil
}

// LoadTasks returns every task in ascending due order.
func (c *Client) LoadTasks(ctx context.Context) ([]model.Task, error) {
	return c.ListTasks(ctx, notion.Ascending, false)
}

// MarkTaskDone sends a completion update.
func (c *Client) MarkTaskDone(ctx context.Context, taskID string, done bool, doneAt *time.Time) error {
	req := server.DoneRequest{Done: &done}
	if done && doneAt != nil {
		s := doneAt.Format(time.RFC3339Nano)
		req.DoneAt = &s
	}
	path := "/api/tasks/" + url.PathEscape(taskID) + "/done"
	return c.do(ctx, http.MethodPost, path, req, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Status: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
