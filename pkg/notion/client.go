package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	// DefaultBaseURL is the public API endpoint.
	DefaultBaseURL = "https://api.notion.com/v1"
	// APIVersion is the Notion-Version header value. Data source queries
	// need 2025-09-03 or later.
	APIVersion = "2025-09-03"
)

// APIError is returned for any non-2xx response.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("notion api error (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("notion api error (%d %s): %s", e.Status, e.Code, e.Message)
}

// Client talks to the data source and page endpoints. Authentication is the
// job of the supplied *http.Client (see auth.NewBearerClient).
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another endpoint, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// NewClient creates a Client. A nil httpClient uses http.DefaultClient.
func NewClient(httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{httpClient: httpClient, baseURL: DefaultBaseURL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// QueryDataSource fetches one page of records.
func (c *Client) QueryDataSource(ctx context.Context, dataSourceID string, req QueryRequest) (*QueryResponse, error) {
	var resp QueryResponse
	path := "/data_sources/" + url.PathEscape(dataSourceID) + "/query"
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdatePage writes the given properties of one record.
func (c *Client) UpdatePage(ctx context.Context, pageID string, properties map[string]PropertyValue) error {
	body := struct {
		Properties map[string]PropertyValue `json:"properties"`
	}{Properties: properties}
	return c.do(ctx, http.MethodPatch, "/pages/"+url.PathEscape(pageID), body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Notion-Version", APIVersion)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode notion response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{}
	if err := json.Unmarshal(b, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(b))
	}
	apiErr.Status = resp.StatusCode
	return apiErr
}
