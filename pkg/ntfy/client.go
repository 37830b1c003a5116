package ntfy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// DefaultServer is the public ntfy instance.
const DefaultServer = "https://ntfy.sh"

// Message is one push notification.
type Message struct {
	Topic string
	Title string
	Tags  []string
	Body  string
}

// Error is returned when the server answers with a non-success status.
type Error struct {
	Status     int
	StatusText string
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("ntfy request failed (%d %s): %s", e.Status, e.StatusText, e.Body)
}

// Client publishes messages to an ntfy server.
type Client struct {
	httpClient *http.Client
	server     string
}

// NewClient creates a Client. An empty server uses DefaultServer.
func NewClient(httpClient *http.Client, server string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if server == "" {
		server = DefaultServer
	}
	return &Client{httpClient: httpClient, server: strings.TrimRight(server, "/")}
}

// Publish sends msg as a plain-text POST to its topic.
func (c *Client) Publish(ctx context.Context, msg Message) error {
	if msg.Topic == "" {
		return fmt.Errorf("ntfy topic is empty")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.server+"/"+url.PathEscape(msg.Topic), strings.NewReader(msg.Body))
	if err != nil {
		return err
	}
	if msg.Title != "" {
		req.Header.Set("Title", msg.Title)
	}
	if len(msg.Tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.Tags, ","))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &Error{
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Body:       string(b),
		}
	}
	return nil
}
