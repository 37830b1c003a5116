package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// NewBearerClient returns an *http.Client that sends token as a bearer
// credential on every request. Integration tokens do not expire, so the
// source is static. base may be nil.
func NewBearerClient(ctx context.Context, token string, base *http.Client) (*http.Client, error) {
	if token == "" {
		return nil, fmt.Errorf("bearer token is empty")
	}
	if base == nil {
		base = &http.Client{Timeout: 30 * time.Second}
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
	client.Timeout = base.Timeout
	return client, nil
}
