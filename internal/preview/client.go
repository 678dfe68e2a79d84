package preview

import (
	"context"
	"fmt"
	"time"

	"resty.dev/v3"
)

// Result is the preview service's answer for one URL. Success false (or any
// transport error) means no preview; callers swallow both.
type Result struct {
	Success     bool   `json:"success"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	SiteName    string `json:"site_name,omitempty"`
}

// Fetcher is what the submission pipeline needs from the preview collaborator.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Result, error)
}

// Client calls the hosted link-preview function over HTTP.
type Client struct {
	client  *resty.Client
	baseURL string
}

// NewClient builds a preview client for the service at baseURL. token, when
// non-empty, is sent as a bearer credential.
func NewClient(baseURL, token string) *Client {
	client := resty.New().
		SetTimeout(10 * time.Second)
	if token != "" {
		client.SetAuthToken(token)
	}

	return &Client{client: client, baseURL: baseURL}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// Fetch asks the service for metadata on one URL.
func (c *Client) Fetch(ctx context.Context, url string) (*Result, error) {
	res, err := c.client.R().
		WithContext(ctx).
		SetBody(map[string]string{"url": url}).
		SetResult(&Result{}).
		Post(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("preview fetch: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("preview fetch: status %d", res.StatusCode())
	}

	return res.Result().(*Result), nil
}
