package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// RawResponse is an unprocessed backend response with status and body.
type RawResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// Err converts a non-2xx response into an [APIError]; 2xx responses return nil.
func (r *RawResponse) Err() error {
	if r.StatusCode >= 200 && r.StatusCode < 300 {
		return nil
	}
	return newAPIError(&http.Response{StatusCode: r.StatusCode}, r.Body)
}

// Get performs a GET request to path and returns the raw response without status checks.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*RawResponse, error) {
	return c.Raw(ctx, http.MethodGet, path, query, nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (c *Client) Post(ctx context.Context, path string, query url.Values, data []byte) (*RawResponse, error) {
	return c.Raw(ctx, http.MethodPost, path, query, json.RawMessage(data))
}

// Raw performs an arbitrary request. Bodies are JSON-encoded; a nil body sends none.
func (c *Client) Raw(ctx context.Context, method, path string, query url.Values, body any) (*RawResponse, error) {
	if raw, ok := body.(json.RawMessage); ok && len(raw) == 0 {
		body = nil
	}

	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}

	resp, data, err := c.send(req)
	if err != nil {
		return nil, err
	}

	raw := &RawResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}

	var jsonData any
	if err := json.Unmarshal(data, &jsonData); err == nil {
		raw.IsJSON = true
		raw.JSONData = jsonData
	}
	return raw, nil
}
