package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/epg-sync/epgctl/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "http://localhost:8080"
	defaultTimeout = 30 * time.Second
)

// APIError is a non-2xx response from the backend.
//
// Message prefers the body's "error" field, then "message", then the HTTP status text.
type APIError struct {
	StatusCode int
	Message    string
	fromServer bool
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%v (status %d): %s", shared.ErrAPIRequest, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return shared.ErrAPIRequest }

// ServerMessage returns the message the backend sent, or "" when the body carried none.
func (e *APIError) ServerMessage() string {
	if !e.fromServer {
		return ""
	}
	return e.Message
}

// IsStatus reports whether err is an [APIError] with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// Options configures a [Client].
type Options struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	UserAgent         string
	// Transport defaults to [http.DefaultTransport].
	Transport http.RoundTripper
	Logger    *log.Logger
}

// OptionsFromConfig maps the [api] config section onto [Options].
func OptionsFromConfig(c shared.APIConfig) Options {
	return Options{
		BaseURL:           c.BaseURL,
		Timeout:           c.Timeout.Duration,
		RequestsPerSecond: c.RequestsPerSecond,
		Burst:             c.Burst,
		UserAgent:         c.UserAgent,
	}
}

// Client talks to the EPG backend.
//
// Once a token is set with [Client.SetToken], every request carries "Authorization: Bearer <token>"
// until [Client.ClearToken] is called.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	logger     *log.Logger

	mu    sync.RWMutex
	token *oauth2.Token
}

// NewClient creates a new backend client.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}

	c := &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		limiter:   rate.NewLimiter(limit, opts.Burst),
		userAgent: opts.UserAgent,
		logger:    opts.Logger,
	}
	c.httpClient = &http.Client{
		Timeout:   opts.Timeout,
		Transport: &bearerTransport{base: opts.Transport, token: c.currentToken},
	}
	return c
}

// SetLogger replaces the client's request logger.
func (c *Client) SetLogger(logger *log.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = logger
}

// BaseURL returns the backend root the client was configured with.
func (c *Client) BaseURL() string { return c.baseURL }

// SetToken makes every later request carry the bearer token.
func (c *Client) SetToken(accessToken string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}
}

// ClearToken removes the default authorization header.
func (c *Client) ClearToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = nil
}

// AuthorizationHeader returns the Authorization value sent with requests, or "" when anonymous.
func (c *Client) AuthorizationHeader() string {
	tok := c.currentToken()
	if tok == nil {
		return ""
	}
	return tok.Type() + " " + tok.AccessToken
}

func (c *Client) currentToken() *oauth2.Token {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// bearerTransport stamps the client's current token onto each outgoing request.
type bearerTransport struct {
	base  http.RoundTripper
	token func() *oauth2.Token
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	tok := t.token()
	if tok == nil {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	tok.SetAuthHeader(clone)
	return t.base.RoundTrip(clone)
}

// envelope is the backend's {code, message, data} / {code, message, error} wrapper.
type envelope struct {
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, query url.Values, body any) (*http.Request, error) {
	apiURL := c.baseURL + endpoint
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", shared.GenerateID())
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req, nil
}

// send waits for the rate limiter, performs req and reads the whole body.
func (c *Client) send(req *http.Request) (*http.Response, []byte, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, nil, fmt.Errorf("request cancelled: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.mu.RLock()
	logger := c.logger
	c.mu.RUnlock()

	logger.Debug("api request",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"elapsed", time.Since(start),
		"request_id", req.Header.Get("X-Request-ID"),
	)
	return resp, body, nil
}

// doRequest performs a JSON request and decodes the unwrapped payload into result.
//
// The payload is the envelope's data field when the body is an object carrying one,
// otherwise the bare body. A nil result skips decoding. The envelope message is returned
// so callers can surface it.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, query url.Values, body, result any) (string, error) {
	req, err := c.newRequest(ctx, method, endpoint, query, body)
	if err != nil {
		return "", err
	}

	resp, data, err := c.send(req)
	if err != nil {
		return "", err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", newAPIError(resp, data)
	}

	payload, message := unwrap(data)
	if result != nil && len(payload) > 0 {
		if err := json.Unmarshal(payload, result); err != nil {
			return message, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return message, nil
}

func newAPIError(resp *http.Response, body []byte) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	var env envelope
	if err := json.Unmarshal(body, &env); err == nil {
		switch {
		case env.Error != "":
			apiErr.Message, apiErr.fromServer = env.Error, true
		case env.Message != "":
			apiErr.Message, apiErr.fromServer = env.Message, true
		}
	}
	return apiErr
}

// unwrap returns the data member of an enveloped body and the envelope message.
func unwrap(body []byte) (json.RawMessage, string) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed, ""
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return trimmed, ""
	}

	var message string
	if raw, ok := fields["message"]; ok {
		_ = json.Unmarshal(raw, &message)
	}

	data, ok := fields["data"]
	if !ok {
		if _, enveloped := fields["code"]; enveloped {
			return nil, message
		}
		if _, enveloped := fields["message"]; enveloped && len(fields) == 1 {
			return nil, message
		}
		return trimmed, message
	}
	if string(data) == "null" {
		return nil, message
	}
	return data, message
}
