// Package services implements [Client], the HTTP client for the EPG management backend.
//
// # Wire Format
//
// The backend wraps successful bodies as {code, message, data} and failures as
// {code, message, error}. The client unwraps data when present and otherwise decodes the
// bare body (the DIYP feed is not enveloped). Paginated results arrive as
// {items, meta: {total, limit, offset, count}}.
//
// # Authentication
//
// [Client.SetToken] installs a bearer token that an [http.RoundTripper] stamps onto every
// request using [oauth2.Token.SetAuthHeader]; [Client.ClearToken] removes it. The token itself
// is owned by package session.
//
// # Error Handling
//
// Non-2xx responses become [*APIError], which wraps [shared.ErrAPIRequest]:
//   - Message prefers the body's "error" field, then "message", then the status text
//   - [APIError.ServerMessage] exposes only text the server actually sent
//   - [shared.ErrChannelNotFound] : GetChannel on a 404
//
// Transport failures (connection refused, timeout, cancelled context) are wrapped as-is.
//
// # Pacing
//
// Requests pass through a token-bucket [rate.Limiter] and carry an X-Request-ID header for
// correlation with backend logs.
package services
