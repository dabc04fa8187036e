package services

import (
	"context"
	"net/http"

	"github.com/epg-sync/epgctl/internal/models"
)

// Login exchanges credentials for a token. Calls POST /auth/login.
//
// The client's own token is left untouched; callers decide when to apply it.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (*models.LoginResult, error) {
	var result models.LoginResult
	if _, err := c.doRequest(ctx, http.MethodPost, "/auth/login", nil, creds, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CurrentUser returns the account the token belongs to. Calls GET /auth/me.
func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	var user models.User
	if _, err := c.doRequest(ctx, http.MethodGet, "/auth/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ChangePassword calls PUT /auth/password and returns the backend's message.
func (c *Client) ChangePassword(ctx context.Context, change models.PasswordChange) (string, error) {
	return c.doRequest(ctx, http.MethodPut, "/auth/password", nil, change, nil)
}
