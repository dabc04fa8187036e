package main

import (
	"context"
	"fmt"

	"github.com/epg-sync/epgctl/internal/models"
	"github.com/epg-sync/epgctl/internal/notify"
	"github.com/epg-sync/epgctl/internal/session"
	"github.com/epg-sync/epgctl/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin logs in with the given credentials and stores the session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	username := cmd.String("username")
	password := cmd.String("password")

	if err := session.ValidateCredentials(username, password); err != nil {
		return err
	}
	if err := r.restore(); err != nil {
		return err
	}

	r.logger.Info("logging in", "username", username, "server", r.client.BaseURL())
	if err := r.session.Login(ctx, username, password); err != nil {
		return fmt.Errorf("%w: %s", shared.ErrAuthFailed, notify.MessageFrom(err, err.Error()))
	}

	user := r.session.User()
	r.logger.Info("login successful", "username", user.Username, "role", user.Role)
	return r.writePlain("✓ Logged in as %s (%s)\n", user.Username, user.Role)
}

// AuthLogout forgets the stored session. It never calls the backend.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.restore(); err != nil {
		return err
	}

	if r.session.State() != session.Authenticated {
		return r.writePlain("Not logged in\n")
	}

	r.session.Logout()
	r.logger.Info("session cleared")
	return r.writePlain("✓ Logged out\n")
}

// AuthStatus reports the hydrated session state.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.restore(); err != nil {
		return err
	}

	snap := r.session.Snapshot()
	r.writePlainHeader("epgctl session")
	r.writePlain("Server: %s\n", r.client.BaseURL())
	r.writePlain("Session: %s\n", r.session.State())
	if snap.User != nil {
		r.writePlain("User: %s (%s)\n", snap.User.Username, snap.User.Role)
	}
	return nil
}

// AuthWhoami prints the logged-in user, from the stored session or from GET /auth/me with --remote.
func (r *Runner) AuthWhoami(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	user := r.session.User()
	if cmd.Bool("remote") {
		remote, err := r.client.CurrentUser(ctx)
		if err != nil {
			return err
		}
		user = remote
	}

	return r.render(cmd, user, func() string { return userTable(user) }, nil)
}

// AuthPasswd changes the admin password after validating the new one locally.
func (r *Runner) AuthPasswd(ctx context.Context, cmd *cli.Command) error {
	oldPassword := cmd.String("old")
	newPassword := cmd.String("new")

	if err := session.ValidatePasswordChange(oldPassword, newPassword, cmd.String("confirm")); err != nil {
		return err
	}
	if err := r.requireAuth(); err != nil {
		return err
	}

	message, err := r.client.ChangePassword(ctx, models.PasswordChange{
		OldPassword: oldPassword,
		NewPassword: newPassword,
	})
	if err != nil {
		return err
	}

	if message == "" {
		message = "Password changed"
	}
	r.logger.Info("password changed", "username", r.session.User().Username)
	return r.writePlain("✓ %s\n", message)
}

func userTable(u *models.User) string {
	if u == nil {
		return ""
	}
	email := u.Email
	if email == "" {
		email = "-"
	}
	return fmt.Sprintf("ID:       %d\nUsername: %s\nEmail:    %s\nRole:     %s", u.ID, u.Username, email, u.Role)
}
