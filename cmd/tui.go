package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/epg-sync/epgctl/internal/query"
	"github.com/epg-sync/epgctl/internal/session"
	"github.com/epg-sync/epgctl/internal/shared"
	"github.com/epg-sync/epgctl/internal/synclog"
	"github.com/epg-sync/epgctl/internal/tasks"
	"github.com/epg-sync/epgctl/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive admin console.
//
// The session is hydrated inside the UI so the login screen is never shown before the stored
// session has been read.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Logging.TUIFile)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	store, err := r.storage()
	if err != nil {
		return err
	}

	r.session = session.NewStore(r.client, store, r.logger)
	r.syncLog = synclog.New(store, r.logger)
	r.syncLog.Load()

	model := ui.NewModel(ctx, ui.Deps{
		API:           r.client,
		Session:       r.session,
		Syncer:        tasks.NewSyncer(r.client, r.syncLog, r.location, r.logger),
		SyncLog:       r.syncLog,
		Programs:      query.NewProgramSource(r.client, r.timezone),
		Location:      r.location,
		MaxConfidence: r.config.Display.MaxConfidence,
		PageSize:      r.config.Display.PageSize,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
