package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/epg-sync/epgctl/internal/formatter"
	"github.com/epg-sync/epgctl/internal/models"
	"github.com/epg-sync/epgctl/internal/notify"
	"github.com/epg-sync/epgctl/internal/shared"
	"github.com/epg-sync/epgctl/internal/tasks"
	"github.com/urfave/cli/v3"
)

// SyncChannel syncs one or more channels over a date range and records each outcome in the sync log.
func (r *Runner) SyncChannel(ctx context.Context, cmd *cli.Command) error {
	channelIDs := cmd.Args().Slice()
	if len(channelIDs) == 0 {
		return fmt.Errorf("%w: at least one channel_id is required", shared.ErrMissingArgument)
	}

	start, end := cmd.String("start"), cmd.String("end")
	if date := cmd.String("date"); date != "" {
		if cmd.IsSet("start") || cmd.IsSet("end") {
			return fmt.Errorf("%w: --date cannot be combined with --start or --end", shared.ErrInvalidFlag)
		}
		start, end = date, date
	}

	if err := r.requireAuth(); err != nil {
		return err
	}

	syncer := r.syncer()
	if channels, err := r.client.ListChannels(ctx); err == nil {
		syncer.UseChannels(channels)
	} else {
		r.logger.Warn("could not load channel names, logging ids only", "error", err)
	}

	if len(channelIDs) == 1 {
		entry, err := syncer.SyncChannel(ctx, channelIDs[0], start, end)
		if err != nil {
			if entry.Status == "" {
				return err
			}
			return fmt.Errorf("%w: sync of %s failed: %s", shared.ErrAPIRequest, entry.ChannelName, entry.Message)
		}
		return r.writePlain("✓ %s: %s\n", entry.ChannelName, entry.Message)
	}

	progress := make(chan tasks.ProgressUpdate, len(channelIDs))
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			mark := ""
			if entry, ok := update.Data.(models.SyncLogEntry); ok {
				mark = statusMark(entry.Status) + " "
			}
			r.writePlain("[%d/%d] %s%s\n", update.Step, update.Total, mark, update.Message)
		}
	}()

	result, err := syncer.SyncChannels(ctx, progress, channelIDs, tasks.SyncOpts{
		StartDate:  start,
		EndDate:    end,
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  cmd.Float("rate"),
	})
	close(progress)
	<-done
	if err != nil && result == nil {
		return err
	}

	r.writePlainln("Synced %d channels: %d succeeded, %d failed", len(result.Entries), result.Succeeded, result.Failed)
	if err != nil {
		return err
	}
	if result.Failed > 0 {
		return fmt.Errorf("%w: %d of %d channel syncs failed", shared.ErrAPIRequest, result.Failed, len(result.Entries))
	}
	return nil
}

// SyncAll starts the backend's full sync job.
func (r *Runner) SyncAll(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	entry, err := r.syncer().SyncAll(ctx, cmd.Bool("force"))
	if err != nil {
		if errors.Is(err, shared.ErrSyncInProgress) {
			return err
		}
		return fmt.Errorf("full sync failed: %s", notify.MessageFrom(err, err.Error()))
	}
	return r.writePlain("✓ %s\n", entry.Message)
}

// SyncLogs prints the local sync history, newest first.
func (r *Runner) SyncLogs(ctx context.Context, cmd *cli.Command) error {
	if err := r.restore(); err != nil {
		return err
	}

	entries := r.syncLog.Entries()
	if err := r.render(cmd, entries, func() string { return formatter.SyncLogTable(entries, r.location) }, nil); err != nil {
		return err
	}

	if tableOutput(cmd) {
		sum := r.syncLog.Summary()
		r.writePlain("%d total, %d succeeded, %d failed\n", sum.Total, sum.Success, sum.Failed)
	}
	return nil
}

// statusMark is the one-character outcome marker for a sync log entry.
func statusMark(s models.SyncStatus) string {
	switch s {
	case models.SyncSuccess:
		return "✓"
	case models.SyncFailed:
		return "✗"
	default:
		return "…"
	}
}
