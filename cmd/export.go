package main

import (
	"context"
	"fmt"

	"github.com/epg-sync/epgctl/internal/formatter"
	"github.com/epg-sync/epgctl/internal/shared"
	"github.com/urfave/cli/v3"
)

// ExportXMLTV downloads the XMLTV guide to stdout or a file.
func (r *Runner) ExportXMLTV(ctx context.Context, cmd *cli.Command) error {
	data, err := r.client.XMLTV(ctx)
	if err != nil {
		return fmt.Errorf("failed to download XMLTV: %w", err)
	}

	path := cmd.String("output")
	if path == "" {
		_, err := r.output.Write(data)
		return err
	}

	if err := formatter.WriteFile(path, data); err != nil {
		return err
	}
	r.logger.Info("xmltv saved", "path", path, "bytes", len(data))

	summary, err := formatter.XMLTVSummary(data)
	if err != nil {
		r.logger.Warn("saved file is not valid XMLTV", "error", err)
		return r.writePlain("✓ Saved %d bytes to %s\n", len(data), path)
	}
	return r.writePlain("✓ Saved %s to %s\n", summary, path)
}

// ExportDIYP shows one channel-day of the DIYP feed.
func (r *Runner) ExportDIYP(ctx context.Context, cmd *cli.Command) error {
	channel := cmd.String("channel")
	if channel == "" {
		return fmt.Errorf("%w: --channel is required", shared.ErrMissingArgument)
	}

	date := cmd.String("date")
	if date == "" {
		date = shared.Today(r.location)
	} else if _, err := shared.ParseDate(date); err != nil {
		return err
	}

	schedule, err := r.client.DIYP(ctx, channel, date)
	if err != nil {
		return fmt.Errorf("failed to load DIYP schedule: %w", err)
	}

	return r.render(cmd, schedule, func() string { return formatter.DIYPTable(*schedule) }, nil)
}
