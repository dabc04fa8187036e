package main

import (
	"context"
	"fmt"
	"time"

	"github.com/epg-sync/epgctl/internal/formatter"
	"github.com/epg-sync/epgctl/internal/models"
	"github.com/epg-sync/epgctl/internal/notify"
	"github.com/epg-sync/epgctl/internal/query"
	"github.com/epg-sync/epgctl/internal/shared"
	"github.com/urfave/cli/v3"
)

// programPage is the machine-readable shape of one search result page.
type programPage struct {
	Items      []models.Program `json:"items" yaml:"items"`
	Total      int              `json:"total" yaml:"total"`
	Page       int              `json:"page" yaml:"page"`
	PageSize   int              `json:"page_size" yaml:"page_size"`
	TotalPages int              `json:"total_pages" yaml:"total_pages"`
}

// ProgramsSearch runs one page of the server-side program search.
func (r *Runner) ProgramsSearch(ctx context.Context, cmd *cli.Command) error {
	timezone, loc := r.timezone, r.location
	if cmd.IsSet("timezone") {
		timezone = cmd.String("timezone")
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return fmt.Errorf("%w: unknown timezone %q", shared.ErrInvalidFlag, timezone)
		}
		loc = l
	}

	date := cmd.String("date")
	if date == "" {
		date = shared.Today(loc)
	} else if _, err := shared.ParseDate(date); err != nil {
		return err
	}

	page := int(cmd.Int("page"))
	if page < 1 {
		return fmt.Errorf("%w: --page must be at least 1", shared.ErrInvalidFlag)
	}
	pageSize := int(cmd.Int("page-size"))
	if pageSize <= 0 {
		pageSize = r.config.Display.PageSize
	}
	if pageSize <= 0 {
		pageSize = query.DefaultPageSize
	}

	if err := r.requireAuth(); err != nil {
		return err
	}

	list := query.NewList[models.Program](
		query.NewProgramSource(r.client, timezone),
		query.Filter{ChannelID: cmd.String("channel"), Date: date, Page: page, PageSize: pageSize},
		notify.NewLogNotifier(r.logger),
		"Failed to load programs",
	)
	if err := list.Refresh(ctx); err != nil {
		return err
	}

	result := programPage{
		Items:      list.Items(),
		Total:      list.Total(),
		Page:       page,
		PageSize:   pageSize,
		TotalPages: list.TotalPages(),
	}

	if err := r.render(cmd, result, func() string { return formatter.ProgramsTable(result.Items, loc) }, nil); err != nil {
		return err
	}

	if tableOutput(cmd) {
		r.writePlain("%s\n", formatter.PageFooter(result.Page, result.TotalPages, result.Total, "programs"))
	}
	return nil
}
