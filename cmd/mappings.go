package main

import (
	"context"
	"fmt"

	"github.com/epg-sync/epgctl/internal/formatter"
	"github.com/epg-sync/epgctl/internal/models"
	"github.com/epg-sync/epgctl/internal/notify"
	"github.com/epg-sync/epgctl/internal/query"
	"github.com/urfave/cli/v3"
)

// MappingsList fetches every mapping once and filters the list locally.
func (r *Runner) MappingsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	mappings, err := r.client.ListMappings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load mappings: %w", err)
	}

	list := query.NewList[models.ChannelMapping](
		query.NewMappingSource(mappings),
		query.Filter{FreeText: cmd.String("search"), ProviderID: cmd.String("provider")},
		notify.NewLogNotifier(r.logger),
		"Failed to load mappings",
	)
	if err := list.Refresh(ctx); err != nil {
		return err
	}

	items := list.Items()
	r.logger.Debug("mappings filtered", "total", len(mappings), "matched", len(items))

	if err := r.render(cmd, items,
		func() string { return formatter.MappingsTable(items, r.config.Display.MaxConfidence) },
		func() ([]byte, error) { return formatter.MappingsCSV(items) },
	); err != nil {
		return err
	}

	if tableOutput(cmd) {
		r.writePlain("%d of %d mappings\n", len(items), len(mappings))
	}
	return nil
}

// MappingsProviders lists the providers that appear in the mapping table.
func (r *Runner) MappingsProviders(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	mappings, err := r.client.ListMappings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load mappings: %w", err)
	}

	counts := make(map[string]int)
	for _, m := range mappings {
		counts[m.ProviderID]++
	}

	providers := models.Providers(mappings)
	if len(providers) == 0 {
		return r.writePlain("No mappings\n")
	}
	for _, p := range providers {
		r.writePlain("%-20s %d\n", p, counts[p])
	}
	return nil
}
