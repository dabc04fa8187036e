package main

import (
	"context"
	"fmt"

	"github.com/epg-sync/epgctl/internal/formatter"
	"github.com/epg-sync/epgctl/internal/models"
	"github.com/epg-sync/epgctl/internal/shared"
	"github.com/epg-sync/epgctl/internal/tasks"
	"github.com/urfave/cli/v3"
)

// ChannelsList prints every canonical channel.
func (r *Runner) ChannelsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	channels, err := r.client.ListChannels(ctx)
	if err != nil {
		return fmt.Errorf("failed to load channels: %w", err)
	}
	r.logger.Debug("channels loaded", "count", len(channels))

	return r.render(cmd, channels,
		func() string { return formatter.ChannelsTable(channels) },
		func() ([]byte, error) { return formatter.ChannelsCSV(channels) },
	)
}

// ChannelsShow prints one channel.
func (r *Runner) ChannelsShow(ctx context.Context, cmd *cli.Command) error {
	channelID, err := requiredArg(cmd, "channel_id")
	if err != nil {
		return err
	}
	if err := r.requireAuth(); err != nil {
		return err
	}

	channel, err := r.client.GetChannel(ctx, channelID)
	if err != nil {
		return err
	}

	return r.render(cmd, channel, func() string { return formatter.ChannelDetail(*channel, r.location) }, nil)
}

// ChannelsCreate creates one channel, then reloads the list to confirm it is there.
func (r *Runner) ChannelsCreate(ctx context.Context, cmd *cli.Command) error {
	channelID, err := requiredArg(cmd, "channel_id")
	if err != nil {
		return err
	}

	in := models.NewChannelInput(channelID, cmd.String("name"))
	applyChannelFlags(cmd, &in)
	if err := in.Validate(); err != nil {
		return err
	}
	if err := r.requireAuth(); err != nil {
		return err
	}

	if _, err := r.client.CreateChannel(ctx, in); err != nil {
		return fmt.Errorf("failed to create channel %s: %w", channelID, err)
	}

	channels, err := r.client.ListChannels(ctx)
	if err != nil {
		r.logger.Warn("channel created but the list could not be reloaded", "channel_id", channelID, "error", err)
		return r.writePlain("✓ Channel %s created\n", channelID)
	}

	created, ok := models.FindChannel(channels, channelID)
	if !ok {
		return fmt.Errorf("%w: channel %s missing from the reloaded list", shared.ErrChannelNotFound, channelID)
	}

	r.logger.Info("channel created", "channel_id", created.ChannelID, "id", created.ID)
	return r.writePlain("✓ Channel %s created (%s, %d channels total)\n", created.ChannelID, created.DisplayName, len(channels))
}

// ChannelsUpdate changes only the fields whose flags were given.
func (r *Runner) ChannelsUpdate(ctx context.Context, cmd *cli.Command) error {
	channelID, err := requiredArg(cmd, "channel_id")
	if err != nil {
		return err
	}
	if err := r.requireAuth(); err != nil {
		return err
	}

	current, err := r.client.GetChannel(ctx, channelID)
	if err != nil {
		return err
	}

	in := current.Input()
	if !applyChannelFlags(cmd, &in) {
		return fmt.Errorf("%w: nothing to update", shared.ErrMissingArgument)
	}
	if err := in.Validate(); err != nil {
		return err
	}

	updated, err := r.client.UpdateChannel(ctx, channelID, in)
	if err != nil {
		return fmt.Errorf("failed to update channel %s: %w", channelID, err)
	}

	r.logger.Info("channel updated", "channel_id", channelID)
	return r.writePlain("✓ Channel %s updated\n", updated.ChannelID)
}

// ChannelsDelete deletes a channel. --yes is required.
func (r *Runner) ChannelsDelete(ctx context.Context, cmd *cli.Command) error {
	channelID, err := requiredArg(cmd, "channel_id")
	if err != nil {
		return err
	}
	if !cmd.Bool("yes") {
		return fmt.Errorf("%w: deleting %s cannot be undone, pass --yes to confirm", shared.ErrMissingArgument, channelID)
	}
	if err := r.requireAuth(); err != nil {
		return err
	}

	if err := r.client.DeleteChannel(ctx, channelID); err != nil {
		return fmt.Errorf("failed to delete channel %s: %w", channelID, err)
	}

	r.logger.Info("channel deleted", "channel_id", channelID)
	return r.writePlain("✓ Channel %s deleted\n", channelID)
}

// ChannelsImport creates every channel listed in a batch file in one request.
func (r *Runner) ChannelsImport(ctx context.Context, cmd *cli.Command) error {
	path, err := requiredArg(cmd, "path")
	if err != nil {
		return err
	}

	data, err := shared.VerifyAndReadFile(path)
	if err != nil {
		return err
	}

	// Validate before asking for a session so bad input fails fast.
	if _, err := tasks.ParseBatch(string(data)); err != nil {
		return err
	}
	if err := r.requireAuth(); err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("[%s] %s\n", update.Phase, update.Message)
		}
	}()

	result, err := tasks.NewImporter(r.client, r.logger).Import(ctx, string(data), progress)
	close(progress)
	<-done
	if err != nil {
		return fmt.Errorf("batch import failed: %w", err)
	}

	r.writePlain("✓ Imported %d channels\n", len(result.Created))
	if result.Channels != nil {
		r.writePlain("  %d channels total\n", len(result.Channels))
	}
	return nil
}

// ChannelMappings prints the provider mappings of one channel.
func (r *Runner) ChannelMappings(ctx context.Context, cmd *cli.Command) error {
	channelID, err := requiredArg(cmd, "channel_id")
	if err != nil {
		return err
	}
	if err := r.requireAuth(); err != nil {
		return err
	}

	mappings, err := r.client.ChannelMappings(ctx, channelID)
	if err != nil {
		return err
	}

	return r.render(cmd, mappings,
		func() string { return formatter.MappingsTable(mappings, r.config.Display.MaxConfidence) },
		func() ([]byte, error) { return formatter.MappingsCSV(mappings) },
	)
}

// applyChannelFlags copies every explicitly set channel flag into in and reports whether any was set.
func applyChannelFlags(cmd *cli.Command, in *models.ChannelInput) bool {
	changed := false
	set := func(name string, dst *string) {
		if cmd.IsSet(name) {
			*dst = cmd.String(name)
			changed = true
		}
	}

	set("name", &in.DisplayName)
	set("category", &in.Category)
	set("area", &in.Area)
	set("logo", &in.LogoURL)
	set("timezone", &in.Timezone)
	set("regexp", &in.Regexp)

	if cmd.IsSet("inactive") {
		in.IsActive = models.FlagOf(!cmd.Bool("inactive"))
		changed = true
	}
	if cmd.IsSet("active") {
		in.IsActive = models.FlagOf(cmd.Bool("active"))
		changed = true
	}
	return changed
}

func requiredArg(cmd *cli.Command, name string) (string, error) {
	if v := cmd.StringArg(name); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%w: %s is required", shared.ErrMissingArgument, name)
}
