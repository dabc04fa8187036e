package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/epg-sync/epgctl/internal/models"
	"github.com/epg-sync/epgctl/internal/shared"
)

func channelPath(channelID string) string {
	return "/admin/channels/" + url.PathEscape(channelID)
}

// ListChannels retrieves every canonical channel.
//
// Calls GET /admin/channels.
func (c *Client) ListChannels(ctx context.Context) ([]models.Channel, error) {
	var channels []models.Channel
	if _, err := c.doRequest(ctx, http.MethodGet, "/admin/channels", nil, nil, &channels); err != nil {
		return nil, err
	}
	if channels == nil {
		channels = []models.Channel{}
	}
	return channels, nil
}

// GetChannel retrieves one channel by its business key.
//
// A 404 is reported as [shared.ErrChannelNotFound].
func (c *Client) GetChannel(ctx context.Context, channelID string) (*models.Channel, error) {
	var channel models.Channel
	if _, err := c.doRequest(ctx, http.MethodGet, channelPath(channelID), nil, nil, &channel); err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return nil, fmt.Errorf("%w: %s", shared.ErrChannelNotFound, channelID)
		}
		return nil, err
	}
	return &channel, nil
}

// CreateChannel creates a channel and returns the stored record.
//
// Calls POST /admin/channels.
func (c *Client) CreateChannel(ctx context.Context, in models.ChannelInput) (*models.Channel, error) {
	in.ID = 0
	var channel models.Channel
	if _, err := c.doRequest(ctx, http.MethodPost, "/admin/channels", nil, in, &channel); err != nil {
		return nil, err
	}
	return &channel, nil
}

// BatchCreateChannels creates several channels in one request.
//
// Calls POST /admin/channels/batch with {"channels": [...]}.
func (c *Client) BatchCreateChannels(ctx context.Context, inputs []models.ChannelInput) ([]models.Channel, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: no channels to create", shared.ErrInvalidInput)
	}

	channels := make([]models.BatchChannel, len(inputs))
	for i, in := range inputs {
		channels[i] = in.Batch()
	}
	body := struct {
		Channels []models.BatchChannel `json:"channels"`
	}{Channels: channels}

	var created []models.Channel
	if _, err := c.doRequest(ctx, http.MethodPost, "/admin/channels/batch", nil, body, &created); err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateChannel replaces the channel stored under channelID with in.
//
// The backend requires in.ID to be the channel's numeric storage key.
func (c *Client) UpdateChannel(ctx context.Context, channelID string, in models.ChannelInput) (*models.Channel, error) {
	if in.ID == 0 {
		return nil, fmt.Errorf("%w: update of %s needs the numeric id", shared.ErrInvalidInput, channelID)
	}

	var channel models.Channel
	if _, err := c.doRequest(ctx, http.MethodPut, channelPath(channelID), nil, in, &channel); err != nil {
		return nil, err
	}
	return &channel, nil
}

// DeleteChannel removes a channel. Calls DELETE /admin/channels/{channel_id}.
func (c *Client) DeleteChannel(ctx context.Context, channelID string) error {
	_, err := c.doRequest(ctx, http.MethodDelete, channelPath(channelID), nil, nil, nil)
	return err
}

// ListMappings retrieves every provider mapping.
//
// Calls GET /admin/channel-mappings.
func (c *Client) ListMappings(ctx context.Context) ([]models.ChannelMapping, error) {
	var mappings []models.ChannelMapping
	if _, err := c.doRequest(ctx, http.MethodGet, "/admin/channel-mappings", nil, nil, &mappings); err != nil {
		return nil, err
	}
	if mappings == nil {
		mappings = []models.ChannelMapping{}
	}
	return mappings, nil
}

// ChannelMappings retrieves the mappings of one canonical channel.
//
// Calls GET /admin/channels/{channel_id}/mappings.
func (c *Client) ChannelMappings(ctx context.Context, channelID string) ([]models.ChannelMapping, error) {
	var mappings []models.ChannelMapping
	if _, err := c.doRequest(ctx, http.MethodGet, channelPath(channelID)+"/mappings", nil, nil, &mappings); err != nil {
		return nil, err
	}
	if mappings == nil {
		mappings = []models.ChannelMapping{}
	}
	return mappings, nil
}
