package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/epg-sync/epgctl/internal/shared"
)

const (
	DefaultArea     = "CN"
	DefaultTimezone = "Asia/Shanghai"
)

// Channel is a canonical channel as stored by the backend.
//
// ID is the storage key; ChannelID is the stable business key used in URLs.
type Channel struct {
	ID          int64     `json:"id" yaml:"id"`
	ChannelID   string    `json:"channel_id" yaml:"channel_id"`
	DisplayName string    `json:"display_name" yaml:"display_name"`
	Category    string    `json:"category,omitempty" yaml:"category,omitempty"`
	Regexp      string    `json:"regexp,omitempty" yaml:"regexp,omitempty"`
	Area        string    `json:"area,omitempty" yaml:"area,omitempty"`
	LogoURL     string    `json:"logo_url,omitempty" yaml:"logo_url,omitempty"`
	Timezone    string    `json:"timezone,omitempty" yaml:"timezone,omitempty"`
	IsActive    Flag      `json:"is_active" yaml:"is_active"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
}

// Active reports whether the channel is enabled.
func (c Channel) Active() bool { return c.IsActive.Bool() }

// Input returns the editable fields of c as a [ChannelInput].
func (c Channel) Input() ChannelInput {
	return ChannelInput{
		ID:          c.ID,
		ChannelID:   c.ChannelID,
		DisplayName: c.DisplayName,
		Category:    c.Category,
		Regexp:      c.Regexp,
		Area:        c.Area,
		LogoURL:     c.LogoURL,
		Timezone:    c.Timezone,
		IsActive:    c.IsActive,
	}
}

// ChannelInput is the create/update payload. ID is only sent on update.
type ChannelInput struct {
	ID          int64  `json:"id,omitempty"`
	ChannelID   string `json:"channel_id"`
	DisplayName string `json:"display_name"`
	Category    string `json:"category"`
	Regexp      string `json:"regexp"`
	Area        string `json:"area"`
	LogoURL     string `json:"logo_url"`
	Timezone    string `json:"timezone"`
	IsActive    Flag   `json:"is_active"`
}

// NewChannelInput returns an input with the form defaults (active, CN, Asia/Shanghai).
func NewChannelInput(channelID, displayName string) ChannelInput {
	return ChannelInput{
		ChannelID:   channelID,
		DisplayName: displayName,
		Area:        DefaultArea,
		Timezone:    DefaultTimezone,
		IsActive:    FlagOn,
	}
}

// Validate checks the fields the backend requires and rejects values it can't use.
func (in ChannelInput) Validate() error {
	if strings.TrimSpace(in.ChannelID) == "" {
		return fmt.Errorf("%w: channel_id is required", shared.ErrInvalidInput)
	}
	if strings.TrimSpace(in.DisplayName) == "" {
		return fmt.Errorf("%w: display_name is required for %s", shared.ErrInvalidInput, in.ChannelID)
	}
	if in.Regexp != "" {
		if _, err := regexp.Compile(in.Regexp); err != nil {
			return fmt.Errorf("%w: regexp for %s: %v", shared.ErrInvalidInput, in.ChannelID, err)
		}
	}
	if in.Timezone != "" {
		if _, err := time.LoadLocation(in.Timezone); err != nil {
			return fmt.Errorf("%w: timezone %q for %s", shared.ErrInvalidInput, in.Timezone, in.ChannelID)
		}
	}
	return nil
}

// FindChannel returns the channel with the given business key.
func FindChannel(channels []Channel, channelID string) (Channel, bool) {
	for _, c := range channels {
		if c.ChannelID == channelID {
			return c, true
		}
	}
	return Channel{}, false
}
