package models

import (
	"fmt"
	"strings"

	"github.com/epg-sync/epgctl/internal/shared"
)

// BatchFields is the column order of one batch-import line.
var BatchFields = []string{"channel_id", "display_name", "category", "area", "logo_url", "timezone"}

// ParseBatchLine parses "channel_id,display_name,category,area,logo_url,timezone".
//
// Fields are trimmed. Absent trailing fields take the defaults (category "", area "CN",
// logo_url "", timezone "Asia/Shanghai"); fields that are present but empty stay empty.
func ParseBatchLine(line string) (ChannelInput, error) {
	parts := strings.Split(line, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	field := func(i int, fallback string) string {
		if i < len(parts) {
			return parts[i]
		}
		return fallback
	}

	in := ChannelInput{
		ChannelID:   field(0, ""),
		DisplayName: field(1, ""),
		Category:    field(2, ""),
		Area:        field(3, DefaultArea),
		LogoURL:     field(4, ""),
		Timezone:    field(5, DefaultTimezone),
	}

	if in.ChannelID == "" || in.DisplayName == "" {
		return ChannelInput{}, fmt.Errorf("%w: %q needs at least channel_id and display_name", shared.ErrInvalidInput, line)
	}
	return in, nil
}

// BatchChannel is one entry of the batch-create request body.
type BatchChannel struct {
	ChannelID   string `json:"channel_id"`
	DisplayName string `json:"display_name"`
	Category    string `json:"category"`
	Area        string `json:"area"`
	LogoURL     string `json:"logo_url"`
	Timezone    string `json:"timezone"`
}

// Batch returns the fields of in that the batch-create endpoint accepts.
func (in ChannelInput) Batch() BatchChannel {
	return BatchChannel{
		ChannelID:   in.ChannelID,
		DisplayName: in.DisplayName,
		Category:    in.Category,
		Area:        in.Area,
		LogoURL:     in.LogoURL,
		Timezone:    in.Timezone,
	}
}

// BatchLine renders in back into the batch-import line format.
func BatchLine(in ChannelInput) string {
	return strings.Join([]string{in.ChannelID, in.DisplayName, in.Category, in.Area, in.LogoURL, in.Timezone}, ",")
}
