package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/epg-sync/epgctl/internal/formatter"
	"github.com/epg-sync/epgctl/internal/models"
)

var (
	_ list.Item = channelItem{}
	_ list.Item = mappingItem{}
	_ list.Item = programItem{}
)

// channelItem wraps [models.Channel] to implement [list.Item].
type channelItem struct {
	channel models.Channel
}

func (i channelItem) FilterValue() string { return i.channel.ChannelID }
func (i channelItem) Title() string {
	title := fmt.Sprintf("%s (%s)", i.channel.DisplayName, i.channel.ChannelID)
	if !i.channel.Active() {
		title += " [inactive]"
	}
	return title
}
func (i channelItem) Description() string {
	parts := []string{}
	for _, p := range []string{i.channel.Category, i.channel.Area, i.channel.Timezone} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " • ")
}

// mappingItem wraps [models.ChannelMapping] to implement [list.Item].
type mappingItem struct {
	mapping       models.ChannelMapping
	maxConfidence float64
}

func (i mappingItem) FilterValue() string { return i.mapping.CanonicalID }
func (i mappingItem) Title() string {
	return fmt.Sprintf("%s ← %s/%s", i.mapping.CanonicalID, i.mapping.ProviderID, i.mapping.ProviderChannelID)
}
func (i mappingItem) Description() string {
	desc := "confidence " + formatter.Confidence(i.mapping, i.maxConfidence)
	if i.mapping.Verified() {
		desc += " • verified"
	}
	if i.mapping.ProviderChannelName != "" {
		desc = fmt.Sprintf("%s • %s", i.mapping.ProviderChannelName, desc)
	}
	return desc
}

// programItem wraps [models.Program] to implement [list.Item].
type programItem struct {
	program  models.Program
	location *time.Location
}

func (i programItem) FilterValue() string { return i.program.Title }
func (i programItem) Title() string       { return i.program.Title }
func (i programItem) Description() string {
	start := i.program.StartTime.In(i.location).Format("01-02 15:04")
	end := i.program.EndTime.In(i.location).Format("15:04")
	desc := fmt.Sprintf("%s • %s–%s", i.program.ChannelID, start, end)
	if i.program.ProviderID != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.program.ProviderID)
	}
	return desc
}

func channelItems(channels []models.Channel) []list.Item {
	items := make([]list.Item, len(channels))
	for i, c := range channels {
		items[i] = channelItem{channel: c}
	}
	return items
}

func mappingItems(mappings []models.ChannelMapping, maxConfidence float64) []list.Item {
	items := make([]list.Item, len(mappings))
	for i, m := range mappings {
		items[i] = mappingItem{mapping: m, maxConfidence: maxConfidence}
	}
	return items
}

func programItems(programs []models.Program, loc *time.Location) []list.Item {
	items := make([]list.Item, len(programs))
	for i, p := range programs {
		items[i] = programItem{program: p, location: loc}
	}
	return items
}

// newList builds a list with built-in filtering and help disabled; filtering is done by the query layer.
func newList(title string, items []list.Item) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()
	return l
}
