package ui

import (
	"github.com/epg-sync/epgctl/internal/models"
	"github.com/epg-sync/epgctl/internal/session"
)

// hydratedMsg reports that the persisted session has been restored.
type hydratedMsg struct {
	state session.State
}

// loginMsg is the result of a login attempt.
type loginMsg struct {
	err error
}

type channelsFetchedMsg struct {
	channels []models.Channel
	err      error
}

type mappingsFetchedMsg struct {
	mappings []models.ChannelMapping
	err      error
}

// programsFetchedMsg carries the outcome of a program list refresh; the items live in the list controller.
type programsFetchedMsg struct {
	err error
}

type syncDoneMsg struct {
	entry models.SyncLogEntry
	err   error
}

type channelDeletedMsg struct {
	channelID string
	err       error
}
