package tasks

import (
	"fmt"

	"github.com/epg-sync/epgctl/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data, e.g. the [models.SyncLogEntry] just recorded
}

// Operation phase enumeration
type Phase int

const (
	PhaseParseBatch Phase = iota
	PhaseCreateChannels
	PhaseReloadChannels
	PhaseSyncChannels
)

func (p Phase) String() string {
	switch p {
	case PhaseParseBatch:
		return "parse_batch"
	case PhaseCreateChannels:
		return "create_channels"
	case PhaseReloadChannels:
		return "reload_channels"
	case PhaseSyncChannels:
		return "sync_channels"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func parsedBatchUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseParseBatch,
		Step:    1,
		Total:   3,
		Message: fmt.Sprintf("Parsed %d channel(s)", count),
	}
}

func creatingChannelsUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseCreateChannels,
		Step:    2,
		Total:   3,
		Message: fmt.Sprintf("Creating %d channel(s)...", count),
	}
}

func reloadingChannelsUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseReloadChannels,
		Step:    3,
		Total:   3,
		Message: "Reloading channel list...",
	}
}

func channelSyncedUpdate(step, total int, entry models.SyncLogEntry) ProgressUpdate {
	verb := "Synced"
	if entry.Status == models.SyncFailed {
		verb = "Failed to sync"
	}
	return ProgressUpdate{
		Phase:   PhaseSyncChannels,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("%s %s: %s", verb, entry.ChannelName, entry.Message),
		Data:    entry,
	}
}
