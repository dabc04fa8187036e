package models

import "time"

// SyncStatus is the outcome of a user-triggered sync.
type SyncStatus string

const (
	SyncSuccess SyncStatus = "success"
	SyncFailed  SyncStatus = "failed"
	SyncRunning SyncStatus = "running"
)

// AllChannelsID and AllChannelsName label sync log entries for a full sync.
const (
	AllChannelsID   = "all"
	AllChannelsName = "All channels"
)

// SyncLogEntry is one record in the client-local sync log.
type SyncLogEntry struct {
	ID          string     `json:"id,omitempty" yaml:"id,omitempty"`
	ChannelID   string     `json:"channel_id" yaml:"channel_id"`
	ChannelName string     `json:"channel_name" yaml:"channel_name"`
	Status      SyncStatus `json:"status" yaml:"status"`
	Message     string     `json:"message" yaml:"message"`
	Timestamp   time.Time  `json:"timestamp" yaml:"timestamp"`
}
