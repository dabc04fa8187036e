package models

import "time"

// Program is one scheduled programme slot on a channel, covering [StartTime, EndTime).
type Program struct {
	ID               int64     `json:"id" yaml:"id"`
	ChannelID        string    `json:"channel_id" yaml:"channel_id"`
	Title            string    `json:"title" yaml:"title"`
	Description      string    `json:"description,omitempty" yaml:"description,omitempty"`
	Category         string    `json:"category,omitempty" yaml:"category,omitempty"`
	StartTime        time.Time `json:"start_time" yaml:"start_time"`
	EndTime          time.Time `json:"end_time" yaml:"end_time"`
	ProviderID       string    `json:"provider_id" yaml:"provider_id"`
	OriginalTimezone string    `json:"original_timezone,omitempty" yaml:"original_timezone,omitempty"`
	CreatedAt        time.Time `json:"created_at" yaml:"created_at"`
}

// Duration is EndTime - StartTime.
func (p Program) Duration() time.Duration {
	return p.EndTime.Sub(p.StartTime)
}

// Covers reports whether t falls inside the half-open interval [StartTime, EndTime).
func (p Program) Covers(t time.Time) bool {
	return !t.Before(p.StartTime) && t.Before(p.EndTime)
}

// ProgramSearch holds the query parameters for a program search.
//
// ChannelID and Date are optional; Date is YYYY-MM-DD interpreted in Timezone.
type ProgramSearch struct {
	ChannelID string
	Date      string
	Timezone  string
	Page      int
	PageSize  int
}
