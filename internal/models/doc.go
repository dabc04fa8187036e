// Package models defines the data shapes exchanged with the EPG backend and kept in client-local storage.
//
// The package contains two categories of types:
//
// 1. Backend resources (read and written over HTTP):
//   - [Channel] : canonical channel, keyed by its business key ChannelID
//   - [ChannelInput] : create/update payload for a channel
//   - [ChannelMapping] : provider channel → canonical channel link with a confidence score
//   - [Program] : one programme slot, half-open [StartTime, EndTime)
//   - [User] : the authenticated account
//
// 2. Client-local records:
//   - [SyncLogEntry] : one user-triggered sync action, kept in the capped sync log
//
// Integrity rules (unique channel IDs, mapping references) are enforced by the backend;
// Validate methods here only catch input the backend would reject outright.
package models
