// Package tasks runs the console's multi-step backend operations with progress reporting.
//
// # Batch Import
//
// [ParseBatch] turns pasted text into channel inputs, one channel per line:
//
//	channel_id,display_name,category,area,logo_url,timezone
//
// Blank lines and lines starting with "#" are skipped. Every malformed line is reported as a
// [LineError] before anything is sent. [Importer.Import] then submits the whole batch in one
// request and reloads the channel list.
//
// # Sync
//
// [Syncer] triggers single-channel and full backend syncs. Each outcome, success or failure, is
// recorded in the sync log with the channel's display name. A second sync of the same kind while
// one is running fails with [shared.ErrSyncInProgress].
//
// [Syncer.SyncChannels] fans a list of channels out to a small worker pool paced by a token bucket.
//
// # Progress Reporting
//
// Long-running operations accept an optional progress channel. Updates are sent with select and
// default so a slow or absent reader never stalls the work.
package tasks
