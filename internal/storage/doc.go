// Package storage implements the console's durable key-value store.
//
// The store plays the role of a browser's localStorage: string values under string keys, written
// synchronously. Two keys are in use:
//   - "auth-storage" : the persisted session, see package session
//   - "syncLogs" : the capped sync log, see package synclog
//
// [SQLiteStore] keeps the values in the kv_store table created by the migrations in package shared.
// [LoadJSON] and [SaveJSON] layer JSON encoding on top of any [Storage].
package storage
