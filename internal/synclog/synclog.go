// Package synclog keeps the client-local audit trail of user-triggered syncs.
//
// The log holds at most [Capacity] entries, newest first, and is persisted as a JSON array under
// [storage.SyncLogsKey] after every append. It is never sent to the server.
package synclog

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/epg-sync/epgctl/internal/models"
	"github.com/epg-sync/epgctl/internal/shared"
	"github.com/epg-sync/epgctl/internal/storage"
)

// Capacity is the maximum number of retained entries.
const Capacity = 50

// Summary counts entries by outcome.
type Summary struct {
	Success int
	Failed  int
	Running int
	Total   int
}

// Log is the sync log. It is safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	entries []models.SyncLogEntry
	storage storage.Storage
	logger  *log.Logger
	now     func() time.Time
}

// New creates a log backed by s. Call [Log.Load] to read persisted entries.
func New(s storage.Storage, logger *log.Logger) *Log {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Log{storage: s, logger: logger, now: time.Now}
}

// Load replaces the in-memory entries with the persisted ones.
//
// Absent or malformed storage yields an empty log; Load never fails.
func (l *Log) Load() []models.SyncLogEntry {
	var entries []models.SyncLogEntry
	if err := storage.LoadJSON(l.storage, storage.SyncLogsKey, &entries); err != nil {
		if !errors.Is(err, shared.ErrKeyMissing) {
			l.logger.Debug("discarding stored sync log", "error", err)
		}
		entries = nil
	}
	if len(entries) > Capacity {
		entries = entries[:Capacity]
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = entries
	return l.copyLocked()
}

// Record prepends entry, keeps the newest [Capacity] entries and persists the result.
//
// A zero Timestamp is set to now and an empty ID is generated. Persistence failures are logged only.
func (l *Log) Record(entry models.SyncLogEntry) models.SyncLogEntry {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.now()
	}
	if entry.ID == "" {
		entry.ID = shared.GenerateID()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	next := make([]models.SyncLogEntry, 0, min(len(l.entries)+1, Capacity))
	next = append(next, entry)
	next = append(next, l.entries...)
	if len(next) > Capacity {
		next = next[:Capacity]
	}
	l.entries = next

	if err := storage.SaveJSON(l.storage, storage.SyncLogsKey, l.entries); err != nil {
		l.logger.Warn("failed to persist sync log", "error", err)
	}
	return entry
}

// Entries returns the entries, newest first.
func (l *Log) Entries() []models.SyncLogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.copyLocked()
}

// Summary counts the retained entries by status.
func (l *Log) Summary() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := Summary{Total: len(l.entries)}
	for _, e := range l.entries {
		switch e.Status {
		case models.SyncSuccess:
			s.Success++
		case models.SyncFailed:
			s.Failed++
		case models.SyncRunning:
			s.Running++
		}
	}
	return s
}

func (l *Log) copyLocked() []models.SyncLogEntry {
	return append([]models.SyncLogEntry{}, l.entries...)
}
