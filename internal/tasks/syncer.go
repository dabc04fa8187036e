package tasks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/epg-sync/epgctl/internal/models"
	"github.com/epg-sync/epgctl/internal/notify"
	"github.com/epg-sync/epgctl/internal/services"
	"github.com/epg-sync/epgctl/internal/shared"
	"github.com/epg-sync/epgctl/internal/synclog"
	"golang.org/x/time/rate"
)

const (
	syncSucceeded = "Sync succeeded"
	syncFailed    = "Sync failed"
	syncStarted   = "Full sync job started"
)

// SyncAPI is the backend surface the syncer needs. [services.Client] implements it.
type SyncAPI interface {
	SyncChannel(ctx context.Context, req services.SyncRequest) (string, error)
	SyncAll(ctx context.Context, force bool) (string, error)
}

// SyncOpts configures [Syncer.SyncChannels].
type SyncOpts struct {
	StartDate  string  // YYYY-MM-DD, defaults to today
	EndDate    string  // YYYY-MM-DD, defaults to StartDate
	NumWorkers int     // Concurrent workers (default: 3)
	RateLimit  float64 // Requests per second (default: 2)
}

// BatchSyncResult summarizes a multi-channel sync.
type BatchSyncResult struct {
	Entries   []models.SyncLogEntry
	Succeeded int
	Failed    int
}

// Syncer triggers backend syncs and records each outcome in the sync log.
//
// Single-channel syncs and full syncs each have an in-flight guard: a second request of the same
// kind while one is running fails fast with [shared.ErrSyncInProgress].
type Syncer struct {
	api      SyncAPI
	log      *synclog.Log
	logger   *log.Logger
	location *time.Location

	mu    sync.RWMutex
	names map[string]string

	channelBusy atomic.Bool
	allBusy     atomic.Bool
	now         func() time.Time
}

// NewSyncer creates a new Syncer. Default dates are computed in loc (UTC when nil).
func NewSyncer(api SyncAPI, l *synclog.Log, loc *time.Location, logger *log.Logger) *Syncer {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Syncer{api: api, log: l, location: loc, logger: logger, names: map[string]string{}, now: time.Now}
}

// UseChannels refreshes the channel_id → display name table used for log entries.
func (s *Syncer) UseChannels(channels []models.Channel) {
	names := make(map[string]string, len(channels))
	for _, c := range channels {
		names[c.ChannelID] = c.DisplayName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = names
}

// DisplayName resolves a channel ID to its display name, falling back to the ID.
func (s *Syncer) DisplayName(channelID string) string {
	if channelID == models.AllChannelsID {
		return models.AllChannelsName
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if name := s.names[channelID]; name != "" {
		return name
	}
	return channelID
}

// Busy reports whether a single-channel or full sync is running.
func (s *Syncer) Busy() bool {
	return s.channelBusy.Load() || s.allBusy.Load()
}

// SyncChannel syncs one channel over [start, end] and records the outcome.
//
// Empty dates default to today. The returned entry is the one recorded; err is the backend error on failure.
func (s *Syncer) SyncChannel(ctx context.Context, channelID, start, end string) (models.SyncLogEntry, error) {
	if channelID == "" {
		return models.SyncLogEntry{}, fmt.Errorf("%w: channel is required", shared.ErrMissingArgument)
	}
	if !s.channelBusy.CompareAndSwap(false, true) {
		return models.SyncLogEntry{}, shared.ErrSyncInProgress
	}
	defer s.channelBusy.Store(false)

	req, err := s.request(channelID, start, end)
	if err != nil {
		return models.SyncLogEntry{}, err
	}
	return s.syncOne(ctx, req)
}

// SyncAll starts the backend's full sync job and records the outcome under channel "all".
func (s *Syncer) SyncAll(ctx context.Context, force bool) (models.SyncLogEntry, error) {
	if !s.allBusy.CompareAndSwap(false, true) {
		return models.SyncLogEntry{}, shared.ErrSyncInProgress
	}
	defer s.allBusy.Store(false)

	entry := models.SyncLogEntry{
		ChannelID:   models.AllChannelsID,
		ChannelName: models.AllChannelsName,
		Timestamp:   s.now(),
	}

	message, err := s.api.SyncAll(ctx, force)
	entry = s.finish(entry, message, err, syncStarted)
	s.logger.Info("full sync requested", "force", force, "status", entry.Status)
	return entry, err
}

// SyncChannels syncs several channels concurrently with rate limiting and progress tracking.
//
// It holds the single-channel guard for the whole run. Each channel's outcome is recorded in the
// sync log and reported on progress; individual failures do not stop the run.
func (s *Syncer) SyncChannels(ctx context.Context, progress chan<- ProgressUpdate, channelIDs []string, opts SyncOpts) (*BatchSyncResult, error) {
	if len(channelIDs) == 0 {
		return nil, fmt.Errorf("%w: no channels to sync", shared.ErrMissingArgument)
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > len(channelIDs) {
		opts.NumWorkers = len(channelIDs)
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 2.0
	}

	requests := make([]services.SyncRequest, 0, len(channelIDs))
	for _, id := range channelIDs {
		req, err := s.request(id, opts.StartDate, opts.EndDate)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}

	if !s.channelBusy.CompareAndSwap(false, true) {
		return nil, shared.ErrSyncInProgress
	}
	defer s.channelBusy.Store(false)

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan services.SyncRequest, len(requests))
	results := make(chan models.SyncLogEntry, len(requests))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go s.syncWorker(ctx, &wg, limiter, jobs, results)
	}

	for _, req := range requests {
		jobs <- req
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	result := &BatchSyncResult{Entries: make([]models.SyncLogEntry, 0, len(requests))}
	for entry := range results {
		result.Entries = append(result.Entries, entry)
		if entry.Status == models.SyncSuccess {
			result.Succeeded++
		} else {
			result.Failed++
		}
		sendProgress(progress, channelSyncedUpdate(len(result.Entries), len(requests), entry))
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("sync interrupted after %d of %d channels: %w", len(result.Entries), len(requests), err)
	}
	return result, nil
}

// syncWorker drains jobs until the channel closes or ctx is cancelled.
func (s *Syncer) syncWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan services.SyncRequest,
	results chan<- models.SyncLogEntry,
) {
	defer wg.Done()

	for req := range jobs {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		entry, _ := s.syncOne(ctx, req)
		results <- entry
	}
}

func (s *Syncer) syncOne(ctx context.Context, req services.SyncRequest) (models.SyncLogEntry, error) {
	entry := models.SyncLogEntry{
		ChannelID:   req.ChannelID,
		ChannelName: s.DisplayName(req.ChannelID),
		Timestamp:   s.now(),
	}

	message, err := s.api.SyncChannel(ctx, req)
	entry = s.finish(entry, message, err, syncSucceeded)
	s.logger.Info("channel sync", "channel", req.ChannelID, "start", req.StartDate, "end", req.EndDate, "status", entry.Status)
	return entry, err
}

// finish fills status and message and records the entry.
func (s *Syncer) finish(entry models.SyncLogEntry, message string, err error, okMessage string) models.SyncLogEntry {
	if err != nil {
		entry.Status = models.SyncFailed
		entry.Message = notify.MessageFrom(err, syncFailed)
	} else {
		entry.Status = models.SyncSuccess
		entry.Message = message
		if entry.Message == "" || entry.Message == "success" {
			entry.Message = okMessage
		}
	}
	if s.log != nil {
		entry = s.log.Record(entry)
	}
	return entry
}

// request builds a sync request, defaulting the start to today and the end to the start.
func (s *Syncer) request(channelID, start, end string) (services.SyncRequest, error) {
	if start == "" {
		start = shared.Today(s.location)
	}
	if end == "" {
		end = start
	}

	from, err := shared.ParseDate(start)
	if err != nil {
		return services.SyncRequest{}, err
	}
	to, err := shared.ParseDate(end)
	if err != nil {
		return services.SyncRequest{}, err
	}
	if to.Before(from) {
		return services.SyncRequest{}, fmt.Errorf("%w: end date %s is before start date %s", shared.ErrInvalidInput, end, start)
	}
	return services.SyncRequest{ChannelID: channelID, StartDate: start, EndDate: end}, nil
}
