package query

import (
	"context"
	"errors"
	"sync"

	"github.com/epg-sync/epgctl/internal/models"
)

// DefaultPageSize is the program list page size.
const DefaultPageSize = 50

// ErrStale reports that a response was dropped because a newer request had been issued.
var ErrStale = errors.New("query superseded by a newer request")

// Filter is the user-editable query state.
//
// FreeText and ProviderID are applied locally; ChannelID, Date, Page and PageSize are sent to the server.
// "" and [models.AllFilter] both mean "no restriction" for ProviderID and ChannelID.
type Filter struct {
	FreeText   string
	ProviderID string
	ChannelID  string
	Date       string
	Page       int
	PageSize   int
}

// Source answers a filter with one page of results.
type Source[T any] interface {
	Query(ctx context.Context, f Filter) (models.Page[T], error)
}

// Local filters an in-memory list with a predicate. Paging fields are ignored.
type Local[T any] struct {
	mu    sync.RWMutex
	items []T
	match func(T, Filter) bool
}

// NewLocal creates a [Local] over items.
func NewLocal[T any](items []T, match func(T, Filter) bool) *Local[T] {
	return &Local[T]{items: items, match: match}
}

// Set replaces the underlying list.
func (l *Local[T]) Set(items []T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = items
}

// All returns the unfiltered list.
func (l *Local[T]) All() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]T(nil), l.items...)
}

// Query implements [Source]. It never fails.
func (l *Local[T]) Query(_ context.Context, f Filter) (models.Page[T], error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	matched := make([]T, 0, len(l.items))
	for _, item := range l.items {
		if l.match(item, f) {
			matched = append(matched, item)
		}
	}
	return models.Page[T]{Items: matched, Total: len(matched)}, nil
}

// MatchMapping is the mapping list predicate: case-insensitive substring of the free text in the
// canonical or provider channel ID, and provider equality.
func MatchMapping(m models.ChannelMapping, f Filter) bool {
	return m.MatchesText(f.FreeText) && m.MatchesProvider(f.ProviderID)
}

// NewMappingSource creates a [Local] mapping source.
func NewMappingSource(mappings []models.ChannelMapping) *Local[models.ChannelMapping] {
	return NewLocal(mappings, MatchMapping)
}

// FetchFunc loads one page from the server.
type FetchFunc[T any] func(ctx context.Context, f Filter) (models.Page[T], error)

// Remote delegates each query to the server.
type Remote[T any] struct {
	fetch FetchFunc[T]
}

// NewRemote creates a [Remote] around fetch.
func NewRemote[T any](fetch FetchFunc[T]) *Remote[T] {
	return &Remote[T]{fetch: fetch}
}

// Query implements [Source].
func (r *Remote[T]) Query(ctx context.Context, f Filter) (models.Page[T], error) {
	return r.fetch(ctx, f)
}

// ProgramSearcher is the backend call behind the program list. [services.Client] implements it.
type ProgramSearcher interface {
	SearchPrograms(ctx context.Context, search models.ProgramSearch) (models.Page[models.Program], error)
}

// NewProgramSource creates a [Remote] program source that attaches the viewer's IANA timezone.
func NewProgramSource(api ProgramSearcher, timezone string) *Remote[models.Program] {
	return NewRemote(func(ctx context.Context, f Filter) (models.Page[models.Program], error) {
		search := models.ProgramSearch{
			Date:     f.Date,
			Timezone: timezone,
			Page:     f.Page,
			PageSize: f.PageSize,
		}
		if f.ChannelID != models.AllFilter {
			search.ChannelID = f.ChannelID
		}
		return api.SearchPrograms(ctx, search)
	})
}
