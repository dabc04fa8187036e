package query

import (
	"context"
	"sync"

	"github.com/epg-sync/epgctl/internal/models"
	"github.com/epg-sync/epgctl/internal/notify"
)

// List is the state behind one filtered list view. It is safe for concurrent use.
type List[T any] struct {
	mu       sync.Mutex
	source   Source[T]
	filter   Filter
	items    []T
	total    int
	inFlight int
	seq      uint64

	notifier notify.Notifier
	errTitle string
}

// NewList creates a list over source starting from initial. Page defaults to 1.
//
// errTitle heads the notification sent when a refresh fails.
func NewList[T any](source Source[T], initial Filter, n notify.Notifier, errTitle string) *List[T] {
	if initial.Page < 1 {
		initial.Page = 1
	}
	if n == nil {
		n = notify.Discard
	}
	return &List[T]{source: source, filter: initial, items: []T{}, notifier: n, errTitle: errTitle}
}

// Filter returns the current filter.
func (l *List[T]) Filter() Filter {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filter
}

// Items returns a copy of the visible items.
func (l *List[T]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]T{}, l.items...)
}

// Total is the server-side row count of the last successful query.
func (l *List[T]) Total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// TotalPages is ceil(Total / PageSize). Pages beyond it are not clamped.
func (l *List[T]) TotalPages() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return models.TotalPages(l.total, l.filter.PageSize)
}

// Loading reports whether any request is in flight.
func (l *List[T]) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inFlight > 0
}

// SetPage moves to page p (values below 1 become 1). It reports whether a refresh is needed.
func (l *List[T]) SetPage(p int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if p < 1 {
		p = 1
	}
	changed := l.filter.Page != p
	l.filter.Page = p
	return changed
}

// NextPage advances one page. It reports whether a refresh is needed.
func (l *List[T]) NextPage() bool {
	return l.SetPage(l.Filter().Page + 1)
}

// PrevPage goes back one page, stopping at 1. It reports whether a refresh is needed.
func (l *List[T]) PrevPage() bool {
	return l.SetPage(l.Filter().Page - 1)
}

// SetChannel changes the channel filter and resets to page 1.
func (l *List[T]) SetChannel(channelID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	changed := l.filter.ChannelID != channelID || l.filter.Page != 1
	l.filter.ChannelID = channelID
	l.filter.Page = 1
	return changed
}

// SetDate changes the date filter and resets to page 1.
func (l *List[T]) SetDate(date string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	changed := l.filter.Date != date || l.filter.Page != 1
	l.filter.Date = date
	l.filter.Page = 1
	return changed
}

// SetFreeText changes the free-text filter.
func (l *List[T]) SetFreeText(text string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	changed := l.filter.FreeText != text
	l.filter.FreeText = text
	return changed
}

// SetProvider changes the provider filter.
func (l *List[T]) SetProvider(providerID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	changed := l.filter.ProviderID != providerID
	l.filter.ProviderID = providerID
	return changed
}

// Refresh queries the source with the current filter.
//
// On success the items and total are replaced. On failure they are cleared, a notification is
// sent and the filter is kept. If another Refresh started in the meantime the response is
// dropped and [ErrStale] is returned.
func (l *List[T]) Refresh(ctx context.Context) error {
	l.mu.Lock()
	l.seq++
	seq := l.seq
	f := l.filter
	l.inFlight++
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.inFlight--
		l.mu.Unlock()
	}()

	page, err := l.source.Query(ctx, f)

	l.mu.Lock()
	if seq != l.seq {
		l.mu.Unlock()
		return ErrStale
	}
	if err != nil {
		l.items = []T{}
		l.total = 0
		l.mu.Unlock()
		notify.Failf(l.notifier, l.errTitle, err, "Could not load data")
		return err
	}

	l.items = page.Items
	if l.items == nil {
		l.items = []T{}
	}
	l.total = page.Total
	l.mu.Unlock()
	return nil
}
