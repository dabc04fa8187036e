// Package notify delivers transient user-facing notifications (the console's toasts).
//
// Call sites translate failures with [MessageFrom] so the text shown prefers what the
// server said over a generic fallback.
package notify

import (
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Level distinguishes success toasts from destructive ones.
type Level int

const (
	Info Level = iota
	Success
	Failure
)

func (l Level) String() string {
	switch l {
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "info"
	}
}

// Notification is one toast.
type Notification struct {
	Level       Level
	Title       string
	Description string
	At          time.Time
}

// Notifier receives notifications. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(n Notification)
}

// ServerMessager is implemented by errors that carry a message from the backend.
type ServerMessager interface {
	ServerMessage() string
}

// MessageFrom returns the server-provided message carried by err, or fallback.
func MessageFrom(err error, fallback string) string {
	var sm ServerMessager
	if errors.As(err, &sm) {
		if msg := sm.ServerMessage(); msg != "" {
			return msg
		}
	}
	return fallback
}

// Successf notifies a success toast.
func Successf(n Notifier, title, description string) {
	n.Notify(Notification{Level: Success, Title: title, Description: description, At: time.Now()})
}

// Failf notifies a destructive toast whose description comes from err via [MessageFrom].
func Failf(n Notifier, title string, err error, fallback string) {
	n.Notify(Notification{Level: Failure, Title: title, Description: MessageFrom(err, fallback), At: time.Now()})
}

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(n Notification) {
	switch n.Level {
	case Failure:
		l.logger.Error(n.Title, "detail", n.Description)
	default:
		l.logger.Info(n.Title, "detail", n.Description)
	}
}

// Recorder keeps every notification it receives.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// All returns a copy of the recorded notifications, oldest first.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return Notification{}, false
	}
	return r.items[len(r.items)-1], true
}

// Discard drops every notification.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Notify(Notification) {}
