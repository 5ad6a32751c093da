// Package notify carries user-facing notifications and stream failure
// classification for the research client.
package notify

import (
	"context"
	"sync"
	"time"
)

// Kind distinguishes notification classes.
type Kind string

const (
	// KindProviderConfig is an actionable setup problem, not a failure.
	KindProviderConfig Kind = "provider_config"
	// KindFailure is a generic stream failure.
	KindFailure Kind = "failure"
	// KindPMRefresh asks dependent panels to refetch PM data.
	KindPMRefresh Kind = "pm_refresh"
	// KindReportDone announces a completed research report.
	KindReportDone Kind = "report_done"
	// KindStepProgress carries plan-step progress for the UI.
	KindStepProgress Kind = "step_progress"
)

// Notification is one user-facing notice.
type Notification struct {
	Kind      Kind
	Title     string
	Body      string
	ThreadID  string
	Timestamp time.Time
}

// Bus decouples the stream engine from notification consumers.
type Bus struct {
	ch   chan Notification
	subs []func(Notification)
	mu   sync.RWMutex
}

// NewBus creates a notification bus.
func NewBus() *Bus {
	return &Bus{ch: make(chan Notification, 100)}
}

// Publish enqueues a notification for dispatch.
func (b *Bus) Publish(n Notification) {
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}
	select {
	case b.ch <- n:
	default:
		// A full queue means no consumer is draining; dropping beats
		// blocking the stream consumer.
	}
}

// Subscribe registers a callback for dispatched notifications.
func (b *Bus) Subscribe(fn func(Notification)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}

// Dispatch runs the dispatcher until the context is cancelled.
// This should be run as a goroutine.
func (b *Bus) Dispatch(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n := <-b.ch:
			b.mu.RLock()
			subs := b.subs
			b.mu.RUnlock()
			for _, fn := range subs {
				fn(n)
			}
		}
	}
}

// Pending returns the number of queued notifications.
func (b *Bus) Pending() int {
	return len(b.ch)
}
