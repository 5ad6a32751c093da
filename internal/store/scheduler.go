package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ResearchDeck/ResearchDeck/internal/message"
	"github.com/ResearchDeck/ResearchDeck/internal/notify"
	"github.com/ResearchDeck/ResearchDeck/internal/protocol"
)

// Source yields agent events from the backend pipeline. Recv blocks until an
// event is available; it returns io.EOF on clean stream end.
type Source interface {
	Recv(ctx context.Context) (protocol.Event, error)
	Close() error
}

// flushInterval is roughly one animation frame: long enough to coalesce a
// burst of chunks, short enough that streaming text still feels live.
const flushInterval = 16 * time.Millisecond

// Scheduler is the single consumer bridging the event source to the store.
// Session-relevant transitions (new message, streaming finished) commit
// immediately; chunk updates are staged last-write-wins per message id and
// flushed on a debounce timer.
type Scheduler struct {
	store *Store
	bus   *notify.Bus

	mu      sync.Mutex
	pending map[string]*message.Message
	deb     *Debouncer
}

// NewScheduler creates a scheduler writing into the store.
func NewScheduler(st *Store, bus *notify.Bus) *Scheduler {
	s := &Scheduler{
		store:   st,
		bus:     bus,
		pending: make(map[string]*message.Message),
	}
	s.deb = NewDebouncer(flushInterval, s.flush)
	return s
}

// Run drains the source until it ends, fails, or the context is cancelled.
// Clean end and cancellation return nil; failures are classified, surfaced
// on the bus at most once, and returned. In every exit path staged updates
// are flushed and in-flight messages sealed.
func (s *Scheduler) Run(ctx context.Context, src Source) error {
	defer src.Close()

	for {
		ev, err := src.Recv(ctx)
		if err != nil {
			s.deb.Cancel()
			s.flush()
			if errors.Is(err, io.EOF) {
				s.store.SealAll()
				return nil
			}
			return s.fail(err)
		}
		s.apply(ev)
	}
}

// fail runs the error/recovery path: classify, seal, notify once.
func (s *Scheduler) fail(err error) error {
	kind := notify.ClassifyStreamError(err)
	s.store.SealAll()

	if n, ok := notify.NotificationFor(kind, err); ok {
		if s.bus != nil {
			s.bus.Publish(n)
		}
		if kind == notify.FailureGeneric {
			slog.Error("research stream failed", "error", err)
			return err
		}
		// Configuration problems are actionable notices, not failures.
		return nil
	}
	// Cancellation: clean stop.
	return nil
}

func (s *Scheduler) apply(ev protocol.Event) {
	switch e := ev.(type) {
	case *protocol.PMRefreshEvent:
		if s.bus != nil {
			s.bus.Publish(notify.Notification{
				Kind:     notify.KindPMRefresh,
				ThreadID: e.Env.ThreadID,
			})
		}
		return
	case *protocol.StepProgressEvent:
		if s.bus != nil {
			s.bus.Publish(notify.Notification{
				Kind:     notify.KindStepProgress,
				Title:    e.Title,
				Body:     e.Description,
				ThreadID: e.Env.ThreadID,
			})
		}
		return
	}

	base, found := s.resolve(ev)
	if !found {
		if res, ok := ev.(*protocol.ToolCallResultEvent); ok {
			slog.Warn("dropping tool call result for unknown tool call",
				"tool_call_id", res.ToolCallID, "event_id", res.Env.ID)
			return
		}
		// base stays nil: a fresh message is created from the envelope.
	}

	merged := message.Merge(base, ev)

	justFinished := base != nil && base.IsStreaming && !merged.IsStreaming
	if base == nil || justFinished {
		s.mu.Lock()
		delete(s.pending, merged.ID)
		s.mu.Unlock()
		s.store.Commit([]*message.Message{merged})
		return
	}

	s.mu.Lock()
	s.pending[merged.ID] = merged
	s.mu.Unlock()
	s.deb.Arm()
}

// resolve finds the message snapshot an event targets, consulting staged
// updates before the committed store so merges chain on the latest value. A
// tool_call_result resolves to whichever message declared the call id, never
// to its own envelope id.
func (s *Scheduler) resolve(ev protocol.Event) (*message.Message, bool) {
	if res, ok := ev.(*protocol.ToolCallResultEvent); ok {
		s.mu.Lock()
		for _, m := range s.pending {
			if m.DeclaresToolCall(res.ToolCallID) {
				s.mu.Unlock()
				return m, true
			}
		}
		s.mu.Unlock()
		return s.store.FindToolCallOwner(res.ToolCallID)
	}

	id := ev.Envelope().ID
	s.mu.Lock()
	if m, ok := s.pending[id]; ok {
		s.mu.Unlock()
		return m, true
	}
	s.mu.Unlock()
	return s.store.Message(id)
}

// flush commits all staged updates in one batch. The mutex is held across
// the commit: if pending were cleared before the store write landed, a
// concurrent resolve could read the stale committed snapshot and merge the
// next chunk onto it, dropping the staged ones.
func (s *Scheduler) flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return
	}
	batch := make([]*message.Message, 0, len(s.pending))
	for _, m := range s.pending {
		batch = append(batch, m)
	}
	s.store.Commit(batch)
	s.pending = make(map[string]*message.Message)
}
