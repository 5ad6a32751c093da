// Package store owns the committed conversation state: merged messages,
// research blocks, and the cursors the UI reads. There is exactly one
// writer, the update scheduler; everything else reads through selectors.
package store

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ResearchDeck/ResearchDeck/internal/message"
	"github.com/ResearchDeck/ResearchDeck/internal/notify"
	"github.com/ResearchDeck/ResearchDeck/internal/protocol"
	"github.com/ResearchDeck/ResearchDeck/internal/research"

	"sync"
)

// Store holds the conversation state for one thread lifetime.
type Store struct {
	mu sync.RWMutex

	messages   map[string]*message.Message
	messageIDs []string // arrival order

	blocks   map[string]*research.Block
	blockIDs []string // creation order

	ongoingResearchID string
	openResearchID    string

	classifier *research.Classifier
	bus        *notify.Bus
	listeners  []func()

	now func() time.Time
}

// New creates an empty store.
func New(policy research.Policy, bus *notify.Bus) *Store {
	return &Store{
		messages:   make(map[string]*message.Message),
		blocks:     make(map[string]*research.Block),
		classifier: research.NewClassifier(policy),
		bus:        bus,
		now:        time.Now,
	}
}

// OnCommit registers a listener invoked after every committed batch.
func (s *Store) OnCommit(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// AppendUserMessage creates and commits a user message, returning its id.
func (s *Store) AppendUserMessage(threadID, content string) string {
	id := uuid.NewString()
	msg := &message.Message{
		ID:       id,
		ThreadID: threadID,
		Role:     protocol.RoleUser,
		Content:  content,
	}
	s.Commit([]*message.Message{msg})
	return id
}

// Message returns the committed snapshot for the id.
func (s *Store) Message(id string) (*message.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.messages[id]
	return m, ok
}

// FindToolCallOwner returns the committed message declaring the tool-call id.
func (s *Store) FindToolCallOwner(toolCallID string) (*message.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.messageIDs) - 1; i >= 0; i-- {
		m := s.messages[s.messageIDs[i]]
		if m.DeclaresToolCall(toolCallID) {
			return m, true
		}
	}
	return nil, false
}

// Commit applies a batch of merged message snapshots: table upsert, arrival
// ordering, block classification for new messages, and reporter
// finalization. Listeners fire once per batch.
func (s *Store) Commit(batch []*message.Message) {
	if len(batch) == 0 {
		return
	}
	s.mu.Lock()
	for _, m := range batch {
		prev, existed := s.messages[m.ID]
		s.messages[m.ID] = m
		if !existed {
			s.messageIDs = append(s.messageIDs, m.ID)
			if research.Classifiable(m.Agent, m.Role) {
				s.classifyLocked(m)
			}
		}
		finished := !m.IsStreaming && (!existed || prev.IsStreaming)
		if finished && m.Agent == protocol.AgentReporter {
			s.finalizeReportLocked(m)
		}
	}
	listeners := s.listeners
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// classifyLocked runs the block classifier for a newly appended message and
// applies its decision. Caller holds mu.
func (s *Store) classifyLocked(m *message.Message) {
	d := s.classifier.Classify(s.lockedView(), m.ID, m.Agent, s.now())
	if d.Created != nil {
		s.closeOngoingLocked()
		s.blocks[d.Created.ID] = d.Created
		s.blockIDs = append(s.blockIDs, d.Created.ID)
		s.ongoingResearchID = d.Created.ID
		s.openResearchID = d.Created.ID
		return
	}
	b, ok := s.blocks[d.BlockID]
	if !ok {
		slog.Warn("classifier chose unknown block", "block_id", d.BlockID, "message_id", m.ID)
		return
	}
	nb := b.Clone()
	nb.AppendActivity(m.ID)
	if m.Agent == protocol.AgentPlanner && nb.PlanMessageID == "" {
		nb.PlanMessageID = m.ID
	}
	s.blocks[nb.ID] = nb
}

// finalizeReportLocked completes a block when its reporter message stops
// streaming: the sole transition out of ongoing. Caller holds mu.
func (s *Store) finalizeReportLocked(m *message.Message) {
	var b *research.Block
	if s.ongoingResearchID != "" {
		b = s.blocks[s.ongoingResearchID]
	}
	if b == nil {
		for i := len(s.blockIDs) - 1; i >= 0; i-- {
			cand := s.blocks[s.blockIDs[i]]
			if cand.ReportMessageID == m.ID || cand.HasActivity(m.ID) {
				b = cand
				break
			}
		}
	}
	if b == nil {
		slog.Warn("reporter finished with no block to finalize", "message_id", m.ID)
		return
	}

	nb := b.Clone()
	nb.AppendActivity(m.ID)
	nb.ReportMessageID = m.ID
	nb.Status = research.StatusCompleted
	s.blocks[nb.ID] = nb
	s.openResearchID = nb.ID
	s.ongoingResearchID = ""

	if s.bus != nil {
		s.bus.Publish(notify.Notification{
			Kind:     notify.KindReportDone,
			Title:    "Research report ready",
			Body:     firstLine(m.Content),
			ThreadID: m.ThreadID,
		})
	}
}

// closeOngoingLocked completes every block still marked ongoing, so an
// abandoned session (re-plan, cancellation) never keeps the ongoing status
// after the cursor moves on. Caller holds mu.
func (s *Store) closeOngoingLocked() {
	for _, id := range s.blockIDs {
		b := s.blocks[id]
		if b.Status != research.StatusOngoing {
			continue
		}
		nb := b.Clone()
		nb.Status = research.StatusCompleted
		s.blocks[id] = nb
	}
	s.ongoingResearchID = ""
}

// SealAll marks every streaming message finished, completes any abandoned
// ongoing block, and clears the ongoing cursor. Used by the failure and
// cancellation paths so the UI never shows a message stuck mid-stream.
func (s *Store) SealAll() {
	s.mu.Lock()
	for id, m := range s.messages {
		if m.IsStreaming {
			nm := m.Clone()
			nm.IsStreaming = false
			s.messages[id] = nm
		}
	}
	s.closeOngoingLocked()
	listeners := s.listeners
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// OpenResearch sets the block expanded in the UI, independent of activity.
func (s *Store) OpenResearch(blockID string) {
	s.mu.Lock()
	s.openResearchID = blockID
	listeners := s.listeners
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

func firstLine(text string) string {
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			return text[:i]
		}
	}
	return text
}
