package store

import (
	"github.com/ResearchDeck/ResearchDeck/internal/protocol"
	"github.com/ResearchDeck/ResearchDeck/internal/research"
)

// view adapts locked store state to the classifier's read interface.
// Methods must only be called with s.mu held.
type view struct{ s *Store }

func (v view) Block(id string) (*research.Block, bool) {
	b, ok := v.s.blocks[id]
	return b, ok
}

func (v view) Blocks() []*research.Block {
	out := make([]*research.Block, 0, len(v.s.blockIDs))
	for i := len(v.s.blockIDs) - 1; i >= 0; i-- {
		out = append(out, v.s.blocks[v.s.blockIDs[i]])
	}
	return out
}

func (v view) OngoingID() string { return v.s.ongoingResearchID }

func (s *Store) lockedView() research.View { return view{s} }

// MessageIDs returns every message id in arrival order.
func (s *Store) MessageIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.messageIDs...)
}

// TopLevelIDs returns the ordered ids the conversation view renders
// directly: user messages, coordinator and podcast messages, and block-start
// markers. Reporter messages are excluded; they render nested inside their
// block.
func (s *Store) TopLevelIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.messageIDs))
	for _, id := range s.messageIDs {
		m := s.messages[id]
		if _, isBlockStart := s.blocks[id]; isBlockStart {
			out = append(out, id)
			continue
		}
		switch {
		case m.Role == protocol.RoleUser:
			out = append(out, id)
		case m.Agent == protocol.AgentCoordinator, m.Agent == protocol.AgentPodcast:
			out = append(out, id)
		}
	}
	return out
}

// Block returns the block snapshot for the id.
func (s *Store) Block(id string) (*research.Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blocks[id]
	return b, ok
}

// Blocks returns all blocks in creation order.
func (s *Store) Blocks() []*research.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*research.Block, 0, len(s.blockIDs))
	for _, id := range s.blockIDs {
		out = append(out, s.blocks[id])
	}
	return out
}

// ActivityIDs returns the block's activity list in insertion order.
func (s *Store) ActivityIDs(blockID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blocks[blockID]
	if !ok {
		return nil
	}
	return append([]string(nil), b.ActivityIDs...)
}

// OngoingResearchID returns the id of the block receiving activity, or "".
func (s *Store) OngoingResearchID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ongoingResearchID
}

// OpenResearchID returns the id of the block expanded in the UI, or "".
func (s *Store) OpenResearchID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.openResearchID
}
