package research

import (
	"time"

	"github.com/ResearchDeck/ResearchDeck/internal/protocol"
)

// Policy bounds the lookback search for a reusable block when nothing is
// ongoing. Lookback counts most-recent-first block creations; MaxAge
// additionally caps how old a candidate may be (zero disables the age cap).
type Policy struct {
	Lookback int
	MaxAge   time.Duration
}

// DefaultPolicy matches the behavior tuned for interactive sessions.
func DefaultPolicy() Policy {
	return Policy{Lookback: 8, MaxAge: 10 * time.Minute}
}

// View is the subset of conversation state the classifier reads.
type View interface {
	// Block returns the block with the given id.
	Block(id string) (*Block, bool)
	// Blocks returns all blocks, most recently created first.
	Blocks() []*Block
	// OngoingID returns the id of the ongoing block, or "".
	OngoingID() string
}

// Decision is the classifier's verdict for one newly appended message.
// Exactly one of BlockID or Created is set: BlockID names an existing block
// to attach to, Created is a brand-new block seeded by the message.
type Decision struct {
	BlockID string
	Created *Block
}

// Classifier assigns newly appended messages to research blocks.
type Classifier struct {
	policy Policy
}

// NewClassifier creates a classifier with the given lookback policy.
func NewClassifier(policy Policy) *Classifier {
	if policy.Lookback <= 0 {
		policy.Lookback = DefaultPolicy().Lookback
	}
	return &Classifier{policy: policy}
}

// Classify decides block membership for a message that has not been
// classified before. Precedence:
//
//  1. A planner message whose id is not yet a block id seeds a new planner
//     block.
//  2. A planner message whose id is already a block id reuses that block
//     (duplicate or replayed arrival).
//  3. Any message already known to a block, by id or activity membership,
//     reuses it.
//  4. If a block is ongoing, the message attaches to it regardless of its
//     own agent: execution agents are carrying out the plan that opened the
//     session.
//  5. Otherwise a bounded most-recent-first lookback reuses a block whose
//     type matches the message's mapped type, or any planner block.
//  6. Otherwise the message seeds a new block of its mapped type.
func (c *Classifier) Classify(v View, msgID, agent string, now time.Time) Decision {
	if agent == protocol.AgentPlanner {
		if _, ok := v.Block(msgID); ok {
			return Decision{BlockID: msgID}
		}
		return Decision{Created: &Block{
			ID:            msgID,
			Type:          TypePlanner,
			PlanMessageID: msgID,
			ActivityIDs:   []string{msgID},
			Status:        StatusOngoing,
			CreatedAt:     now,
		}}
	}

	if _, ok := v.Block(msgID); ok {
		return Decision{BlockID: msgID}
	}
	for _, b := range v.Blocks() {
		if b.HasActivity(msgID) {
			return Decision{BlockID: b.ID}
		}
	}

	if ongoing := v.OngoingID(); ongoing != "" {
		return Decision{BlockID: ongoing}
	}

	want := TypeForAgent(agent)
	for i, b := range v.Blocks() {
		if i >= c.policy.Lookback {
			break
		}
		if c.policy.MaxAge > 0 && now.Sub(b.CreatedAt) > c.policy.MaxAge {
			break
		}
		if b.Type == want || b.Type == TypePlanner {
			return Decision{BlockID: b.ID}
		}
	}

	return Decision{Created: &Block{
		ID:          msgID,
		Type:        want,
		ActivityIDs: []string{msgID},
		Status:      StatusOngoing,
		CreatedAt:   now,
	}}
}
