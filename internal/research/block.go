// Package research groups streamed messages into research blocks, one block
// per plan-and-execute cycle.
package research

import (
	"time"

	"github.com/ResearchDeck/ResearchDeck/internal/protocol"
)

// Status is the block lifecycle state. Blocks move ongoing -> completed and
// are never reopened or deleted.
type Status string

const (
	StatusOngoing   Status = "ongoing"
	StatusCompleted Status = "completed"
)

// Type classifies what kind of cycle a block represents.
type Type string

const (
	TypePlanner    Type = "planner"
	TypeReact      Type = "react"
	TypePM         Type = "pm"
	TypeResearcher Type = "researcher"
	TypeCoder      Type = "coder"
)

// TypeForAgent maps an execution agent to the block type it seeds.
func TypeForAgent(agent string) Type {
	switch agent {
	case protocol.AgentReact:
		return TypeReact
	case protocol.AgentPM:
		return TypePM
	case protocol.AgentResearcher:
		return TypeResearcher
	case protocol.AgentCoder:
		return TypeCoder
	default:
		return TypePM
	}
}

// Classifiable reports whether messages from this agent participate in
// research blocks. Coordinator and podcast messages render at the top level.
func Classifiable(agent, role string) bool {
	if role != protocol.RoleAssistant {
		return false
	}
	switch agent {
	case protocol.AgentPlanner, protocol.AgentResearcher, protocol.AgentCoder,
		protocol.AgentReporter, protocol.AgentPM, protocol.AgentReact:
		return true
	}
	return false
}

// Block is one research session. Its ID is taken from a constituent message
// id, conventionally the planner's or the first execution agent's message.
type Block struct {
	ID              string
	Type            Type
	PlanMessageID   string
	ReportMessageID string
	ActivityIDs     []string
	Status          Status
	CreatedAt       time.Time
}

// Clone returns a deep copy safe to mutate.
func (b *Block) Clone() *Block {
	c := *b
	c.ActivityIDs = append([]string(nil), b.ActivityIDs...)
	return &c
}

// HasActivity reports whether the message id is already in the block.
func (b *Block) HasActivity(id string) bool {
	for _, a := range b.ActivityIDs {
		if a == id {
			return true
		}
	}
	return false
}

// AppendActivity adds a message id, preserving insertion order and
// uniqueness.
func (b *Block) AppendActivity(id string) {
	if !b.HasActivity(id) {
		b.ActivityIDs = append(b.ActivityIDs, id)
	}
}
