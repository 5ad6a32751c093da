// Package message holds the merged message model built from streamed events.
package message

import (
	"github.com/ResearchDeck/ResearchDeck/internal/protocol"
)

// ToolCall is a tool invocation declared by a message. Its ID is stable
// across the requested and result phases.
type ToolCall struct {
	ID        string
	Name      string
	Args      string
	Result    string
	HasResult bool
}

// Message is an immutable snapshot of one conversation message. Merge never
// mutates a snapshot in place; it returns a fresh value.
type Message struct {
	ID       string
	ThreadID string
	Agent    string
	Role     string

	Content       string
	ContentChunks []string

	ReasoningContent string
	ReasoningChunks  []string

	Thoughts  []protocol.Thought
	ToolCalls []ToolCall

	InterruptOptions []protocol.InterruptOption

	IsStreaming  bool
	FinishReason protocol.FinishReason
}

// Clone returns a deep copy safe to mutate.
func (m *Message) Clone() *Message {
	c := *m
	c.ContentChunks = append([]string(nil), m.ContentChunks...)
	c.ReasoningChunks = append([]string(nil), m.ReasoningChunks...)
	c.Thoughts = append([]protocol.Thought(nil), m.Thoughts...)
	c.ToolCalls = append([]ToolCall(nil), m.ToolCalls...)
	c.InterruptOptions = append([]protocol.InterruptOption(nil), m.InterruptOptions...)
	return &c
}

// ToolCallIndex returns the index of the tool call with the given id, or -1.
func (m *Message) ToolCallIndex(id string) int {
	for i := range m.ToolCalls {
		if m.ToolCalls[i].ID == id {
			return i
		}
	}
	return -1
}

// DeclaresToolCall reports whether the message declares the given call id.
func (m *Message) DeclaresToolCall(id string) bool {
	return id != "" && m.ToolCallIndex(id) >= 0
}
