package message

import (
	"github.com/ResearchDeck/ResearchDeck/internal/protocol"
)

// Merge folds one event into a message snapshot and returns the updated
// snapshot. old may be nil, in which case a fresh streaming message is
// created from the event envelope. Merge is pure with respect to its inputs:
// old is never mutated.
//
// The caller is responsible for resolving which message an event targets; in
// particular a tool_call_result must be merged into the message that declared
// the call, not the message matching the event's own envelope id.
func Merge(old *Message, ev protocol.Event) *Message {
	env := ev.Envelope()

	var m *Message
	if old == nil {
		m = &Message{
			ID:          env.ID,
			ThreadID:    env.ThreadID,
			Agent:       env.Agent,
			Role:        env.Role,
			IsStreaming: true,
		}
	} else {
		m = old.Clone()
	}

	switch e := ev.(type) {
	case *protocol.MessageChunkEvent:
		if e.Content != "" {
			m.ContentChunks = append(m.ContentChunks, e.Content)
			m.Content += e.Content
		}
		if e.ReasoningContent != "" {
			m.ReasoningChunks = append(m.ReasoningChunks, e.ReasoningContent)
			m.ReasoningContent += e.ReasoningContent
		}
		if len(e.Thoughts) > 0 {
			m.Thoughts = append(m.Thoughts, e.Thoughts...)
		}

	case *protocol.ToolCallsEvent:
		for _, call := range e.Calls {
			mergeToolCall(m, call)
		}

	case *protocol.ToolCallChunksEvent:
		for _, chunk := range e.Chunks {
			mergeToolCallChunk(m, chunk)
		}

	case *protocol.ToolCallResultEvent:
		if i := m.ToolCallIndex(e.ToolCallID); i >= 0 {
			m.ToolCalls[i].Result = e.Result
			m.ToolCalls[i].HasResult = true
		}

	case *protocol.InterruptEvent:
		m.InterruptOptions = append([]protocol.InterruptOption(nil), e.Options...)

	case *protocol.ThoughtsEvent:
		m.Thoughts = append(m.Thoughts, e.Thoughts...)

	case *protocol.StepProgressEvent, *protocol.PMRefreshEvent:
		// No message content to merge.
	}

	if env.FinishReason != "" {
		m.FinishReason = env.FinishReason
		m.IsStreaming = false
	}
	return m
}

func mergeToolCall(m *Message, call protocol.ToolCallDescriptor) {
	if i := m.ToolCallIndex(call.ID); i >= 0 {
		if call.Name != "" {
			m.ToolCalls[i].Name = call.Name
		}
		m.ToolCalls[i].Args += call.Args
		return
	}
	m.ToolCalls = append(m.ToolCalls, ToolCall{ID: call.ID, Name: call.Name, Args: call.Args})
}

// mergeToolCallChunk accumulates partial arguments. Continuation chunks may
// omit the call id; the chunk index then addresses the call positionally.
func mergeToolCallChunk(m *Message, chunk protocol.ToolCallChunk) {
	i := -1
	if chunk.ID != "" {
		i = m.ToolCallIndex(chunk.ID)
	} else if chunk.Index >= 0 && chunk.Index < len(m.ToolCalls) {
		i = chunk.Index
	}
	if i < 0 {
		m.ToolCalls = append(m.ToolCalls, ToolCall{ID: chunk.ID, Name: chunk.Name, Args: chunk.Args})
		return
	}
	if chunk.Name != "" {
		m.ToolCalls[i].Name = chunk.Name
	}
	m.ToolCalls[i].Args += chunk.Args
}
