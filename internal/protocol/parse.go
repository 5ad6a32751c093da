package protocol

import (
	"encoding/json"
	"fmt"
)

// rawEvent is the superset of all wire payload fields. Each event type reads
// the fields it owns and ignores the rest.
type rawEvent struct {
	Type string `json:"type,omitempty"`

	ID           string       `json:"id"`
	ThreadID     string       `json:"thread_id"`
	Agent        string       `json:"agent,omitempty"`
	Role         string       `json:"role"`
	FinishReason FinishReason `json:"finish_reason,omitempty"`

	Content          string               `json:"content,omitempty"`
	ReasoningContent string               `json:"reasoning_content,omitempty"`
	Thoughts         []Thought            `json:"thoughts,omitempty"`
	ToolCalls        []ToolCallDescriptor `json:"tool_calls,omitempty"`
	ToolCallChunks   []ToolCallChunk      `json:"tool_call_chunks,omitempty"`
	ToolCallID       string               `json:"tool_call_id,omitempty"`
	Options          []InterruptOption    `json:"options,omitempty"`
	Title            string               `json:"title,omitempty"`
	Description      string               `json:"description,omitempty"`
	Index            int                  `json:"index,omitempty"`
	Total            int                  `json:"total,omitempty"`
}

func (r *rawEvent) envelope() Envelope {
	return Envelope{
		ID:           r.ID,
		ThreadID:     r.ThreadID,
		Agent:        r.Agent,
		Role:         r.Role,
		FinishReason: r.FinishReason,
	}
}

// Parse decodes one wire event. eventType is carried out of band (the SSE
// event name); data is the JSON payload.
func Parse(eventType string, data []byte) (Event, error) {
	var raw rawEvent
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s event: %w", eventType, err)
	}
	return fromRaw(eventType, &raw)
}

// ParseEmbedded decodes an event whose type is embedded in the payload as a
// "type" field (broker and capture transports).
func ParseEmbedded(data []byte) (Event, error) {
	var raw rawEvent
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse event: %w", err)
	}
	if raw.Type == "" {
		return nil, fmt.Errorf("parse event: missing type field")
	}
	return fromRaw(raw.Type, &raw)
}

func fromRaw(eventType string, raw *rawEvent) (Event, error) {
	env := raw.envelope()
	switch eventType {
	case TypeMessageChunk:
		return &MessageChunkEvent{
			Env:              env,
			Content:          raw.Content,
			ReasoningContent: raw.ReasoningContent,
			Thoughts:         raw.Thoughts,
		}, nil
	case TypeToolCalls:
		return &ToolCallsEvent{Env: env, Calls: raw.ToolCalls}, nil
	case TypeToolCallChunks:
		return &ToolCallChunksEvent{Env: env, Chunks: raw.ToolCallChunks}, nil
	case TypeToolCallResult:
		return &ToolCallResultEvent{Env: env, ToolCallID: raw.ToolCallID, Result: raw.Content}, nil
	case TypeInterrupt:
		return &InterruptEvent{Env: env, Options: raw.Options}, nil
	case TypeStepProgress:
		return &StepProgressEvent{
			Env:         env,
			Title:       raw.Title,
			Description: raw.Description,
			Index:       raw.Index,
			Total:       raw.Total,
		}, nil
	case TypeThoughts:
		return &ThoughtsEvent{Env: env, Thoughts: raw.Thoughts}, nil
	case TypePMRefresh:
		return &PMRefreshEvent{Env: env}, nil
	default:
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}
}
