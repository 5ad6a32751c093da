// Package protocol defines the wire events emitted by the research agent pipeline.
package protocol

// Agent identifiers used in the event envelope. The set is closed; user
// messages carry no agent.
const (
	AgentCoordinator = "coordinator"
	AgentPlanner     = "planner"
	AgentResearcher  = "researcher"
	AgentCoder       = "coder"
	AgentReporter    = "reporter"
	AgentPM          = "pm_agent"
	AgentReact       = "react_agent"
	AgentPodcast     = "podcast"
)

// Role values carried by the envelope.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// FinishReason is the terminal marker on a message.
type FinishReason string

const (
	FinishStop      FinishReason = "stop"
	FinishToolCalls FinishReason = "tool_calls"
	FinishInterrupt FinishReason = "interrupt"
)

// Event type names as they appear on the wire.
const (
	TypeMessageChunk   = "message_chunk"
	TypeToolCalls      = "tool_calls"
	TypeToolCallChunks = "tool_call_chunks"
	TypeToolCallResult = "tool_call_result"
	TypeInterrupt      = "interrupt"
	TypeStepProgress   = "step_progress"
	TypeThoughts       = "thoughts"
	TypePMRefresh      = "pm_refresh"
)

// Envelope is common to every event.
type Envelope struct {
	ID           string       `json:"id"`
	ThreadID     string       `json:"thread_id"`
	Agent        string       `json:"agent,omitempty"`
	Role         string       `json:"role"`
	FinishReason FinishReason `json:"finish_reason,omitempty"`
}

// Event is the tagged union of all wire events. Concrete types below;
// consumers switch exhaustively on the concrete type.
type Event interface {
	Envelope() Envelope
	Type() string
}

// Thought is an intermediate reasoning note attached to a message.
type Thought struct {
	Kind    string `json:"type"`
	Content string `json:"content"`
}

// ToolCallDescriptor declares a tool invocation on a message.
type ToolCallDescriptor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Args string `json:"args,omitempty"`
}

// ToolCallChunk is a partial argument fragment for a declared tool call.
// ID may be empty on continuation chunks; Index then addresses the call.
type ToolCallChunk struct {
	ID    string `json:"id,omitempty"`
	Index int    `json:"index"`
	Name  string `json:"name,omitempty"`
	Args  string `json:"args,omitempty"`
}

// InterruptOption is one user-selectable choice on an interrupt.
type InterruptOption struct {
	Text  string `json:"text"`
	Value string `json:"value"`
}

// MessageChunkEvent appends streamed content to a message.
type MessageChunkEvent struct {
	Env              Envelope
	Content          string
	ReasoningContent string
	Thoughts         []Thought
}

func (e *MessageChunkEvent) Envelope() Envelope { return e.Env }
func (e *MessageChunkEvent) Type() string       { return TypeMessageChunk }

// ToolCallsEvent declares one or more tool calls on a message.
type ToolCallsEvent struct {
	Env   Envelope
	Calls []ToolCallDescriptor
}

func (e *ToolCallsEvent) Envelope() Envelope { return e.Env }
func (e *ToolCallsEvent) Type() string       { return TypeToolCalls }

// ToolCallChunksEvent streams partial tool-call arguments.
type ToolCallChunksEvent struct {
	Env    Envelope
	Chunks []ToolCallChunk
}

func (e *ToolCallChunksEvent) Envelope() Envelope { return e.Env }
func (e *ToolCallChunksEvent) Type() string       { return TypeToolCallChunks }

// ToolCallResultEvent carries the result of a tool call. The result is
// addressed by ToolCallID; the envelope ID is the result event's own id and
// usually differs from the declaring message.
type ToolCallResultEvent struct {
	Env        Envelope
	ToolCallID string
	Result     string
}

func (e *ToolCallResultEvent) Envelope() Envelope { return e.Env }
func (e *ToolCallResultEvent) Type() string       { return TypeToolCallResult }

// InterruptEvent pauses the stream awaiting user feedback.
type InterruptEvent struct {
	Env     Envelope
	Options []InterruptOption
}

func (e *InterruptEvent) Envelope() Envelope { return e.Env }
func (e *InterruptEvent) Type() string       { return TypeInterrupt }

// StepProgressEvent reports plan-step progress. It never mutates message
// content; it is surfaced to progress UI only.
type StepProgressEvent struct {
	Env         Envelope
	Title       string
	Description string
	Index       int
	Total       int
}

func (e *StepProgressEvent) Envelope() Envelope { return e.Env }
func (e *StepProgressEvent) Type() string       { return TypeStepProgress }

// ThoughtsEvent carries standalone reasoning notes.
type ThoughtsEvent struct {
	Env      Envelope
	Thoughts []Thought
}

func (e *ThoughtsEvent) Envelope() Envelope { return e.Env }
func (e *ThoughtsEvent) Type() string       { return TypeThoughts }

// PMRefreshEvent is out-of-band: it does not touch the message model and is
// re-broadcast as a notification for dependent panels to refetch data.
type PMRefreshEvent struct {
	Env Envelope
}

func (e *PMRefreshEvent) Envelope() Envelope { return e.Env }
func (e *PMRefreshEvent) Type() string       { return TypePMRefresh }
