package model

import (
	"time"
)

// Context keys for intermediate pipeline artifacts, one per stage that
// produces them.
const (
	ContextAnalysis = "analysis"
	ContextPlan     = "plan"
)

// Agent memory keys accumulated across turns.
const (
	MemoryLastInteraction    = "last_interaction"
	MemoryConversationLength = "conversation_length"
	MemoryRecentTopics       = "recent_topics"
	MemoryToolsUsed          = "tools_used"
)

// ConversationState is the per-conversation state object the turn pipeline
// operates on. It is owned by the pipeline for the duration of one turn and
// by the session store between turns; the store serialises turns per
// conversation id, so no locking happens here.
type ConversationState struct {
	ConversationID string         `json:"conversation_id"`
	Messages       []Message      `json:"messages"`
	CurrentTask    string         `json:"current_task,omitempty"`
	Context        map[string]any `json:"context"`
	AgentMemory    map[string]any `json:"agent_memory"`
	// ToolsResults holds the current turn's tool outcomes only; it is reset
	// at the start of the execute-tools stage each turn.
	ToolsResults []ToolOutcome `json:"tools_results"`
}

// NewConversationState seeds a fresh state with the configured system prompt.
// The messages slice is never empty afterwards.
func NewConversationState(conversationID, systemPrompt string) *ConversationState {
	return &ConversationState{
		ConversationID: conversationID,
		Messages:       []Message{SystemMessage(systemPrompt)},
		Context:        map[string]any{},
		AgentMemory:    map[string]any{},
		ToolsResults:   []ToolOutcome{},
	}
}

// Append adds a message to the history.
func (s *ConversationState) Append(m Message) {
	s.Messages = append(s.Messages, m)
}

// LastMessage returns the most recent message, or a zero Message when the
// history is empty.
func (s *ConversationState) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// LastN returns up to n trailing messages without copying the backing array.
func (s *ConversationState) LastN(n int) []Message {
	if n <= 0 || len(s.Messages) <= n {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-n:]
}

// Analysis returns the analyze stage's artifact for the current turn.
func (s *ConversationState) Analysis() (*Analysis, bool) {
	a, ok := s.Context[ContextAnalysis].(*Analysis)
	return a, ok && a != nil
}

// Plan returns the plan stage's artifact for the current turn.
func (s *ConversationState) Plan() (*Plan, bool) {
	p, ok := s.Context[ContextPlan].(*Plan)
	return p, ok && p != nil
}

// ToolOutcome records the result of one tool invocation within a turn.
type ToolOutcome struct {
	ToolName  string    `json:"tool_name"`
	Success   bool      `json:"success"`
	Result    any       `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SuccessfulToolNames returns the names of successful outcomes, order
// preserved.
func SuccessfulToolNames(outcomes []ToolOutcome) []string {
	names := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Success {
			names = append(names, o.ToolName)
		}
	}
	return names
}

// ConversationRequest is one inbound user message.
type ConversationRequest struct {
	Message        string         `json:"message"`
	ConversationID string         `json:"conversation_id,omitempty"`
	Context        map[string]any `json:"context,omitempty"`
}

// ConversationResponse is the result of one complete turn.
type ConversationResponse struct {
	Response       string         `json:"response"`
	ConversationID string         `json:"conversation_id"`
	ToolsUsed      []string       `json:"tools_used"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}
