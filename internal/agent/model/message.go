package model

import (
	"time"
)

// Role identifies the sender of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Metadata keys attached to assistant messages by the pipeline.
const (
	MetaToolsUsed = "tools_used"
	MetaError     = "error"
	MetaUsageCost = "usage_cost"
)

// Message is one entry in a conversation history. Messages are append-only:
// once added to a ConversationState they are never mutated.
type Message struct {
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content, Timestamp: time.Now().UTC()}
}

func UserMessage(content string, metadata map[string]any) Message {
	return Message{Role: RoleUser, Content: content, Timestamp: time.Now().UTC(), Metadata: metadata}
}

func AssistantMessage(content string, metadata map[string]any) Message {
	return Message{Role: RoleAssistant, Content: content, Timestamp: time.Now().UTC(), Metadata: metadata}
}

// ToolsUsed returns the successful tool names recorded on an assistant
// message, or nil when none were recorded.
func (m Message) ToolsUsed() []string {
	if m.Metadata == nil {
		return nil
	}
	switch v := m.Metadata[MetaToolsUsed].(type) {
	case []string:
		return v
	case []any:
		names := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				names = append(names, s)
			}
		}
		return names
	default:
		return nil
	}
}
