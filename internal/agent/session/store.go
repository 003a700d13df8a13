// Package session owns conversation state between turns: an in-memory map
// from conversation id to state with create-if-absent semantics. Each id has
// its own lock, held for the duration of one turn, so concurrent requests
// for the same conversation are serialised while distinct conversations
// proceed independently.
package session

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/digital-clone/server/internal/agent/model"
)

var ErrNotFound = errors.New("conversation not found")

type conversation struct {
	mu    sync.Mutex
	state *model.ConversationState
}

// Store maps conversation ids to their pipeline state. There is no eviction:
// state lives until process termination.
type Store struct {
	mu            sync.RWMutex
	conversations map[string]*conversation
}

func NewStore() *Store {
	return &Store{conversations: make(map[string]*conversation)}
}

// NewID generates a fresh opaque conversation identifier.
func NewID() string {
	return uuid.NewString()
}

// Acquire resolves or creates the state for the given id and locks it for
// the duration of one turn. The returned release function must be called on
// every exit path. created reports whether a fresh state was seeded with the
// system prompt.
func (s *Store) Acquire(conversationID, systemPrompt string) (state *model.ConversationState, release func(), created bool) {
	if conversationID == "" {
		conversationID = NewID()
	}

	s.mu.Lock()
	c, ok := s.conversations[conversationID]
	if !ok {
		c = &conversation{state: model.NewConversationState(conversationID, systemPrompt)}
		s.conversations[conversationID] = c
		created = true
	}
	s.mu.Unlock()

	// Per-conversation lock is taken outside the map lock so a long turn on
	// one conversation never blocks lookups for others.
	c.mu.Lock()
	return c.state, c.mu.Unlock, created
}

// Snapshot returns a copy of the conversation's state safe for concurrent
// readers (history endpoint). The message slice is copied; messages
// themselves are append-only and never mutated.
func (s *Store) Snapshot(conversationID string) (*model.ConversationState, error) {
	s.mu.RLock()
	c, ok := s.conversations[conversationID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *c.state
	cp.Messages = append([]model.Message(nil), c.state.Messages...)
	cp.ToolsResults = append([]model.ToolOutcome(nil), c.state.ToolsResults...)
	cp.Context = cloneMap(c.state.Context)
	cp.AgentMemory = cloneMap(c.state.AgentMemory)
	return &cp, nil
}

// Count returns the number of tracked conversations.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
