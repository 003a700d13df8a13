package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digital-clone/server/internal/agent/model"
)

func TestAcquireCreatesSeededState(t *testing.T) {
	store := NewStore()

	state, release, created := store.Acquire("", "You are helpful.")
	defer release()

	assert.True(t, created)
	assert.NotEmpty(t, state.ConversationID)
	require.Len(t, state.Messages, 1)
	assert.Equal(t, model.RoleSystem, state.Messages[0].Role)
	assert.Equal(t, "You are helpful.", state.Messages[0].Content)
	assert.Equal(t, 1, store.Count())
}

func TestAcquireReusesExistingState(t *testing.T) {
	store := NewStore()

	state, release, created := store.Acquire("conv-1", "prompt")
	require.True(t, created)
	state.Append(model.UserMessage("hello", nil))
	release()

	again, release, created := store.Acquire("conv-1", "ignored new prompt")
	defer release()

	assert.False(t, created)
	assert.Same(t, state, again)
	require.Len(t, again.Messages, 2)
	// The system prompt is fixed at creation time.
	assert.Equal(t, "prompt", again.Messages[0].Content)
	assert.Equal(t, 1, store.Count())
}

func TestAcquireSerialisesSameConversation(t *testing.T) {
	store := NewStore()

	state, release, _ := store.Acquire("conv-1", "prompt")
	_ = state

	acquired := make(chan struct{})
	go func() {
		_, release2, _ := store.Acquire("conv-1", "prompt")
		close(acquired)
		release2()
	}()

	select {
	case <-acquired:
		t.Fatal("second Acquire should block until release")
	default:
	}

	release()
	<-acquired
}

func TestConcurrentDistinctConversations(t *testing.T) {
	store := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			state, release, _ := store.Acquire("", "prompt")
			state.Append(model.UserMessage("hi", nil))
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, store.Count())
}

func TestSnapshotIsIsolated(t *testing.T) {
	store := NewStore()

	state, release, _ := store.Acquire("conv-1", "prompt")
	state.AgentMemory["conversation_length"] = 1
	release()

	snap, err := store.Snapshot("conv-1")
	require.NoError(t, err)

	snap.Append(model.UserMessage("only in the copy", nil))
	snap.AgentMemory["conversation_length"] = 99

	state, release, _ = store.Acquire("conv-1", "prompt")
	defer release()
	assert.Len(t, state.Messages, 1)
	assert.Equal(t, 1, state.AgentMemory["conversation_length"])
}

func TestSnapshotUnknownConversation(t *testing.T) {
	store := NewStore()

	_, err := store.Snapshot("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
