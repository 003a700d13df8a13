package graph

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digital-clone/server/internal/agent/model"
	"github.com/digital-clone/server/internal/agent/session"
	"github.com/digital-clone/server/internal/agent/toolclient"
	errx "github.com/digital-clone/server/internal/core/error"
)

// scriptedInvoker plays back canned analyze/plan/response outputs. The
// structured calls are told apart by the user payload prefix each stage uses.
type scriptedInvoker struct {
	analysisJSON string
	planJSON     string
	analysisErr  error
	planErr      error
	replyText    string
	replyErr     error
}

func (s *scriptedInvoker) GenerateText(_ context.Context, _ []*schema.Message) (*schema.Message, error) {
	if s.replyErr != nil {
		return nil, s.replyErr
	}
	return schema.AssistantMessage(s.replyText, nil), nil
}

func (s *scriptedInvoker) GenerateStructured(_ context.Context, _ string, user string, out any) error {
	if strings.HasPrefix(user, "Analyze this message:") {
		if s.analysisErr != nil {
			return s.analysisErr
		}
		return json.Unmarshal([]byte(s.analysisJSON), out)
	}
	if s.planErr != nil {
		return s.planErr
	}
	return json.Unmarshal([]byte(s.planJSON), out)
}

func (s *scriptedInvoker) ModelName() string { return "scripted" }

// recordingExecutor wraps the offline mock client and records call order.
// Tools named in failing are reported as failed.
type recordingExecutor struct {
	mock    *toolclient.MockClient
	calls   []string
	failing map[string]bool
}

func newRecordingExecutor() *recordingExecutor {
	return &recordingExecutor{mock: toolclient.NewMockClient(), failing: map[string]bool{}}
}

func (r *recordingExecutor) EnsureLive(context.Context) {}

func (r *recordingExecutor) ExecuteTool(ctx context.Context, name string, args map[string]any) model.ToolOutcome {
	r.calls = append(r.calls, name)
	if r.failing[name] {
		return model.ToolOutcome{ToolName: name, Success: false, Error: "simulated failure"}
	}
	return r.mock.ExecuteTool(ctx, name, args)
}

func conversationalInvoker(reply string) *scriptedInvoker {
	return &scriptedInvoker{
		analysisJSON: `{"intent":"question","needs_tools":false,"tool_requirements":[],"response_type":"informational","priority":"medium"}`,
		planJSON:     `{"plan":"Answer directly","tools_to_use":[],"tool_arguments":{},"response_strategy":"conversational"}`,
		replyText:    reply,
	}
}

func newTestPipeline(t *testing.T, inv *scriptedInvoker, exec *recordingExecutor, enableTools bool) *Pipeline {
	t.Helper()
	if exec == nil {
		exec = newRecordingExecutor()
	}
	cfg := model.AgentConfig{
		ModelName:    "scripted",
		SystemPrompt: "You are a helpful AI assistant.",
		EnableTools:  enableTools,
	}
	p, err := NewPipeline(context.Background(), Config{
		Agent:    cfg,
		Invoker:  inv,
		Tools:    exec,
		Sessions: session.NewStore(),
	})
	require.NoError(t, err)
	return p
}

func TestFreshConversation(t *testing.T) {
	p := newTestPipeline(t, conversationalInvoker("Hello there!"), nil, true)

	resp, err := p.ProcessMessage(context.Background(), model.ConversationRequest{Message: "Hi"})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.ConversationID)
	assert.Equal(t, "Hello there!", resp.Response)
	assert.Empty(t, resp.ToolsUsed)

	state, err := p.Sessions().Snapshot(resp.ConversationID)
	require.NoError(t, err)
	require.Len(t, state.Messages, 3)
	assert.Equal(t, model.RoleSystem, state.Messages[0].Role)
	assert.Equal(t, model.RoleUser, state.Messages[1].Role)
	assert.Equal(t, model.RoleAssistant, state.Messages[2].Role)
	assert.Equal(t, "question", state.CurrentTask)
}

func TestSameConversationAccumulates(t *testing.T) {
	p := newTestPipeline(t, conversationalInvoker("ok"), nil, true)
	ctx := context.Background()

	first, err := p.ProcessMessage(ctx, model.ConversationRequest{Message: "one"})
	require.NoError(t, err)
	second, err := p.ProcessMessage(ctx, model.ConversationRequest{
		Message:        "two",
		ConversationID: first.ConversationID,
	})
	require.NoError(t, err)

	assert.Equal(t, first.ConversationID, second.ConversationID)

	state, err := p.Sessions().Snapshot(first.ConversationID)
	require.NoError(t, err)
	// system + 2 * (user + assistant)
	assert.Len(t, state.Messages, 5)
	assert.Equal(t, 5, state.AgentMemory[model.MemoryConversationLength])
}

func TestEmptyMessageRejected(t *testing.T) {
	p := newTestPipeline(t, conversationalInvoker("ok"), nil, true)

	_, err := p.ProcessMessage(context.Background(), model.ConversationRequest{Message: "   "})
	assert.ErrorIs(t, err, errx.ErrValidation)
}

func TestAnalyzeFallback(t *testing.T) {
	inv := conversationalInvoker("still fine")
	inv.analysisErr = context.DeadlineExceeded
	p := newTestPipeline(t, inv, nil, true)

	resp, err := p.ProcessMessage(context.Background(), model.ConversationRequest{Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "still fine", resp.Response)

	state, err := p.Sessions().Snapshot(resp.ConversationID)
	require.NoError(t, err)
	analysis, ok := state.Analysis()
	require.True(t, ok)
	assert.Equal(t, model.FallbackAnalysis(), analysis)
	assert.Equal(t, "conversation", state.CurrentTask)
}

func TestPlanFallback(t *testing.T) {
	inv := conversationalInvoker("answered without a plan")
	inv.planErr = context.DeadlineExceeded
	p := newTestPipeline(t, inv, nil, true)

	resp, err := p.ProcessMessage(context.Background(), model.ConversationRequest{Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "answered without a plan", resp.Response)

	state, err := p.Sessions().Snapshot(resp.ConversationID)
	require.NoError(t, err)
	plan, ok := state.Plan()
	require.True(t, ok)
	assert.Equal(t, model.FallbackPlan(), plan)
	assert.Empty(t, state.ToolsResults)
}

func TestToolExecutionInPlanOrder(t *testing.T) {
	inv := conversationalInvoker("done")
	inv.analysisJSON = `{"intent":"task_execution","needs_tools":true,"tool_requirements":["calculate","web_search"],"response_type":"informational","priority":"high"}`
	inv.planJSON = `{"plan":"Compute then search","tools_to_use":["calculate","web_search"],"tool_arguments":{"calculate":{"expression":"15 * 23"},"web_search":{"query":"eino"}},"response_strategy":"informational"}`
	exec := newRecordingExecutor()
	p := newTestPipeline(t, inv, exec, true)

	resp, err := p.ProcessMessage(context.Background(), model.ConversationRequest{Message: "compute and search"})
	require.NoError(t, err)

	assert.Equal(t, []string{"calculate", "web_search"}, exec.calls)
	assert.Equal(t, []string{"calculate", "web_search"}, resp.ToolsUsed)

	state, err := p.Sessions().Snapshot(resp.ConversationID)
	require.NoError(t, err)
	require.Len(t, state.ToolsResults, 2)
	calcOutcome := state.ToolsResults[0]
	assert.True(t, calcOutcome.Success)
	result, ok := calcOutcome.Result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(345), result["result"])
}

func TestToolFailureContinuesTurn(t *testing.T) {
	inv := conversationalInvoker("partially done")
	inv.planJSON = `{"plan":"Two tools","tools_to_use":["web_search","calculate"],"tool_arguments":{"calculate":{"expression":"2 + 2"}},"response_strategy":"informational"}`
	exec := newRecordingExecutor()
	exec.failing["web_search"] = true
	p := newTestPipeline(t, inv, exec, true)

	resp, err := p.ProcessMessage(context.Background(), model.ConversationRequest{Message: "go"})
	require.NoError(t, err)

	assert.Equal(t, []string{"web_search", "calculate"}, exec.calls)
	assert.Equal(t, []string{"calculate"}, resp.ToolsUsed)

	state, err := p.Sessions().Snapshot(resp.ConversationID)
	require.NoError(t, err)
	require.Len(t, state.ToolsResults, 2)
	assert.False(t, state.ToolsResults[0].Success)
	assert.True(t, state.ToolsResults[1].Success)
}

func TestToolsDisabledSkipsExecution(t *testing.T) {
	inv := conversationalInvoker("no tools ran")
	inv.planJSON = `{"plan":"Would use tools","tools_to_use":["calculate"],"tool_arguments":{"calculate":{"expression":"1 + 1"}},"response_strategy":"informational"}`
	exec := newRecordingExecutor()
	p := newTestPipeline(t, inv, exec, false)

	resp, err := p.ProcessMessage(context.Background(), model.ConversationRequest{Message: "go"})
	require.NoError(t, err)

	assert.Empty(t, exec.calls)
	assert.Empty(t, resp.ToolsUsed)
}

func TestGenerateFailureAppendsApology(t *testing.T) {
	inv := conversationalInvoker("")
	inv.replyErr = context.DeadlineExceeded
	p := newTestPipeline(t, inv, nil, true)

	resp, err := p.ProcessMessage(context.Background(), model.ConversationRequest{Message: "hi"})
	require.NoError(t, err)

	assert.Equal(t, "I apologize, but I encountered an error while processing your request. Please try again.", resp.Response)
	assert.Contains(t, resp.Metadata, model.MetaError)
	assert.Empty(t, resp.ToolsUsed)
}

func TestMemoryAccumulatesAcrossTurns(t *testing.T) {
	inv := conversationalInvoker("sure")
	inv.planJSON = `{"plan":"Compute","tools_to_use":["calculate"],"tool_arguments":{"calculate":{"expression":"3 * 3"}},"response_strategy":"informational"}`
	p := newTestPipeline(t, inv, nil, true)
	ctx := context.Background()

	first, err := p.ProcessMessage(ctx, model.ConversationRequest{Message: "compute please"})
	require.NoError(t, err)
	_, err = p.ProcessMessage(ctx, model.ConversationRequest{
		Message:        "again please",
		ConversationID: first.ConversationID,
	})
	require.NoError(t, err)

	state, err := p.Sessions().Snapshot(first.ConversationID)
	require.NoError(t, err)
	// Duplicates are retained across turns.
	assert.Equal(t, []string{"calculate", "calculate"}, state.AgentMemory[model.MemoryToolsUsed])
	assert.Contains(t, state.AgentMemory, model.MemoryLastInteraction)
}

func TestRecentTopicsFromUserMessages(t *testing.T) {
	p := newTestPipeline(t, conversationalInvoker("noted"), nil, true)

	resp, err := p.ProcessMessage(context.Background(), model.ConversationRequest{
		Message: "Tell me about the Weather in Paris today",
	})
	require.NoError(t, err)

	state, err := p.Sessions().Snapshot(resp.ConversationID)
	require.NoError(t, err)
	topics, ok := state.AgentMemory[model.MemoryRecentTopics].([]string)
	require.True(t, ok)
	assert.Equal(t, []string{"tell", "me", "about", "the", "weather"}, topics)
}
