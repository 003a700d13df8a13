package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/digital-clone/server/internal/agent/graph/parsers"
	"github.com/digital-clone/server/internal/agent/graph/prompts"
	"github.com/digital-clone/server/internal/agent/llm"
	"github.com/digital-clone/server/internal/agent/model"
	"github.com/digital-clone/server/internal/observability"
	logx "github.com/digital-clone/server/pkg/logger"
)

// Node names, in pipeline order.
const (
	NodeAnalyze          = "analyze"
	NodePlan             = "plan"
	NodeExecuteTools     = "execute_tools"
	NodeGenerateResponse = "generate_response"
	NodeUpdateMemory     = "update_memory"
)

const (
	// planHistoryWindow / responseHistoryWindow bound how much history the
	// plan and response prompts see.
	planHistoryWindow     = 3
	responseHistoryWindow = 5
	// recentTopicLimit caps topic tokens taken per user message.
	recentTopicLimit = 5

	fallbackResponse = "I apologize, but I encountered an error while processing your request. Please try again."
)

// ToolExecutor is the slice of the tool client the execute stage needs.
type ToolExecutor interface {
	EnsureLive(ctx context.Context)
	ExecuteTool(ctx context.Context, name string, args map[string]any) model.ToolOutcome
}

// NewAnalyzeNode classifies the latest user message. On any invoker or
// parse failure the fixed fallback classification is stored instead; the
// node itself never fails the turn.
func NewAnalyzeNode(inv llm.Invoker, metrics *observability.Metrics) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, state *model.ConversationState) (*model.ConversationState, error) {
		last, ok := state.LastMessage()
		if !ok || last.Role != model.RoleUser {
			return state, nil
		}

		analysis, err := classifyMessage(ctx, inv, last.Content)
		if err != nil {
			logx.Warn().
				Str("conversation_id", state.ConversationID).
				Err(err).
				Msg("Analyze stage falling back to fixed classification")
			countFallback(metrics, NodeAnalyze)
			analysis = model.FallbackAnalysis()
		}

		state.Context[model.ContextAnalysis] = analysis
		state.CurrentTask = analysis.Intent
		return state, nil
	})
}

func classifyMessage(ctx context.Context, inv llm.Invoker, content string) (*model.Analysis, error) {
	system, err := prompts.RenderAnalyzeSystem(ctx)
	if err != nil {
		return nil, err
	}
	var analysis model.Analysis
	if err := inv.GenerateStructured(ctx, system, "Analyze this message: "+content, &analysis); err != nil {
		return nil, err
	}
	if err := parsers.ValidateAnalysis(&analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}

// NewPlanNode derives the response plan from the analysis and recent
// history. The fallback plan uses no tools and a conversational strategy.
func NewPlanNode(inv llm.Invoker, metrics *observability.Metrics) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, state *model.ConversationState) (*model.ConversationState, error) {
		analysis, ok := state.Analysis()
		if !ok {
			analysis = model.FallbackAnalysis()
		}

		plan, err := buildPlan(ctx, inv, analysis, state.LastN(planHistoryWindow))
		if err != nil {
			logx.Warn().
				Str("conversation_id", state.ConversationID).
				Err(err).
				Msg("Plan stage falling back to direct response")
			countFallback(metrics, NodePlan)
			plan = model.FallbackPlan()
		}

		state.Context[model.ContextPlan] = plan
		return state, nil
	})
}

func buildPlan(ctx context.Context, inv llm.Invoker, analysis *model.Analysis, history []model.Message) (*model.Plan, error) {
	system, err := prompts.RenderPlanSystem(ctx, model.ToolCatalog())
	if err != nil {
		return nil, err
	}

	analysisJSON, err := json.Marshal(analysis)
	if err != nil {
		return nil, fmt.Errorf("marshal analysis: %w", err)
	}
	contents := make([]string, 0, len(history))
	for _, msg := range history {
		contents = append(contents, msg.Content)
	}
	historyJSON, err := json.Marshal(contents)
	if err != nil {
		return nil, fmt.Errorf("marshal history: %w", err)
	}

	user := fmt.Sprintf("Analysis: %s\nMessages: %s\n\nCreate a response plan.", analysisJSON, historyJSON)

	var plan model.Plan
	if err := inv.GenerateStructured(ctx, system, user, &plan); err != nil {
		return nil, err
	}
	parsers.ValidatePlan(&plan)
	return &plan, nil
}

// NewExecuteToolsNode runs the planned tools sequentially in plan order,
// continuing past individual failures. Results are reset each turn; when
// tools are disabled or the plan needs none, the turn carries an empty
// result list.
func NewExecuteToolsNode(tools ToolExecutor, enableTools bool, metrics *observability.Metrics) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, state *model.ConversationState) (*model.ConversationState, error) {
		state.ToolsResults = []model.ToolOutcome{}

		plan, ok := state.Plan()
		if !ok || len(plan.ToolsToUse) == 0 || !enableTools {
			return state, nil
		}

		tools.EnsureLive(ctx)

		for _, name := range plan.ToolsToUse {
			outcome := tools.ExecuteTool(ctx, name, plan.ArgumentsFor(name))
			countToolCall(metrics, name, outcome.Success)
			logx.Debug().
				Str("conversation_id", state.ConversationID).
				Str("tool", name).
				Bool("success", outcome.Success).
				Msg("Tool executed")
			state.ToolsResults = append(state.ToolsResults, outcome)
		}
		return state, nil
	})
}

// NewGenerateResponseNode produces the assistant reply from the turn's
// context and recent history. On invoker failure it appends a fixed apology
// message carrying the failure description; this path never raises past the
// pipeline boundary.
func NewGenerateResponseNode(inv llm.Invoker, metrics *observability.Metrics) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, state *model.ConversationState) (*model.ConversationState, error) {
		out, err := generateReply(ctx, inv, state)
		if err != nil {
			logx.Error().
				Str("conversation_id", state.ConversationID).
				Err(err).
				Msg("Response generation failed, appending fallback message")
			countFallback(metrics, NodeGenerateResponse)
			state.Append(model.AssistantMessage(fallbackResponse, map[string]any{
				model.MetaError: err.Error(),
			}))
			return state, nil
		}

		meta := map[string]any{
			model.MetaToolsUsed: model.SuccessfulToolNames(state.ToolsResults),
		}
		if out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
			if cost := model.UsageCost(inv.ModelName(), out.ResponseMeta.Usage); cost != nil {
				meta[model.MetaUsageCost] = cost
			}
		}
		state.Append(model.AssistantMessage(out.Content, meta))
		return state, nil
	})
}

func generateReply(ctx context.Context, inv llm.Invoker, state *model.ConversationState) (*schema.Message, error) {
	system, err := prompts.RenderResponseSystem(ctx, buildResponseContext(state))
	if err != nil {
		return nil, err
	}

	messages := []*schema.Message{schema.SystemMessage(system)}
	messages = append(messages, conversationMessages(state.LastN(responseHistoryWindow))...)
	messages = append(messages, schema.UserMessage("Generate a helpful response based on the conversation and context."))

	return inv.GenerateText(ctx, messages)
}

// buildResponseContext summarises the turn for the response prompt: intent,
// plan description and a per-tool success/failure digest.
func buildResponseContext(state *model.ConversationState) string {
	var parts []string
	if analysis, ok := state.Analysis(); ok {
		parts = append(parts, "Intent: "+analysis.Intent)
	}
	if plan, ok := state.Plan(); ok && plan.Plan != "" {
		parts = append(parts, "Plan: "+plan.Plan)
	}
	if len(state.ToolsResults) > 0 {
		parts = append(parts, "Tools used: "+strings.Join(toolsSummary(state.ToolsResults), "; "))
	}
	return strings.Join(parts, "\n")
}

func toolsSummary(outcomes []model.ToolOutcome) []string {
	summary := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Success {
			summary = append(summary, o.ToolName+": Success")
		} else {
			summary = append(summary, fmt.Sprintf("%s: Failed - %s", o.ToolName, o.Error))
		}
	}
	return summary
}

func conversationMessages(history []model.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case model.RoleUser:
			out = append(out, schema.UserMessage(msg.Content))
		case model.RoleAssistant:
			out = append(out, schema.AssistantMessage(msg.Content, nil))
		case model.RoleSystem:
			out = append(out, schema.SystemMessage(msg.Content))
		}
	}
	return out
}

// NewUpdateMemoryNode merges the turn's memory delta into agent memory:
// last-interaction timestamp, message count, recent topic tokens and the
// cumulative tools-used list (duplicates retained). Terminal stage.
func NewUpdateMemoryNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, state *model.ConversationState) (*model.ConversationState, error) {
		topics := []string{}
		for _, msg := range state.LastN(planHistoryWindow) {
			if msg.Role != model.RoleUser {
				continue
			}
			words := strings.Fields(strings.ToLower(msg.Content))
			if len(words) > recentTopicLimit {
				words = words[:recentTopicLimit]
			}
			topics = append(topics, words...)
		}

		toolsUsed := []string{}
		for _, msg := range state.Messages {
			toolsUsed = append(toolsUsed, msg.ToolsUsed()...)
		}

		update := map[string]any{
			model.MemoryLastInteraction:    time.Now().UTC().Format(time.RFC3339),
			model.MemoryConversationLength: len(state.Messages),
			model.MemoryRecentTopics:       topics,
			model.MemoryToolsUsed:          toolsUsed,
		}
		for k, v := range update {
			state.AgentMemory[k] = v
		}
		return state, nil
	})
}

func countFallback(metrics *observability.Metrics, stage string) {
	if metrics == nil {
		return
	}
	metrics.StageFallbacks.WithLabelValues(stage).Inc()
}

func countToolCall(metrics *observability.Metrics, tool string, success bool) {
	if metrics == nil {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	metrics.ToolCalls.WithLabelValues(tool, status).Inc()
}
