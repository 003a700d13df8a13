package graph

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"

	"github.com/digital-clone/server/internal/agent/graph/nodes"
	"github.com/digital-clone/server/internal/agent/graph/observers"
	"github.com/digital-clone/server/internal/agent/llm"
	"github.com/digital-clone/server/internal/agent/model"
	"github.com/digital-clone/server/internal/agent/session"
	"github.com/digital-clone/server/internal/observability"
	errx "github.com/digital-clone/server/internal/core/error"
	logx "github.com/digital-clone/server/pkg/logger"
)

// Config holds everything needed to compose the turn pipeline end-to-end.
type Config struct {
	Agent    model.AgentConfig
	Invoker  llm.Invoker
	Tools    nodes.ToolExecutor
	Sessions *session.Store
	Metrics  *observability.Metrics
}

// Pipeline executes the five-stage turn over per-conversation state. A
// Pipeline is immutable with respect to its agent configuration; applying a
// configuration update means building a new Pipeline (the session store is
// shared across rebuilds).
type Pipeline struct {
	cfg      model.AgentConfig
	sessions *session.Store
	metrics  *observability.Metrics
	runnable compose.Runnable[*model.ConversationState, *model.ConversationState]
}

// NewPipeline validates the config, composes the stage graph and compiles it.
func NewPipeline(ctx context.Context, cfg Config) (*Pipeline, error) {
	if cfg.Invoker == nil {
		return nil, fmt.Errorf("invoker is nil")
	}
	if cfg.Tools == nil {
		return nil, fmt.Errorf("tool executor is nil")
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("session store is nil")
	}

	runnable, err := buildTurnGraph(ctx, cfg)
	if err != nil {
		return nil, err
	}

	logx.Debug().Str("model", cfg.Agent.ModelName).Msg("Turn pipeline built")
	return &Pipeline{
		cfg:      cfg.Agent,
		sessions: cfg.Sessions,
		metrics:  cfg.Metrics,
		runnable: runnable,
	}, nil
}

// buildTurnGraph wires the five stage nodes into a linear graph:
// analyze -> plan -> execute_tools -> generate_response -> update_memory.
func buildTurnGraph(ctx context.Context, cfg Config) (compose.Runnable[*model.ConversationState, *model.ConversationState], error) {
	g := compose.NewGraph[*model.ConversationState, *model.ConversationState]()

	g.AddLambdaNode(nodes.NodeAnalyze, nodes.NewAnalyzeNode(cfg.Invoker, cfg.Metrics))
	g.AddLambdaNode(nodes.NodePlan, nodes.NewPlanNode(cfg.Invoker, cfg.Metrics))
	g.AddLambdaNode(nodes.NodeExecuteTools, nodes.NewExecuteToolsNode(cfg.Tools, cfg.Agent.EnableTools, cfg.Metrics))
	g.AddLambdaNode(nodes.NodeGenerateResponse, nodes.NewGenerateResponseNode(cfg.Invoker, cfg.Metrics))
	g.AddLambdaNode(nodes.NodeUpdateMemory, nodes.NewUpdateMemoryNode())

	edges := [][2]string{
		{compose.START, nodes.NodeAnalyze},
		{nodes.NodeAnalyze, nodes.NodePlan},
		{nodes.NodePlan, nodes.NodeExecuteTools},
		{nodes.NodeExecuteTools, nodes.NodeGenerateResponse},
		{nodes.NodeGenerateResponse, nodes.NodeUpdateMemory},
		{nodes.NodeUpdateMemory, compose.END},
	}
	for _, edge := range edges {
		g.AddEdge(edge[0], edge[1])
	}

	runnable, err := g.Compile(ctx, compose.WithMaxRunSteps(10))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling turn graph")
		return nil, fmt.Errorf("error compiling turn graph: %w", err)
	}
	return runnable, nil
}

// Config returns the agent configuration this pipeline was built with.
func (p *Pipeline) Config() model.AgentConfig {
	return p.cfg
}

// Sessions exposes the shared conversation store for read-side handlers.
func (p *Pipeline) Sessions() *session.Store {
	return p.sessions
}

// ProcessMessage runs one full turn: acquire (or create) the conversation,
// append the user message and drive it through the stage graph. The
// per-conversation lock is held for the whole turn, so turns on the same
// conversation serialize while distinct conversations run concurrently.
func (p *Pipeline) ProcessMessage(ctx context.Context, req model.ConversationRequest) (*model.ConversationResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, errx.WrapValidation(fmt.Errorf("message is required"))
	}

	start := time.Now()

	state, release, created := p.sessions.Acquire(req.ConversationID, p.cfg.SystemPrompt)
	defer release()
	if created {
		logx.Info().Str("conversation_id", state.ConversationID).Msg("Conversation created")
		if p.metrics != nil {
			p.metrics.Conversations.Set(float64(p.sessions.Count()))
		}
	}

	state.Append(model.UserMessage(req.Message, req.Context))

	final, err := p.runnable.Invoke(ctx, state, compose.WithCallbacks(observers.NewTurnCallbacks()))
	if err != nil {
		if p.metrics != nil {
			p.metrics.TurnsTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	resp := buildResponse(final)
	if p.metrics != nil {
		outcome := "ok"
		if _, degraded := resp.Metadata[model.MetaError]; degraded {
			outcome = "degraded"
		}
		p.metrics.TurnsTotal.WithLabelValues(outcome).Inc()
		p.metrics.ObserveTurnLatency(time.Since(start))
	}

	logx.Debug().
		Str("conversation_id", resp.ConversationID).
		Int("messages", len(final.Messages)).
		Strs("tools_used", resp.ToolsUsed).
		Dur("elapsed", time.Since(start)).
		Msg("Turn completed")
	return resp, nil
}

func buildResponse(state *model.ConversationState) *model.ConversationResponse {
	last, _ := state.LastMessage()
	toolsUsed := last.ToolsUsed()
	if toolsUsed == nil {
		toolsUsed = []string{}
	}
	return &model.ConversationResponse{
		Response:       last.Content,
		ConversationID: state.ConversationID,
		ToolsUsed:      toolsUsed,
		Metadata:       last.Metadata,
	}
}
