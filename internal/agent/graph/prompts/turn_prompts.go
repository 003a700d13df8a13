package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/digital-clone/server/internal/agent/model"
)

//go:embed template/analyze_prompt.txt
var analyzeSystemPrompt string

//go:embed template/plan_prompt.txt
var planSystemPrompt string

//go:embed template/response_prompt.txt
var responseSystemPrompt string

// RenderAnalyzeSystem renders the analyze stage's system instruction via the
// Eino prompt component (enables prompt callbacks).
func RenderAnalyzeSystem(ctx context.Context) (string, error) {
	return renderSystem(ctx, analyzeSystemPrompt)
}

// RenderPlanSystem renders the plan stage's system instruction with the
// available tool names substituted in.
func RenderPlanSystem(ctx context.Context, tools []model.ToolInfo) (string, error) {
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name)
	}
	content := strings.NewReplacer(
		"{available_tools}", strings.Join(names, ", "),
	).Replace(planSystemPrompt)
	return renderSystem(ctx, content)
}

// RenderResponseSystem renders the generate-response system instruction with
// the turn's context summary embedded.
func RenderResponseSystem(ctx context.Context, contextSummary string) (string, error) {
	if strings.TrimSpace(contextSummary) == "" {
		contextSummary = "No special context"
	}
	content := strings.NewReplacer(
		"{context}", contextSummary,
	).Replace(responseSystemPrompt)
	return renderSystem(ctx, content)
}

// renderSystem wraps prepared content via the Eino prompt component using a
// messages placeholder, so known tokens are already substituted and any
// braces in the content do not interfere with template formatting.
func renderSystem(ctx context.Context, content string) (string, error) {
	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("system_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"system_messages": []*schema.Message{schema.SystemMessage(content)},
	})
	if err != nil {
		return "", fmt.Errorf("render system prompt: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("render system prompt: empty result")
	}
	return msgs[0].Content, nil
}
