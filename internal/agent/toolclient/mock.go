package toolclient

import (
	"context"
	"fmt"
	"time"

	"github.com/digital-clone/server/internal/agent/model"
	"github.com/digital-clone/server/internal/calc"
)

// MockClient answers tool calls locally and deterministically. The pipeline
// swaps to it when the real proxy is unreachable, so conversations keep
// working offline with canned data.
type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

var _ Client = (*MockClient)(nil)

func (c *MockClient) HealthCheck(ctx context.Context) bool {
	return true
}

func (c *MockClient) ExecuteTool(ctx context.Context, name string, args map[string]any) model.ToolOutcome {
	if args == nil {
		args = map[string]any{}
	}
	now := time.Now().UTC()
	switch name {
	case model.ToolWebSearch:
		query, _ := args["query"].(string)
		return model.ToolOutcome{
			ToolName:  name,
			Success:   true,
			Timestamp: now,
			Result: []map[string]any{{
				"title":   "Mock Search Result",
				"url":     "https://example.com",
				"snippet": fmt.Sprintf("Mock search result for: %s", query),
			}},
		}
	case model.ToolCalculate:
		expression, _ := args["expression"].(string)
		v, err := calc.Eval(expression)
		if err != nil {
			return model.ToolOutcome{ToolName: name, Success: false, Error: err.Error(), Timestamp: now}
		}
		return model.ToolOutcome{
			ToolName:  name,
			Success:   true,
			Timestamp: now,
			Result:    map[string]any{"result": v, "expression": expression},
		}
	default:
		return model.ToolOutcome{
			ToolName:  name,
			Success:   true,
			Timestamp: now,
			Result:    fmt.Sprintf("Mock result for %s: %v", name, args),
		}
	}
}

func (c *MockClient) ListTools(ctx context.Context) ([]model.ToolInfo, error) {
	return model.ToolCatalog(), nil
}
