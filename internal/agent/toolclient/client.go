// Package toolclient decouples the turn pipeline from tool-proxy
// availability: an HTTP client against the proxy's /mcp surface, a
// deterministic local mock, and a failover wrapper that swaps between them.
package toolclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/digital-clone/server/internal/agent/model"
	errx "github.com/digital-clone/server/internal/core/error"
	logx "github.com/digital-clone/server/pkg/logger"
)

const (
	defaultCallTimeout  = 30 * time.Second
	defaultProbeTimeout = 3 * time.Second
)

// Client is the pipeline's outbound interface to the tool proxy.
type Client interface {
	// HealthCheck probes the proxy, swallowing all transport errors as false.
	HealthCheck(ctx context.Context) bool

	// ExecuteTool invokes one tool with its argument mapping. It never
	// returns an error: transport and parse failures are normalised into a
	// failed ToolOutcome.
	ExecuteTool(ctx context.Context, name string, args map[string]any) model.ToolOutcome

	// ListTools fetches the proxy's tool registry.
	ListTools(ctx context.Context) ([]model.ToolInfo, error)
}

// HTTPClient talks to the tool proxy over its /mcp surface.
type HTTPClient struct {
	call  *resty.Client
	probe *resty.Client
}

// NewHTTPClient wires two resty clients against the proxy base URL: a short
// timeout for liveness probes, a longer one for tool calls.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		call:  resty.New().SetBaseURL(baseURL).SetTimeout(defaultCallTimeout),
		probe: resty.New().SetBaseURL(baseURL).SetTimeout(defaultProbeTimeout),
	}
}

var _ Client = (*HTTPClient)(nil)

func (c *HTTPClient) HealthCheck(ctx context.Context) bool {
	resp, err := c.probe.R().SetContext(ctx).Get("/mcp")
	if err != nil {
		return false
	}
	return resp.IsSuccess()
}

func (c *HTTPClient) ExecuteTool(ctx context.Context, name string, args map[string]any) model.ToolOutcome {
	if args == nil {
		args = map[string]any{}
	}
	resp, err := c.call.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(args).
		Post("/mcp/" + name)
	if err != nil {
		return failedOutcome(name, errx.WrapToolTransport(err))
	}
	if !resp.IsSuccess() {
		err := fmt.Errorf("HTTP %d: %s", resp.StatusCode(), resp.String())
		return failedOutcome(name, errx.WrapToolTransport(err))
	}
	return model.ToolOutcome{
		ToolName:  name,
		Success:   true,
		Result:    resp.String(),
		Timestamp: time.Now().UTC(),
	}
}

func (c *HTTPClient) ListTools(ctx context.Context) ([]model.ToolInfo, error) {
	var tools []model.ToolInfo
	resp, err := c.call.R().SetContext(ctx).SetResult(&tools).Get("/mcp")
	if err != nil {
		return nil, errx.WrapToolTransport(err)
	}
	if !resp.IsSuccess() {
		return nil, errx.WrapToolTransport(fmt.Errorf("HTTP %d: %s", resp.StatusCode(), resp.String()))
	}
	return tools, nil
}

func failedOutcome(name string, err error) model.ToolOutcome {
	logx.Warn().Str("tool", name).Err(err).Msg("Tool invocation failed")
	return model.ToolOutcome{
		ToolName:  name,
		Success:   false,
		Error:     err.Error(),
		Timestamp: time.Now().UTC(),
	}
}
