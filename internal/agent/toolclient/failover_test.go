package toolclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digital-clone/server/internal/agent/model"
)

type flakyClient struct {
	healthy  bool
	listErr  error
	probes   int
	executed int
}

func (c *flakyClient) HealthCheck(context.Context) bool {
	c.probes++
	return c.healthy
}

func (c *flakyClient) ExecuteTool(_ context.Context, name string, _ map[string]any) model.ToolOutcome {
	c.executed++
	return model.ToolOutcome{ToolName: name, Success: true, Result: "real result"}
}

func (c *flakyClient) ListTools(context.Context) ([]model.ToolInfo, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	return []model.ToolInfo{{Name: "real_tool"}}, nil
}

func TestFailoverUsesRealWhileLive(t *testing.T) {
	real := &flakyClient{healthy: true}
	f := NewFailover(real, time.Hour)

	f.EnsureLive(context.Background())
	assert.False(t, f.UsingMock())

	out := f.ExecuteTool(context.Background(), model.ToolCalculate, nil)
	assert.Equal(t, "real result", out.Result)
	assert.Equal(t, 1, real.executed)
}

func TestFailoverDegradesToMock(t *testing.T) {
	real := &flakyClient{healthy: false}
	f := NewFailover(real, time.Hour)

	f.EnsureLive(context.Background())
	require.True(t, f.UsingMock())

	out := f.ExecuteTool(context.Background(), model.ToolCalculate, map[string]any{"expression": "2 + 3"})
	require.True(t, out.Success)
	result, ok := out.Result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(5), result["result"])
	assert.Zero(t, real.executed)
}

func TestFailoverProbeRateLimitedInMockMode(t *testing.T) {
	real := &flakyClient{healthy: false}
	f := NewFailover(real, time.Hour)

	f.EnsureLive(context.Background())
	require.True(t, f.UsingMock())
	require.Equal(t, 1, real.probes)

	// The proxy came back, but the hour-long recheck window has not elapsed.
	real.healthy = true
	f.EnsureLive(context.Background())
	assert.True(t, f.UsingMock())
	assert.Equal(t, 1, real.probes)
}

func TestFailoverRecoversAfterRecheck(t *testing.T) {
	real := &flakyClient{healthy: false}
	f := NewFailover(real, time.Nanosecond)

	f.EnsureLive(context.Background())
	require.True(t, f.UsingMock())

	real.healthy = true
	time.Sleep(time.Millisecond)
	f.EnsureLive(context.Background())
	assert.False(t, f.UsingMock())

	out := f.ExecuteTool(context.Background(), model.ToolWebSearch, nil)
	assert.Equal(t, "real result", out.Result)
}

func TestFailoverListToolsDegradesToCatalog(t *testing.T) {
	real := &flakyClient{healthy: true, listErr: errors.New("boom")}
	f := NewFailover(real, time.Hour)

	tools, err := f.ListTools(context.Background())
	require.NoError(t, err)
	assert.Len(t, tools, 7)
}
