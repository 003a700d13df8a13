package toolclient

import (
	"context"
	"sync"
	"time"

	"github.com/digital-clone/server/internal/agent/model"
	logx "github.com/digital-clone/server/pkg/logger"
)

const defaultRecheckInterval = 30 * time.Second

// Failover serves tool calls from the real proxy while it is live and from
// the local mock while it is not. Unlike a one-way downgrade, it re-probes
// the proxy on an interval so a recovered proxy is picked up again. The
// live/mock mode is process-wide per pipeline instance, not per
// conversation.
type Failover struct {
	real    Client
	mock    Client
	recheck time.Duration

	mu        sync.Mutex
	usingMock bool
	lastProbe time.Time
}

// NewFailover wraps the real client. recheck <= 0 selects the default
// re-probe interval.
func NewFailover(real Client, recheck time.Duration) *Failover {
	if recheck <= 0 {
		recheck = defaultRecheckInterval
	}
	return &Failover{
		real:    real,
		mock:    NewMockClient(),
		recheck: recheck,
	}
}

var _ Client = (*Failover)(nil)

// EnsureLive probes the proxy and selects the live or mock backend for
// subsequent calls. While in mock mode the probe is rate-limited to the
// recheck interval so every turn does not pay for a dead proxy.
func (f *Failover) EnsureLive(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	if f.usingMock && now.Sub(f.lastProbe) < f.recheck {
		return
	}
	f.lastProbe = now

	healthy := f.real.HealthCheck(ctx)
	if healthy && f.usingMock {
		logx.Info().Msg("Tool proxy recovered, leaving mock mode")
	}
	if !healthy && !f.usingMock {
		logx.Warn().Msg("Tool proxy not available, using mock client")
	}
	f.usingMock = !healthy
}

// UsingMock reports whether calls are currently served by the mock.
func (f *Failover) UsingMock() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.usingMock
}

func (f *Failover) current() Client {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.usingMock {
		return f.mock
	}
	return f.real
}

func (f *Failover) HealthCheck(ctx context.Context) bool {
	return f.real.HealthCheck(ctx)
}

func (f *Failover) ExecuteTool(ctx context.Context, name string, args map[string]any) model.ToolOutcome {
	return f.current().ExecuteTool(ctx, name, args)
}

func (f *Failover) ListTools(ctx context.Context) ([]model.ToolInfo, error) {
	tools, err := f.current().ListTools(ctx)
	if err != nil {
		// Registry lookups degrade to the mock catalog rather than failing
		// the caller's request.
		return f.mock.ListTools(ctx)
	}
	return tools, nil
}
