package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/digital-clone/server/internal/agent/graph"
	"github.com/digital-clone/server/internal/agent/llm"
	"github.com/digital-clone/server/internal/agent/model"
	"github.com/digital-clone/server/internal/agent/session"
	"github.com/digital-clone/server/internal/agent/toolclient"
	"github.com/digital-clone/server/internal/core"
	"github.com/digital-clone/server/internal/httpapi"
	"github.com/digital-clone/server/internal/observability"
	logx "github.com/digital-clone/server/pkg/logger"
)

// AppConfig defines all configurable parameters for the agent service,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Env              string        `envconfig:"APP_ENV" default:"development"`
	ListenAddr       string        `envconfig:"AGENT_ADDR" default:":8000"`
	MetricsNamespace string        `envconfig:"METRICS_NAMESPACE" default:"agent"`
	ShutdownTimeout  time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	ToolRecheck      time.Duration `envconfig:"TOOL_RECHECK_INTERVAL" default:"30s"`

	Agent  model.AgentConfig
	Gemini llm.GeminiConfig
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Env)})

	ctx := context.Background()
	metrics := observability.NewMetrics(cfg.MetricsNamespace)
	sessions := session.NewStore()
	tools := toolclient.NewFailover(toolclient.NewHTTPClient(cfg.Agent.ToolProxyURL), cfg.ToolRecheck)

	factory := func(ctx context.Context, agentCfg model.AgentConfig) (*graph.Pipeline, error) {
		invoker, err := llm.NewGeminiInvoker(ctx, cfg.Gemini, agentCfg)
		if err != nil {
			return nil, err
		}
		return graph.NewPipeline(ctx, graph.Config{
			Agent:    agentCfg,
			Invoker:  invoker,
			Tools:    tools,
			Sessions: sessions,
			Metrics:  metrics,
		})
	}

	pipeline, err := factory(ctx, cfg.Agent)
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to build turn pipeline")
	}

	api := httpapi.New(pipeline, factory, tools)
	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: api.Router(),
	}

	go func() {
		logx.Info().Str("addr", cfg.ListenAddr).Str("model", cfg.Agent.ModelName).Msg("Agent server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal().Err(err).Msg("Listen error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logx.Info().Msg("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logx.Warn().Err(err).Msg("Graceful shutdown failed")
		_ = httpServer.Close()
	}
	logx.Info().Msg("Shutdown complete")
}
