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

	"github.com/digital-clone/server/internal/core"
	"github.com/digital-clone/server/internal/toolproxy"
	logx "github.com/digital-clone/server/pkg/logger"
)

type AppConfig struct {
	Env             string        `envconfig:"APP_ENV" default:"development"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	Proxy toolproxy.Config
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

	proxy := toolproxy.New(cfg.Proxy)
	httpServer := &http.Server{
		Addr:    cfg.Proxy.ListenAddr,
		Handler: proxy.Router(),
	}

	go func() {
		logx.Info().
			Str("addr", cfg.Proxy.ListenAddr).
			Str("tool_server", cfg.Proxy.ToolServerURL).
			Msg("Tool proxy listening")
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
