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
	"github.com/digital-clone/server/internal/toolserver"
	logx "github.com/digital-clone/server/pkg/logger"
)

type AppConfig struct {
	Env             string        `envconfig:"APP_ENV" default:"development"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	Tools toolserver.Config
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

	srv := toolserver.New(cfg.Tools)
	httpServer := &http.Server{
		Addr:    cfg.Tools.ListenAddr,
		Handler: srv.Router(),
	}

	go func() {
		logx.Info().Str("addr", cfg.Tools.ListenAddr).Msg("Tool server listening")
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
