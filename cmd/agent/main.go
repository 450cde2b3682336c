package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ravewatch-hq/ravewatch-event-agent/internal/app"
	"github.com/ravewatch-hq/ravewatch-event-agent/internal/config"
	"github.com/ravewatch-hq/ravewatch-event-agent/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "agent start failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if _, err := logger.Init(cfg); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("agent starting", "config", cfg.Redacted())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	agent, err := app.NewAgent(ctx, cfg, logger.Std())
	if err != nil {
		logger.ErrorObj("failed to initialize agent", "error", err.Error())
		return err
	}

	if err := agent.Run(ctx); err != nil {
		return fmt.Errorf("agent run: %w", err)
	}

	return nil
}
