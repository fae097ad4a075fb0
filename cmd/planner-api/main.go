// cmd/planner-api/main.go
//
// Headless HTTP front-end for the event planner. It serves the same
// submission flow as the TUI for the project in the working directory
// (or -dir) until interrupted.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kingrea/eventplanner/internal/api"
	"github.com/kingrea/eventplanner/internal/config"
	"github.com/kingrea/eventplanner/internal/logbook"
	"github.com/kingrea/eventplanner/internal/logging"
	"github.com/kingrea/eventplanner/internal/planner"
)

const shutdownGrace = 10 * time.Second

func main() {
	dir := flag.String("dir", "", "project directory (defaults to the working directory)")
	flag.Parse()

	if err := run(*dir); err != nil {
		fmt.Fprintf(os.Stderr, "planner-api: %v\n", err)
		os.Exit(1)
	}
}

func run(dir string) error {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
		dir = cwd
	}
	if err := config.InitPlannerDir(dir); err != nil {
		return fmt.Errorf("initialize .planner directory: %w", err)
	}
	cfg, err := config.NewConfig(dir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(dir, cfg.Project.Logging.Level)
	if err != nil {
		return err
	}
	defer logger.Close()

	journal, err := logbook.New(cfg.JourneyLogPath())
	if err != nil {
		logger.Warn("logbook unavailable", "error", err)
	}
	service, err := planner.FromConfig(cfg, nil, logger, planner.WithLogbook(journal))
	if err != nil {
		return fmt.Errorf("build planner: %w", err)
	}

	settings := api.SettingsFromConfig(cfg)
	handler := api.NewRouter(api.NewHandler(service, logger, settings.MaxBodyBytes))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := api.NewServer(settings, handler, logger)
	if err := server.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Event planner API listening on %s\n", server.BaseURL())

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("api stopped", "status", server.Status())
	return nil
}
