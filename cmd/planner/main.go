// cmd/planner/main.go
//
// This is the entry point for the event planner TUI.
// When you run `planner` from any directory, that directory becomes the
// project: settings live in .planner/ and results are written next to it.
//
// Flow:
// 1. Initialize the .planner folder
// 2. Open the structured log
// 3. Launch the TUI

package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/eventplanner/internal/config"
	"github.com/kingrea/eventplanner/internal/logging"
	"github.com/kingrea/eventplanner/internal/tui"
)

func main() {
	// Get the current working directory - this is the "project" we're working in
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting working directory: %v\n", err)
		os.Exit(1)
	}

	if err := config.InitPlannerDir(cwd); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing .planner directory: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.NewConfig(cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cwd, cfg.Project.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	app, err := tui.NewApp(cwd, tui.WithLogger(logger))
	if err != nil {
		logger.Error("startup failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error starting planner: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(
		app,
		tea.WithAltScreen(), // Use alternate screen buffer (like vim does)
	)

	// Run blocks until the user quits
	if _, err := p.Run(); err != nil {
		logger.Error("tui exited", "error", err)
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
