// Package main is the entry point for the LLM usage dashboard.
// It initializes configuration, services, and runs the Bubble Tea program.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/j-veylop/llm-usage-tui/internal/app"
	"github.com/j-veylop/llm-usage-tui/internal/config"
	"github.com/j-veylop/llm-usage-tui/internal/engine"
	"github.com/j-veylop/llm-usage-tui/internal/logger"
	"github.com/j-veylop/llm-usage-tui/internal/services"
	"github.com/j-veylop/llm-usage-tui/internal/summary"
	"github.com/j-veylop/llm-usage-tui/internal/ui/tabs/dashboard"
	"github.com/j-veylop/llm-usage-tui/internal/ui/tabs/info"
	"github.com/j-veylop/llm-usage-tui/internal/version"
	"github.com/j-veylop/llm-usage-tui/internal/viewmodel"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:   "llmusage",
		Short: "Terminal dashboard for OpenAI and Anthropic usage and spend",
		Long: `llmusage charts daily cost and token usage from the OpenAI and Anthropic
admin APIs.

Admin keys are read from OPENAI_ADMIN_KEY and ANTHROPIC_ADMIN_KEY, from the
environment or from a .env file. Without --env-file the first of these is used:
  ./.env
  ~/.config/llmusage/.env
  ~/.llmusage/.env

Keyboard:
  ←/→ h/l       Move between selector columns
  ↑/↓ j/k       Change the selected option
  Enter         Open the drill-down list under Group By
  d             Toggle the daily detail table
  [ ]           Scroll the chart
  r             Refresh
  1-2, Tab      Switch tabs
  ?             Help
  q, Esc        Quit`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(envFile)
		},
	}
	root.Flags().StringVar(&envFile, "env-file", "", "path to a .env file with admin keys")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Info())
		},
	})

	return root
}

// run contains the main application logic, separated for cleaner error handling.
func run(envFile string) error {
	// 1. Load configuration from .env files and environment variables
	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Route logs to the log file, if any. The terminal belongs to the TUI.
	logCloser := logger.Init(cfg.LogFile, cfg.LogLevel)
	defer logCloser.Close()
	logger.Info("starting", "version", version.GetVersion(), "env_file", cfg.EnvFile)

	// 3. Initialize the service manager
	// This starts the credentials watcher and the usage fetcher
	svcManager, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	// Ensure cleanup on exit
	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	// 4. Create the root Bubble Tea model
	model := app.NewModel(svcManager)

	// 5. Initialize tabs with shared state and services
	state := model.GetState()
	builder := viewmodel.NewBuilder(
		engine.New(engine.Options{MaterialityThreshold: cfg.MaterialityThreshold}, nil),
		summary.Options{
			NoiseFloor:   cfg.CostNoiseFloor,
			Percentile:   cfg.OutlierPercentile,
			OutlierRatio: cfg.OutlierRatio,
		},
	)
	tabs := []app.Tab{
		dashboard.New(state, svcManager.Store(), builder, model.GetCommands()), // Tab 0: Dashboard - charts and summaries
		info.New(state, cfg, svcManager), // Tab 1: Info - configuration and app info
	}
	model.SetTabs(tabs)

	// 6. Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// 7. Create and configure the Bubble Tea program
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),       // Use alternate screen buffer (full terminal)
		tea.WithMouseCellMotion(), // Enable mouse wheel scrolling
	)

	// 8. Handle signals in a separate goroutine
	go func() {
		<-sigChan
		p.Send(tea.Quit())
	}()

	// 9. Run the TUI program
	// This blocks until the user quits or an error occurs
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
