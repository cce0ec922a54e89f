// ABOUTME: Root Cobra command for caltra CLI.
// ABOUTME: Loads config, sets up logging, and opens storage via PersistentPre/PostRunE.
package main

import (
	"fmt"
	"os"

	"github.com/harperreed/caltra/internal/config"
	"github.com/harperreed/caltra/internal/estimate"
	"github.com/harperreed/caltra/internal/logging"
	"github.com/harperreed/caltra/internal/storage"
	"github.com/harperreed/caltra/internal/tracker"
	"github.com/spf13/cobra"
)

// skipStorage marks commands that run without opening the database.
const skipStorage = "skip-storage"

var (
	dbPath   string
	userFlag string

	cfg  *config.Config
	repo storage.Repository
	svc  *tracker.Service
)

var rootCmd = &cobra.Command{
	Use:   "caltra",
	Short: "Personal calorie and protein tracker",
	Long: `Caltra is a CLI tool for tracking what you eat against daily calorie and
protein goals.

WHAT IT TRACKS:

  Food log     food name, weight in grams, calories, protein, meal
  Meals        Breakfast, Dinner, Supper, Snack
  Goals        daily calorie and protein targets (default 2000 kcal, 150 g)
  Saved foods  per-100g nutrition you can reuse by name

QUICK START:

  $ caltra add banana -w 120 -c 107 -p 1.3       # Log with known values
  $ caltra add "grilled chicken" -w 200 --estimate  # Let the AI estimate
  $ caltra add oats --saved -m Breakfast          # Reuse a saved food
  $ caltra today                                  # Today's log and progress
  $ caltra history                                # Month calendar

GOALS:

  $ caltra goals                  # Show goals
  $ caltra goals set 2200 160     # Set calorie and protein goals

WEB AND MCP:

  Run 'caltra serve' to expose the JSON API for the web client, or
  'caltra mcp' to start the Model Context Protocol server for AI assistants.

  {
    "mcpServers": {
      "caltra": { "command": "caltra", "args": ["mcp"] }
    }
  }

DATA STORAGE:

  Data is stored in SQLite at ~/.local/share/caltra/caltra.db unless the
  config selects the postgres backend. Settings live in
  ~/.config/caltra/config.json and can be overridden from the environment.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// PostRun is skipped when a command fails, so close what it left open.
		_ = closeStorage()
		if cmd.Name() == "help" || cmd.Annotations[skipStorage] == "true" {
			return nil
		}

		var err error
		cfg, err = loadConfig()
		if err != nil {
			return err
		}
		if err := logging.Init(os.Stderr, cfg.GetLogLevel(), cfg.GetLogFormat()); err != nil {
			return err
		}

		if dbPath != "" {
			repo, err = storage.Open(config.ExpandPath(dbPath))
		} else {
			repo, err = cfg.OpenStorage(cmd.Context())
		}
		if err != nil {
			repo = nil
			return fmt.Errorf("failed to open storage: %w", err)
		}

		svc = tracker.New(repo, trackerOptions()...)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeStorage()
	},
}

func closeStorage() error {
	if repo == nil {
		return nil
	}
	err := repo.Close()
	repo = nil
	svc = nil
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides the configured backend)")
	rootCmd.PersistentFlags().StringVar(&userFlag, "user", "", "user ID to act as (default from config)")
}

// loadConfig reads the config file and applies environment overrides.
func loadConfig() (*config.Config, error) {
	c, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := c.ApplyEnv(); err != nil {
		return nil, err
	}
	return c, nil
}

// trackerOptions enables estimation only when an API key is configured.
func trackerOptions() []tracker.Option {
	if cfg.APIKey == "" {
		return nil
	}
	client := estimate.NewClient(estimate.Options{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
	})
	return []tracker.Option{tracker.WithEstimator(client)}
}

func currentUser() string {
	if userFlag != "" {
		return userFlag
	}
	return cfg.GetUserID()
}
