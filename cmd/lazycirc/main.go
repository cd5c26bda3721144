// Command lazycirc is a terminal client for circulation manager advanced
// search. Run without arguments to start the interactive interface.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rebeliceyang/lazycirc/internal/app"
	"github.com/rebeliceyang/lazycirc/internal/config"
	"github.com/rebeliceyang/lazycirc/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "lazycirc",
	Short: "Build and run circulation manager advanced searches",
	Long: `lazycirc edits advanced search queries as a tree of filters and runs
them against a circulation manager's OPDS search or a PostgreSQL catalog
mirror.

Run without arguments to start the interactive interface.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadFile(configPath)
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.Logging, verbose)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: user config directory)")

	rootCmd.AddCommand(queryCmd, searchCmd, historyCmd, listsCmd, loginCmd, logoutCmd)
}

func runInteractive(cmd *cobra.Command) error {
	svc, err := openServices(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	model := app.New(app.Deps{
		Config: cfg,
		Search: svc.Search,
		Lists:  svc.Lists,
		Logger: logger,
	})

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.UI.MouseEnabled {
		opts = append(opts, tea.WithMouseCellMotion())
	}

	logger.Info("starting interactive session",
		zap.String("backend", cfg.Search.Backend),
		zap.String("library", cfg.Server.Library))
	if _, err := tea.NewProgram(model, opts...).Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
