package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tallcraft/ghtickets"
	"github.com/tallcraft/ghtickets/internal/logging"
)

var (
	cfgPath string
	logger  *slog.Logger

	// Signal-aware context for graceful cancellation.
	rootCtx    context.Context
	rootCancel context.CancelFunc
)

var rootCmd = &cobra.Command{
	Use:   "ghtickets",
	Short: "Manage support tickets stored as GitHub issues",
	Long: `ghtickets bridges structured support tickets and a GitHub issue
repository. Every remote call is serialized through a rate-limited queue;
reads are served from a periodically refreshed local cache.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultConfigPath(), "path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(replyCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(closeCmd)
	rootCmd.AddCommand(runCmd)
}

// Execute runs the CLI.
func Execute() {
	rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer rootCancel()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home + "/.config/ghtickets/config.yaml"
	}
	return "config.yaml"
}

// startSystem loads config, wires the system, and connects to the
// backing repository. The caller must Close the returned system.
func startSystem(ctx context.Context) (*ghtickets.System, error) {
	cfg, err := ghtickets.LoadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	logger = logging.New(cfg.LogLevel)

	system := ghtickets.New(cfg, logger)
	if err := system.Start(ctx); err != nil {
		return nil, err
	}
	return system, nil
}
