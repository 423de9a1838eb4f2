package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"kirby/internal/config"
	"kirby/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Logger
	logger *zap.Logger
)

// errReported marks failures whose message has already been printed.
var errReported = errors.New("failure already reported")

// newRootCmd builds the command tree around a fresh application context.
// Call app.shutdown once Execute returns, whatever the outcome.
func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "kirby",
		Short: "kirby - context collector for LLM prompts",
		Long: `kirby keeps undoable collections of prompts, shared files, processing
files and URLs, and sends them to an LLM as one request.

Every change is saved as a snapshot, so the last change to any collection
can be undone.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			zc := zap.NewProductionConfig()
			zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			if verbose {
				zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			l, err := zc.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			runID := uuid.NewString()
			logger = l.With(zap.String("run_id", runID))

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config %s: %w", configPath, err)
			}
			if err := logging.Initialize(filepath.Dir(configPath), logging.Settings{
				DebugMode:  cfg.Logging.DebugMode,
				Level:      cfg.Logging.Level,
				JSONFormat: cfg.Logging.JSONFormat,
				Categories: cfg.Logging.Categories,
			}); err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}
			run := logging.WithRequestID(logging.CategoryBoot, runID).
				WithField("cmd", cmd.CommandPath())
			run.Info("kirby started (config %s)", configPath)
			if logging.IsDebugMode() {
				logging.BootDebug("Logs written to %s", logging.LogsDir())
			}

			if err := a.open(cfg); err != nil {
				run.Error("Session open failed: %v", err)
				logging.BootError("Failed to open session %s: %v", cfg.Session.Dir, err)
				return err
			}
			logger.Debug("Session opened",
				zap.String("dir", cfg.Session.Dir),
				zap.String("backend", cfg.Session.Backend))
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath(), "Config file")

	rootCmd.AddCommand(
		newCollectionCmd(a, promptCommand),
		newCollectionCmd(a, fileCommand),
		newCollectionCmd(a, processCommand),
		newURLCmd(a),
		newShowCmd(a),
		newClearCmd(a),
		newPasteCmd(a),
		newCopyCmd(a),
		newAskCmd(a),
	)
	return rootCmd, a
}

func main() {
	rootCmd, a := newRootCmd()
	err := rootCmd.Execute()
	a.shutdown()
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
