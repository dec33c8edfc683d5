// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/gemmabots/internal/config"
	"github.com/jeranaias/gemmabots/internal/logging"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Loaded once per invocation.
	cfg      *config.Config
	log      = logging.Discard()
	closeLog = func() error { return nil }
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "gemmabots",
	Short: "Two local Gemma chat bots",
	Long: `gemmabots runs two chat bots on a local Ollama server.

CharacterBot chats with Gemma and switches into Iron Man, Naruto or Sherlock
when you mention them. JargonBot answers anything in four words of jargon
and shows its reasoning as it streams.`,
	Version:      Version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		loaded, err := config.Load()
		if loaded == nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: config file ignored: %v\n", err)
		}
		cfg = loaded
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if err := closeLog(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr at debug level")

	rootCmd.AddCommand(characterCmd)
	rootCmd.AddCommand(jargonCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
}

// setupLogging builds the logger from the loaded config. Console output goes
// to console only with --verbose; the file log is always written unless
// disabled.
func setupLogging(console io.Writer) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	} else {
		console = nil
	}

	path, err := cfg.LogPath()
	if err != nil {
		path = ""
	}
	log, closeLog = logging.Setup(level, path, console)
	slog.SetDefault(log)
}
