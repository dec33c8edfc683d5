// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/jeranaias/gemmabots/internal/config"
	"github.com/jeranaias/gemmabots/internal/server"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve both bots over HTTP and WebSocket",
	Long: `Serve both bots to browsers. Each browser session gets its own history;
idle sessions expire. Edits to the config file apply to new sessions without
a restart.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	setupLogging(cmd.ErrOrStderr())
	gin.SetMode(gin.ReleaseMode)

	runCfg := cfg.Clone()
	if serveListen != "" {
		runCfg.Server.Listen = serveListen
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.Options{
		Config:       runCfg,
		Backend:      newClient(runCfg),
		Capabilities: buildCapabilities(runCfg, log),
		Log:          log,
	})

	if path, err := config.Path(); err == nil {
		go watchConfig(ctx, path, srv)
	}

	log.Info("serving", "listen", runCfg.Server.Listen, "ollama", runCfg.Ollama.URL)
	return srv.Run(ctx)
}

// watchConfig applies config file edits to the server. The listen flag keeps
// precedence over the file.
func watchConfig(ctx context.Context, path string, srv *server.Server) {
	err := config.Watch(ctx, path, log, func(next *config.Config) {
		if serveListen != "" {
			next.Server.Listen = serveListen
		}
		srv.SetConfig(next)
	})
	if err != nil {
		log.Warn("config watch disabled", "error", err)
	}
}
