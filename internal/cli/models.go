// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models installed on the Ollama server",
	Args:  cobra.NoArgs,
	RunE:  runModels,
}

func runModels(cmd *cobra.Command, args []string) error {
	setupLogging(cmd.ErrOrStderr())
	out := cmd.OutOrStdout()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	client := newClient(cfg)
	models, err := client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("list models at %s: %w", client.BaseURL(), err)
	}

	fmt.Fprintln(out, TitleStyle.Render("Models"))
	fmt.Fprintln(out, RenderSeparator())
	if len(models) == 0 {
		fmt.Fprintln(out, DimStyle.Render("No models installed. Try: ollama pull "+cfg.Jargon.Model))
		return nil
	}
	for _, m := range models {
		name := m.ID()
		marker := "  "
		if name == cfg.Jargon.Model || name == cfg.Character.Model {
			marker = SuccessStyle.Render("● ")
		}
		fmt.Fprintf(out, "%s%s %s\n", marker, ValueStyle.Render(fmt.Sprintf("%-32s", name)), DimStyle.Render(m.FormatSize()))
	}
	return nil
}
