// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/spf13/cobra"

	"github.com/jeranaias/gemmabots/internal/bot"
	"github.com/jeranaias/gemmabots/internal/commands"
	"github.com/jeranaias/gemmabots/internal/session"
	"github.com/jeranaias/gemmabots/internal/ui/chat"
)

var (
	characterPlain bool
	characterModel string
)

var characterCmd = &cobra.Command{
	Use:   "character",
	Short: "Chat with Gemma and its personas",
	Long: `Chat with Gemma. Mention Iron Man, Naruto or Sherlock to switch persona;
the conversation restarts in that voice.`,
	Args: cobra.NoArgs,
	RunE: runCharacter,
}

func init() {
	characterCmd.Flags().BoolVar(&characterPlain, "plain", false, "use the line interface")
	characterCmd.Flags().StringVarP(&characterModel, "model", "m", "", "model to prompt")
}

func runCharacter(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	plain := characterPlain || !stdio.Interactive()
	if plain {
		setupLogging(cmd.ErrOrStderr())
	} else {
		setupLogging(nil)
	}

	client := newClient(cfg)
	cb := bot.NewCharacterBot(client, log)
	cb.Model = cfg.Character.Model
	if characterModel != "" {
		cb.Model = characterModel
	}
	cb.Timeout = cfg.OllamaTimeout()
	sess := session.NewCharacterSession()

	log.Info("character session started", "session", sess.ID, "model", cb.Model, "plain", plain)

	if !plain {
		return runTUI(ctx, chat.Options{
			Mode:             commands.ModeCharacter,
			Character:        cb,
			CharacterSession: sess,
			CharacterModel:   cb.Model,
			Models:           client,
			Log:              log,
		})
	}

	registry := commands.NewRegistry(commands.ModeCharacter)
	return runREPL(ctx, &REPL{
		Mode:     commands.ModeCharacter,
		Registry: registry,
		Env: &commands.Context{
			Character:      sess,
			Models:         client,
			CharacterModel: cb.Model,
		},
		Character:        cb,
		CharacterSession: sess,
		Log:              log,
	})
}
