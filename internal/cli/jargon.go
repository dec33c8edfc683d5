// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/gemmabots/internal/bot"
	"github.com/jeranaias/gemmabots/internal/capability"
	"github.com/jeranaias/gemmabots/internal/commands"
	"github.com/jeranaias/gemmabots/internal/config"
	"github.com/jeranaias/gemmabots/internal/session"
	"github.com/jeranaias/gemmabots/internal/ui/chat"
)

var (
	jargonPlain   bool
	jargonModel   string
	jargonLang    string
	jargonPDF     string
	jargonNoThink bool
	jargonTTS     bool
)

var jargonCmd = &cobra.Command{
	Use:   "jargon",
	Short: "Ask anything, get four words of jargon",
	Long: `Ask anything. The model reasons inside <think> markers, then answers in
exactly four words of jargon. The reasoning streams live and is kept,
clipped, next to each answer.

Load a PDF with --pdf or /pdf to ask questions about it.`,
	Example: `  gemmabots jargon
  gemmabots jargon --lang es --pdf contract.pdf
  echo "What is a REIT?" | gemmabots jargon --plain`,
	Args: cobra.NoArgs,
	RunE: runJargon,
}

func init() {
	jargonCmd.Flags().BoolVar(&jargonPlain, "plain", false, "use the line interface")
	jargonCmd.Flags().StringVarP(&jargonModel, "model", "m", "", "model to prompt")
	jargonCmd.Flags().StringVarP(&jargonLang, "lang", "l", "", "answer language (code or name)")
	jargonCmd.Flags().StringVar(&jargonPDF, "pdf", "", "PDF to load as document context")
	jargonCmd.Flags().BoolVar(&jargonNoThink, "no-think", false, "hide the model's reasoning")
	jargonCmd.Flags().BoolVar(&jargonTTS, "tts", false, "read answers aloud")
}

// jargonSettings returns the settings of a new session: the config, then
// the flags.
func jargonSettings(cfg *config.Config) (session.Settings, error) {
	set := session.Settings{
		Model:           cfg.Jargon.Model,
		Language:        cfg.Jargon.Language,
		ThinkingVisible: cfg.Jargon.ThinkingVisible,
		SpeakAnswers:    cfg.Jargon.SpeakAnswers,
	}
	if jargonModel != "" {
		set.Model = jargonModel
	}
	if jargonLang != "" {
		lang, err := capability.ParseLanguage(jargonLang)
		if err != nil {
			return set, err
		}
		set.Language = lang
	}
	if jargonNoThink {
		set.ThinkingVisible = false
	}
	if jargonTTS {
		set.SpeakAnswers = true
	}
	return set, nil
}

func runJargon(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	plain := jargonPlain || !stdio.Interactive()
	if plain {
		setupLogging(cmd.ErrOrStderr())
	} else {
		setupLogging(nil)
	}

	set, err := jargonSettings(cfg)
	if err != nil {
		return err
	}

	runCfg := cfg.Clone()
	if jargonPDF != "" {
		runCfg.Capabilities.PDF.Enabled = true
	}
	if jargonTTS {
		runCfg.Capabilities.TTS.Enabled = true
	}

	client := newClient(runCfg)
	jb := bot.NewJargonBot(client, buildCapabilities(runCfg, log), log)
	sess := session.NewJargonSession()
	sess.ApplySettings(set)

	log.Info("jargon session started", "session", sess.ID, "model", set.Model, "language", set.Language, "plain", plain)

	if jargonPDF != "" {
		if err := loadPDF(ctx, jb, sess, jargonPDF); err != nil {
			return err
		}
	}

	if !plain {
		return runTUI(ctx, chat.Options{
			Mode:          commands.ModeJargon,
			Jargon:        jb,
			JargonSession: sess,
			Models:        client,
			Log:           log,
		})
	}

	if doc, ok := sess.DocumentSummary(); ok {
		fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("📄 "+doc.Name+": "+doc.Loaded()))
	}
	registry := commands.NewRegistry(commands.ModeJargon)
	return runREPL(ctx, &REPL{
		Mode:     commands.ModeJargon,
		Registry: registry,
		Env: &commands.Context{
			Jargon:    sess,
			JargonBot: jb,
			Models:    client,
		},
		Jargon:        jb,
		JargonSession: sess,
		Log:           log,
	})
}

// loadPDF installs the file at path as the session's document.
func loadPDF(ctx context.Context, jb *bot.JargonBot, sess *session.JargonSession, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat document: %w", err)
	}
	if _, err := jb.LoadDocument(ctx, sess, path, f, info.Size()); err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	return nil
}
