// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/gemmabots/internal/capability"
	"github.com/jeranaias/gemmabots/internal/config"
	"github.com/jeranaias/gemmabots/internal/ollama"
	"github.com/jeranaias/gemmabots/internal/ui/styles"
)

// CheckStatus is the outcome of one doctor check.
type CheckStatus string

const (
	CheckPass CheckStatus = "pass"
	CheckWarn CheckStatus = "warn"
	CheckFail CheckStatus = "fail"
)

// CheckResult represents a system check result
type CheckResult struct {
	Name    string
	Status  CheckStatus
	Message string
	Fix     string
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check Ollama, the configured models and optional programs",
	Args:  cobra.NoArgs,
	RunE:  runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	setupLogging(cmd.ErrOrStderr())

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	results := runChecks(ctx, cfg, newClient(cfg))
	printChecks(cmd.OutOrStdout(), results)

	for _, r := range results {
		if r.Status == CheckFail {
			return errors.New("some checks failed")
		}
	}
	return nil
}

// runChecks checks everything a bot turn depends on.
func runChecks(ctx context.Context, cfg *config.Config, client *ollama.Client) []CheckResult {
	results := []CheckResult{
		{Name: "Platform", Status: CheckPass, Message: runtime.GOOS + "/" + runtime.GOARCH},
		checkConfigFile(),
	}

	models, err := client.ListModels(ctx)
	if err != nil {
		results = append(results, CheckResult{
			Name:    "Ollama",
			Status:  CheckFail,
			Message: "not reachable at " + client.BaseURL(),
			Fix:     "Run: ollama serve",
		})
		return append(results, checkPrograms(cfg)...)
	}
	results = append(results, CheckResult{
		Name:    "Ollama",
		Status:  CheckPass,
		Message: fmt.Sprintf("running at %s with %d models", client.BaseURL(), len(models)),
	})

	installed := make(map[string]bool, len(models))
	for _, m := range models {
		installed[m.ID()] = true
	}
	results = append(results,
		checkModel("Character model", cfg.Character.Model, installed),
		checkModel("Jargon model", cfg.Jargon.Model, installed),
	)
	return append(results, checkPrograms(cfg)...)
}

func checkConfigFile() CheckResult {
	path, err := config.Path()
	if err != nil {
		return CheckResult{Name: "Config file", Status: CheckWarn, Message: err.Error()}
	}
	if _, err := os.Stat(path); err != nil {
		return CheckResult{
			Name:    "Config file",
			Status:  CheckWarn,
			Message: "not found, using defaults",
			Fix:     "Run: gemmabots config init",
		}
	}
	if _, err := config.LoadFromPath(path); err != nil {
		return CheckResult{Name: "Config file", Status: CheckFail, Message: err.Error(), Fix: "Edit " + path}
	}
	return CheckResult{Name: "Config file", Status: CheckPass, Message: path}
}

func checkModel(name, model string, installed map[string]bool) CheckResult {
	if installed[model] {
		return CheckResult{Name: name, Status: CheckPass, Message: model}
	}
	return CheckResult{
		Name:    name,
		Status:  CheckFail,
		Message: model + " is not installed",
		Fix:     "Run: ollama pull " + model,
	}
}

// checkPrograms checks the external programs of the enabled capabilities.
func checkPrograms(cfg *config.Config) []CheckResult {
	c := cfg.Capabilities
	var results []CheckResult

	program := func(name string, argv []string) {
		if err := capability.Validate(argv); err != nil {
			results = append(results, CheckResult{Name: name, Status: CheckWarn, Message: err.Error(), Fix: "Install it or disable the capability"})
			return
		}
		results = append(results, CheckResult{Name: name, Status: CheckPass, Message: argv[0]})
	}

	if c.Speech.Enabled {
		program("Speech recorder", orDefault(c.Speech.RecordCommand, capability.DefaultRecordCommand))
		program("Speech transcriber", orDefault(c.Speech.TranscribeCommand, capability.DefaultTranscribeCommand))
	}
	if c.TTS.Enabled {
		program("Speech output", orDefault(c.TTS.Command, capability.DefaultSpeakCommand))
	}
	return results
}

func printChecks(w io.Writer, results []CheckResult) {
	fmt.Fprintln(w, TitleStyle.Render("System Check"))
	fmt.Fprintln(w, RenderSeparator())

	for _, r := range results {
		status := styles.StatusSuccess
		switch r.Status {
		case CheckWarn:
			status = styles.StatusWarning
		case CheckFail:
			status = styles.StatusError
		}
		fmt.Fprintln(w, styles.RenderStatus(status, r.Name+DimStyle.Render(" - "+r.Message)))
		if r.Fix != "" {
			fmt.Fprintln(w, DimStyle.Render("       -> "+r.Fix))
		}
	}
}
