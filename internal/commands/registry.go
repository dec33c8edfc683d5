// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"fmt"
	"sort"
)

// =============================================================================
// MODES
// =============================================================================

// Mode selects the bot a registry serves.
type Mode string

const (
	ModeCharacter Mode = "character"
	ModeJargon    Mode = "jargon"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Command represents a slash command that can be executed.
type Command struct {
	// Name is the primary command name (e.g., "/help")
	Name string

	// Aliases are alternative names (e.g., "/h", "/?")
	Aliases []string

	// Description is shown in help and completion
	Description string

	// Usage shows argument syntax (e.g., "/model <name>")
	Usage string

	// Args defines the expected arguments
	Args []ArgDef

	// Modes lists the bots that offer the command. Empty means all.
	Modes []Mode

	// Handler executes the command
	Handler Handler

	// Category for grouping in help display
	Category string
}

// Handler runs a parsed command.
type Handler func(ctx context.Context, env *Context, args []string, raw string) (Result, error)

// Supports reports whether the command is offered in mode.
func (c *Command) Supports(mode Mode) bool {
	if len(c.Modes) == 0 {
		return true
	}
	for _, m := range c.Modes {
		if m == mode {
			return true
		}
	}
	return false
}

// ArgDef defines an argument for a command.
type ArgDef struct {
	Name        string
	Required    bool
	Type        ArgType
	Description string

	// Values for enum types
	Values []string
}

// ArgType indicates what kind of completion to provide.
type ArgType int

const (
	ArgTypeString   ArgType = iota // Free-form string
	ArgTypeModel                   // Model name from Ollama
	ArgTypeFile                    // File path
	ArgTypeEnum                    // One of predefined values
	ArgTypeLanguage                // Output language name or code
	ArgTypePersona                 // Persona name
)

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds the commands of one bot.
type Registry struct {
	mode     Mode
	commands map[string]*Command
	aliases  map[string]*Command
}

// NewRegistry creates a registry with the built-in commands for mode.
func NewRegistry(mode Mode) *Registry {
	r := &Registry{
		mode:     mode,
		commands: make(map[string]*Command),
		aliases:  make(map[string]*Command),
	}
	for _, cmd := range builtins() {
		if cmd.Supports(mode) {
			r.Register(cmd)
		}
	}
	return r
}

// Mode returns the bot the registry serves.
func (r *Registry) Mode() Mode {
	return r.mode
}

// Register adds a command to the registry.
func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd
	}
}

// Get retrieves a command by name or alias.
func (r *Registry) Get(name string) *Command {
	if cmd, ok := r.commands[name]; ok {
		return cmd
	}
	if cmd, ok := r.aliases[name]; ok {
		return cmd
	}
	return nil
}

// All returns the registered commands sorted by name.
func (r *Registry) All() []*Command {
	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

// ByCategory returns commands grouped by category.
func (r *Registry) ByCategory() map[string][]*Command {
	result := make(map[string][]*Command)
	for _, cmd := range r.All() {
		category := cmd.Category
		if category == "" {
			category = "General"
		}
		result[category] = append(result[category], cmd)
	}
	return result
}

// Execute parses input and runs the matching command.
func (r *Registry) Execute(ctx context.Context, env *Context, input string) (Result, error) {
	parsed := NewParser(r).Parse(input)
	if !parsed.IsCommand {
		return Result{}, fmt.Errorf("not a command: %q", input)
	}
	if parsed.Command == nil {
		return Result{}, fmt.Errorf("unknown command %s (try /help)", parsed.CommandName)
	}
	if err := ValidateArgs(parsed.Command, parsed.Args); err != nil {
		return Result{}, err
	}
	if env == nil {
		env = &Context{}
	}
	env.registry = r
	return parsed.Command.Handler(ctx, env, parsed.Args, parsed.RawArgs)
}

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

var (
	both      []Mode
	character = []Mode{ModeCharacter}
	jargon    = []Mode{ModeJargon}
)

func builtins() []*Command {
	return []*Command{
		// Navigation
		{
			Name:        "/help",
			Aliases:     []string{"/h", "/?"},
			Description: "Show available commands",
			Usage:       "/help [command]",
			Args:        []ArgDef{{Name: "command", Type: ArgTypeString, Description: "Command to describe"}},
			Category:    "Navigation",
			Modes:       both,
			Handler:     handleHelp,
		},
		{
			Name:        "/quit",
			Aliases:     []string{"/q", "/exit"},
			Description: "Exit gemmabots",
			Category:    "Navigation",
			Modes:       both,
			Handler:     handleQuit,
		},

		// Conversation
		{
			Name:        "/clear",
			Aliases:     []string{"/new"},
			Description: "Clear the conversation",
			Category:    "Conversation",
			Modes:       both,
			Handler:     handleClear,
		},
		{
			Name:        "/status",
			Description: "Show session statistics and capabilities",
			Category:    "Conversation",
			Modes:       both,
			Handler:     handleStatus,
		},
		{
			Name:        "/export",
			Description: "Export the conversation to Markdown, JSON or YAML",
			Usage:       "/export [file.md|file.json|file.yaml]",
			Args:        []ArgDef{{Name: "file", Type: ArgTypeFile, Description: "Output file; format follows the extension"}},
			Category:    "Conversation",
			Modes:       both,
			Handler:     handleExport,
		},
		{
			Name:        "/quick",
			Description: "Send one of the starter prompts",
			Usage:       "/quick [1-5]",
			Args:        []ArgDef{{Name: "n", Type: ArgTypeEnum, Values: []string{"1", "2", "3", "4", "5"}, Description: "Prompt number"}},
			Category:    "Conversation",
			Modes:       jargon,
			Handler:     handleQuick,
		},
		{
			Name:        "/persona",
			Description: "Show or switch the persona",
			Usage:       "/persona [name]",
			Args:        []ArgDef{{Name: "name", Type: ArgTypePersona, Description: "Persona name"}},
			Category:    "Conversation",
			Modes:       character,
			Handler:     handlePersona,
		},

		// Model
		{
			Name:        "/models",
			Description: "List models installed in Ollama",
			Category:    "Model",
			Modes:       both,
			Handler:     handleModels,
		},
		{
			Name:        "/model",
			Aliases:     []string{"/m"},
			Description: "Show or switch the model",
			Usage:       "/model [name]",
			Args:        []ArgDef{{Name: "name", Type: ArgTypeModel, Description: "Model tag, e.g. gemma3:latest"}},
			Category:    "Model",
			Modes:       jargon,
			Handler:     handleModel,
		},

		// Settings
		{
			Name:        "/lang",
			Description: "Set the answer language",
			Usage:       "/lang <name|code>",
			Args:        []ArgDef{{Name: "language", Required: true, Type: ArgTypeLanguage, Description: "e.g. tamil, ta, pt-BR"}},
			Category:    "Settings",
			Modes:       jargon,
			Handler:     handleLang,
		},
		{
			Name:        "/think",
			Description: "Toggle the reasoning display",
			Category:    "Settings",
			Modes:       jargon,
			Handler:     handleThink,
		},
		{
			Name:        "/tts",
			Description: "Toggle reading answers aloud",
			Category:    "Settings",
			Modes:       jargon,
			Handler:     handleTTS,
		},

		// Capabilities
		{
			Name:        "/pdf",
			Description: "Load a PDF as document context",
			Usage:       "/pdf <file>",
			Args:        []ArgDef{{Name: "file", Required: true, Type: ArgTypeFile, Description: "PDF file"}},
			Category:    "Capabilities",
			Modes:       jargon,
			Handler:     handlePDF,
		},
		{
			Name:        "/clearpdf",
			Description: "Drop the loaded document",
			Category:    "Capabilities",
			Modes:       jargon,
			Handler:     handleClearPDF,
		},
		{
			Name:        "/voice",
			Aliases:     []string{"/v"},
			Description: "Record five seconds of speech into the input",
			Category:    "Capabilities",
			Modes:       jargon,
			Handler:     handleVoice,
		},
	}
}
