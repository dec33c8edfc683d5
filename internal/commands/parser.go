// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"slices"
	"strings"
	"unicode"
)

// ParseResult is one line of input split into a command and its arguments.
type ParseResult struct {
	IsCommand bool

	// Command is nil when CommandName matches nothing in the registry.
	Command *Command

	// CommandName is lowercased, e.g. "/lang".
	CommandName string

	Args    []string
	RawArgs string
}

// Parser resolves command lines against a registry.
type Parser struct {
	registry *Registry
}

func NewParser(registry *Registry) *Parser {
	return &Parser{registry: registry}
}

// Parse splits input into a command name and quoted-aware arguments.
// Input without a leading slash is not a command.
func (p *Parser) Parse(input string) ParseResult {
	name := ExtractCommandName(input)
	if name == "" {
		return ParseResult{}
	}

	rest := strings.TrimSpace(strings.TrimSpace(input)[len(name):])
	res := ParseResult{
		IsCommand:   true,
		CommandName: strings.ToLower(name),
		RawArgs:     rest,
		Args:        splitCommandLine(rest),
	}
	if p.registry != nil {
		res.Command = p.registry.Get(res.CommandName)
	}
	return res
}

// =============================================================================
// TOKENIZER
// =============================================================================

// tokenizer splits on unquoted whitespace. Inside quotes a backslash
// escapes a quote or another backslash; an explicit "" yields an empty
// token.
type tokenizer struct {
	tokens  []string
	buf     strings.Builder
	quote   rune
	pending bool
}

func (t *tokenizer) emit() {
	if t.buf.Len() > 0 || t.pending {
		t.tokens = append(t.tokens, t.buf.String())
	}
	t.buf.Reset()
	t.pending = false
}

func splitCommandLine(input string) []string {
	var t tokenizer
	runes := []rune(input)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case t.quote == 0 && (r == '"' || r == '\''):
			t.quote, t.pending = r, true
		case t.quote == 0 && unicode.IsSpace(r):
			t.emit()
		case t.quote == 0:
			t.buf.WriteRune(r)
		case r == t.quote:
			t.quote = 0
		case r == '\\' && i+1 < len(runes) && strings.ContainsRune(`"'\`, runes[i+1]):
			i++
			t.buf.WriteRune(runes[i])
		default:
			t.buf.WriteRune(r)
		}
	}
	t.emit()
	return t.tokens
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// IsCommand returns true if the input appears to be a command.
func IsCommand(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), "/")
}

// ExtractCommandName extracts just the command name from input.
// e.g., "/model gemma3" -> "/model"
func ExtractCommandName(input string) string {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return ""
	}
	end := strings.IndexFunc(input, unicode.IsSpace)
	if end == -1 {
		return input
	}
	return input[:end]
}

// ValidateArgs checks required arguments and enum values against the
// command's definition.
func ValidateArgs(cmd *Command, args []string) error {
	if cmd == nil {
		return nil
	}

	for i, def := range cmd.Args {
		if i >= len(args) {
			if def.Required {
				return &ValidationError{Command: cmd, Arg: def.Name, Message: "missing " + def.Name}
			}
			continue
		}
		if def.Type != ArgTypeEnum || len(def.Values) == 0 {
			continue
		}
		ok := slices.ContainsFunc(def.Values, func(v string) bool {
			return strings.EqualFold(args[i], v)
		})
		if !ok {
			return &ValidationError{
				Command: cmd,
				Arg:     def.Name,
				Message: def.Name + " must be one of " + strings.Join(def.Values, ", "),
				Got:     args[i],
			}
		}
	}
	return nil
}

// ValidationError reports a bad argument, with the command's usage line.
type ValidationError struct {
	Command *Command
	Arg     string
	Message string
	Got     string
}

func (e *ValidationError) Error() string {
	msg := e.Command.Name + ": " + e.Message
	if e.Got != "" {
		msg += " (got: " + e.Got + ")"
	}
	if e.Command.Usage != "" {
		msg += "\nusage: " + e.Command.Usage
	}
	return msg
}
