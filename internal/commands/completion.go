// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"cmp"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jeranaias/gemmabots/internal/capability"
	"github.com/jeranaias/gemmabots/internal/persona"
	"github.com/jeranaias/gemmabots/internal/util"
)

// Ranking bonuses. Shorter candidates rank above longer ones otherwise.
const (
	exactBonus     = 1000
	directoryBonus = 500
	aliasPenalty   = 10
	maxFileResults = 20
)

// Completion is one candidate shown in the completion list.
type Completion struct {
	Value       string
	Display     string
	Description string
	Score       int
}

// =============================================================================
// COMPLETER
// =============================================================================

// Completer completes slash commands and their arguments for both the TUI
// and the line editor.
type Completer struct {
	registry *Registry

	// ModelsFn returns the installed models. Set by the front-end.
	ModelsFn func() []string
}

// NewCompleter creates a completer over the registry's commands.
func NewCompleter(registry *Registry) *Completer {
	return &Completer{registry: registry}
}

// Complete returns the candidates for the text before the cursor, best
// first. Text that is not a command has none.
func (c *Completer) Complete(input string) []Completion {
	input = strings.TrimLeft(input, " \t")
	if !IsCommand(input) {
		return nil
	}

	words := splitCommandLine(input)
	typingName := len(words) == 1 && !strings.HasSuffix(input, " ")
	if typingName {
		return c.commandNames(strings.ToLower(words[0]))
	}

	cmd := c.registry.Get(strings.ToLower(words[0]))
	if cmd == nil {
		return nil
	}
	args := words[1:]
	if strings.HasSuffix(input, " ") {
		args = append(args, "")
	}
	return c.argValues(cmd, len(args)-1, args[len(args)-1])
}

// Lines adapts Complete to line editors, which replace the whole line.
// Values with spaces are quoted so they parse back as one argument.
func (c *Completer) Lines(line string) []string {
	var head string
	if cut := strings.LastIndexByte(line, ' '); cut >= 0 {
		head = line[:cut+1]
	}

	var lines []string
	for _, comp := range c.Complete(line) {
		v := comp.Value
		if head != "" && strings.Contains(v, " ") {
			v = `"` + v + `"`
		}
		lines = append(lines, head+v)
	}
	return lines
}

func (c *Completer) commandNames(partial string) []Completion {
	var out []Completion
	for _, cmd := range c.registry.All() {
		if strings.HasPrefix(cmd.Name, partial) {
			out = append(out, Completion{
				Value:       cmd.Name,
				Display:     cmd.Name,
				Description: cmd.Description,
				Score:       rank(cmd.Name, partial),
			})
		}
		if partial == "/" {
			continue
		}
		for _, alias := range cmd.Aliases {
			if strings.HasPrefix(alias, partial) {
				out = append(out, Completion{
					Value:       alias,
					Display:     alias + " -> " + cmd.Name,
					Description: cmd.Description,
					Score:       rank(alias, partial) - aliasPenalty,
				})
			}
		}
	}
	return sorted(out)
}

func (c *Completer) argValues(cmd *Command, index int, partial string) []Completion {
	if index < 0 || index >= len(cmd.Args) {
		return nil
	}

	arg := cmd.Args[index]
	switch arg.Type {
	case ArgTypeEnum:
		return fromList(arg.Values, partial)
	case ArgTypePersona:
		return fromList(persona.Names(), partial)
	case ArgTypeLanguage:
		langs := capability.Languages()
		names := make([]string, len(langs))
		for i, l := range langs {
			names[i] = strings.ToLower(l.Name)
		}
		return fromList(names, partial)
	case ArgTypeModel:
		if c.ModelsFn != nil {
			return fromList(c.ModelsFn(), partial)
		}
	case ArgTypeFile:
		return filePaths(partial)
	}
	return nil
}

// =============================================================================
// CANDIDATE SOURCES
// =============================================================================

func fromList(values []string, partial string) []Completion {
	var out []Completion
	for _, v := range values {
		if hasFoldPrefix(v, partial) {
			out = append(out, Completion{Value: v, Display: v, Score: rank(v, partial)})
		}
	}
	return sorted(out)
}

// filePaths lists entries of the directory partial points into. Hidden
// entries only show once the typed name starts with a dot.
func filePaths(partial string) []Completion {
	dir, name := filepath.Split(partial)
	entries, err := os.ReadDir(cmp.Or(dir, "."))
	if err != nil {
		return nil
	}

	var out []Completion
	for _, e := range entries {
		if !hasFoldPrefix(e.Name(), name) {
			continue
		}
		if strings.HasPrefix(e.Name(), ".") && !strings.HasPrefix(name, ".") {
			continue
		}

		comp := Completion{
			Value:   dir + e.Name(),
			Display: e.Name(),
			Score:   rank(e.Name(), name),
		}
		if e.IsDir() {
			comp.Value += string(os.PathSeparator)
			comp.Description = "directory"
			comp.Score += directoryBonus
		} else if info, err := e.Info(); err == nil {
			comp.Description = util.FormatBytes(info.Size())
		}
		out = append(out, comp)
	}

	out = sorted(out)
	if len(out) > maxFileResults {
		out = out[:maxFileResults]
	}
	return out
}

// =============================================================================
// RANKING
// =============================================================================

func hasFoldPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// rank scores value against what was typed; higher is better.
func rank(value, partial string) int {
	if strings.EqualFold(value, partial) {
		return exactBonus + exactBonus
	}
	return exactBonus - len(value)
}

// sorted orders by score, then alphabetically.
func sorted(comps []Completion) []Completion {
	slices.SortStableFunc(comps, func(a, b Completion) int {
		return cmp.Or(cmp.Compare(b.Score, a.Score), strings.Compare(a.Value, b.Value))
	})
	return comps
}

// =============================================================================
// COMPLETION NAVIGATION
// =============================================================================

// CompletionState tracks the visible candidates and the selected one.
type CompletionState struct {
	Completions []Completion
	Selected    int
	Visible     bool
}

// NewCompletionState creates an empty state with nothing selected.
func NewCompletionState() *CompletionState {
	return &CompletionState{Selected: -1}
}

// Update replaces the candidates and selects the first one.
func (cs *CompletionState) Update(completions []Completion) {
	cs.Completions = completions
	cs.Selected = 0
	cs.Visible = len(completions) > 0
}

// Next selects the following candidate, wrapping around.
func (cs *CompletionState) Next() { cs.step(1) }

// Prev selects the preceding candidate, wrapping around.
func (cs *CompletionState) Prev() { cs.step(-1) }

func (cs *CompletionState) step(d int) {
	if n := len(cs.Completions); n > 0 {
		cs.Selected = ((cs.Selected+d)%n + n) % n
	}
}

// Accept returns the selected value, or "" when nothing is selected.
func (cs *CompletionState) Accept() string {
	if cs.Selected < 0 || cs.Selected >= len(cs.Completions) {
		return ""
	}
	return cs.Completions[cs.Selected].Value
}

// Clear hides the list and drops the candidates.
func (cs *CompletionState) Clear() {
	*cs = CompletionState{Selected: -1}
}
