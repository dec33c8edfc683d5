// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/gemmabots/internal/bot"
	"github.com/jeranaias/gemmabots/internal/commands"
	"github.com/jeranaias/gemmabots/internal/model"
	"github.com/jeranaias/gemmabots/internal/session"
	"github.com/jeranaias/gemmabots/internal/ui/components"
	"github.com/jeranaias/gemmabots/internal/ui/styles"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a chat model. Mode selects the bot; only the bot and
// session of that mode need to be set.
type Options struct {
	Mode commands.Mode

	Character        *bot.CharacterBot
	CharacterSession *session.CharacterSession
	CharacterModel   string

	Jargon        *bot.JargonBot
	JargonSession *session.JargonSession

	// Models lists installed models for /models and completion.
	Models commands.ModelLister

	// ExportDir receives /export files written without a path.
	ExportDir string

	Theme *styles.Theme
	Log   *slog.Logger
}

// =============================================================================
// NOTES
// =============================================================================

type noteKind int

const (
	noteInfo noteKind = iota
	noteNotice
	noteError
)

// note is a system line shown between conversation messages. at is the
// history length when it was added.
type note struct {
	at   int
	text string
	kind noteKind
}

// modelCache holds the installed model names for argument completion.
type modelCache struct {
	mu    sync.RWMutex
	names []string
}

func (c *modelCache) set(names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names = names
}

func (c *modelCache) get() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.names...)
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model of the chat screen.
type Model struct {
	mode commands.Mode
	ctx  context.Context
	log  *slog.Logger

	// Bots and sessions
	character     *bot.CharacterBot
	characterSess *session.CharacterSession
	jargon        *bot.JargonBot
	jargonSess    *session.JargonSession

	// Slash commands
	registry   *commands.Registry
	completer  *commands.Completer
	completion *commands.CompletionState
	popup      *components.CompletionPopup
	env        *commands.Context
	models     *modelCache

	// Components
	theme    *styles.Theme
	keys     KeyMap
	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model
	markdown *glamour.TermRenderer

	// Conversation state
	notes     []note
	pending   string
	busy      bool
	busyLabel string
	status    string

	// Running jargon turn
	turn *bot.Turn
	live bot.Delta

	// Layout
	width       int
	height      int
	ready       bool
	showSidebar bool
	dirty       bool
	mdWidth     int
}

// New creates a chat model for the bot selected by opts.Mode.
func New(opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme()
	}
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	mode := opts.Mode
	if mode == "" {
		mode = commands.ModeJargon
	}

	ta := textarea.New()
	ta.Placeholder = placeholder(mode)
	ta.ShowLineNumbers = false
	ta.Prompt = "│ "
	ta.CharLimit = 8192
	ta.SetHeight(inputHeight)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))
	ta.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	registry := commands.NewRegistry(mode)
	cache := &modelCache{}
	completer := commands.NewCompleter(registry)
	completer.ModelsFn = cache.get

	env := &commands.Context{
		Models:         opts.Models,
		CharacterModel: opts.CharacterModel,
		ExportDir:      opts.ExportDir,
	}
	if mode == commands.ModeCharacter {
		env.Character = opts.CharacterSession
	} else {
		env.Jargon = opts.JargonSession
		env.JargonBot = opts.Jargon
	}

	return Model{
		mode:          mode,
		ctx:           context.Background(),
		log:           log,
		character:     opts.Character,
		characterSess: opts.CharacterSession,
		jargon:        opts.Jargon,
		jargonSess:    opts.JargonSession,
		registry:      registry,
		completer:     completer,
		completion:    commands.NewCompletionState(),
		popup:         components.NewCompletionPopup(theme),
		env:           env,
		models:        cache,
		theme:         theme,
		keys:          DefaultKeyMap(),
		viewport:      vp,
		input:         ta,
		spinner:       sp,
		showSidebar:   true,
		dirty:         true,
	}
}

const inputHeight = 3

func placeholder(mode commands.Mode) string {
	if mode == commands.ModeCharacter {
		return "Say hi, or ask for Iron Man, Naruto or Sherlock... (/help)"
	}
	return "Paste jargon to decode, or /quick 1... (/help)"
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the cursor and fetches the installed models.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink}
	if m.env.Models != nil {
		cmds = append(cmds, listModelsCmd(m.ctx, m.env.Models))
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := m.update(msg)
	m.layout()
	return m, cmd
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Busy reports whether a turn or command is running.
func (m Model) Busy() bool {
	return m.busy
}

// Status returns the status line of the last turn.
func (m Model) Status() string {
	return m.status
}

// Input returns the current input text.
func (m Model) Input() string {
	return m.input.Value()
}

// history returns the conversation of the active session.
func (m Model) history() *model.History {
	if m.mode == commands.ModeCharacter {
		if m.characterSess == nil {
			return model.NewHistory()
		}
		return m.characterSess.History
	}
	if m.jargonSess == nil {
		return model.NewHistory()
	}
	return m.jargonSess.History
}

func (m *Model) addNote(kind noteKind, text string) {
	m.notes = append(m.notes, note{at: m.history().Len(), text: text, kind: kind})
	m.dirty = true
}

// elapsed formats a turn duration for the status line.
func elapsed(d time.Duration) string {
	return d.Round(100 * time.Millisecond).String()
}
