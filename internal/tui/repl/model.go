// ============================================================================
// kinematics - Kinematic Program Interpreter
// ============================================================================
//
// Package:     repl
// Description: Bubbletea model for editing and running programs line by line
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package repl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/msto63/kinematics/foundation/kinematic"
	"github.com/msto63/kinematics/foundation/kinematic/bindings"
	"github.com/msto63/kinematics/foundation/kinematic/parser"
	"github.com/msto63/kinematics/foundation/kinematic/value"
	"github.com/msto63/kinematics/pkg/core/version"
)

// Config holds REPL configuration
type Config struct {
	// Variables every run starts from
	Initial map[string]value.Value

	// Program lines loaded at start
	Program []string

	MaxSteps int
	Timeout  time.Duration
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		MaxSteps: 1_000_000,
		Timeout:  5 * time.Second,
	}
}

// Model is the Bubbletea model of the REPL
type Model struct {
	// State
	width   int
	height  int
	ready   bool
	running bool
	err     error

	// Components
	input    textinput.Model
	viewport viewport.Model

	// Program state
	lines      []string
	initial    map[string]value.Value
	vars       map[string]value.Value
	generation int
	duration   time.Duration

	// Input history for up/down recall
	history    []string
	historyPos int

	config Config
}

// New creates a new REPL model
func New(cfg Config) Model {
	ti := textinput.New()
	ti.Placeholder = "z.B. Q1=SQRT(P1*P1+P2*P2)"
	ti.Prompt = "› "
	ti.CharLimit = 256
	ti.Focus()

	initial := make(map[string]value.Value, len(cfg.Initial))
	for k, v := range cfg.Initial {
		initial[k] = v
	}

	m := Model{
		input:   ti,
		lines:   append([]string(nil), cfg.Program...),
		initial: initial,
		vars:    initial,
		config:  cfg,
	}
	if len(m.lines) > 0 {
		m.generation = 1
		m.running = true
	}
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.running {
		cmds = append(cmds, m.runCmd())
	}
	return tea.Batch(cmds...)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if model, cmd, handled := m.handleKeyPress(msg); handled {
			return model, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 2 // Title + blank line
		footerHeight := 6 // Input box + status bar + help
		viewportHeight := msg.Height - headerHeight - footerHeight - 2
		if viewportHeight < 3 {
			viewportHeight = 3
		}

		if !m.ready {
			m.viewport = viewport.New(msg.Width-4, viewportHeight)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 4
			m.viewport.Height = viewportHeight
		}
		m.input.Width = msg.Width - 8
		m.updateViewportContent()

	case evalResultMsg:
		// Results of superseded runs are dropped
		if msg.generation != m.generation {
			return m, nil
		}
		m.running = false
		m.duration = msg.duration
		m.err = msg.err
		if msg.err == nil {
			m.vars = msg.vars
		}
		m.updateViewportContent()
		m.viewport.GotoBottom()
	}

	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleKeyPress handles the REPL key bindings. Keys it does not handle go
// to the text input.
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit, true

	case tea.KeyEnter:
		line := strings.TrimSpace(m.input.Value())
		if line == "" {
			return m, nil, true
		}
		m.input.Reset()
		m.history = append(m.history, line)
		m.historyPos = len(m.history)

		// A line that cannot be tokenised never becomes valid, so it is rejected
		if _, err := parser.Lex(append(m.Lines(), line)); err != nil {
			m.err = err
			m.updateViewportContent()
			return m, nil, true
		}
		m.lines = append(m.lines, line)
		cmd := m.evaluate()
		return m, cmd, true

	case tea.KeyCtrlD:
		if len(m.lines) == 0 {
			return m, nil, true
		}
		m.lines = m.lines[:len(m.lines)-1]
		cmd := m.evaluate()
		return m, cmd, true

	case tea.KeyCtrlR:
		m.lines = nil
		m.vars = m.initial
		m.err = nil
		m.duration = 0
		m.generation++
		m.running = false
		m.updateViewportContent()
		return m, nil, true

	case tea.KeyUp:
		if m.historyPos > 0 {
			m.historyPos--
			m.input.SetValue(m.history[m.historyPos])
			m.input.CursorEnd()
		}
		return m, nil, true

	case tea.KeyDown:
		if m.historyPos < len(m.history)-1 {
			m.historyPos++
			m.input.SetValue(m.history[m.historyPos])
			m.input.CursorEnd()
		} else {
			m.historyPos = len(m.history)
			m.input.Reset()
		}
		return m, nil, true

	case tea.KeyPgUp:
		m.viewport.ViewUp()
		return m, nil, true

	case tea.KeyPgDown:
		m.viewport.ViewDown()
		return m, nil, true
	}

	return m, nil, false
}

// evaluate re-runs the whole program against the initial variables
func (m *Model) evaluate() tea.Cmd {
	m.generation++
	m.running = true
	m.updateViewportContent()
	return m.runCmd()
}

// runCmd runs the current program in the background
func (m Model) runCmd() tea.Cmd {
	generation := m.generation
	lines := append([]string(nil), m.lines...)
	initial := m.initial
	cfg := m.config

	return func() tea.Msg {
		start := time.Now()
		result := evalResultMsg{generation: generation}

		program, err := kinematic.Compile(lines, kinematic.Options{MaxSteps: cfg.MaxSteps})
		if err != nil {
			result.err = err
			result.duration = time.Since(start)
			return result
		}

		ctx := context.Background()
		if cfg.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()
		}

		result.vars, result.err = program.Run(ctx, initial)
		result.duration = time.Since(start)
		return result
	}
}

// View renders the UI
func (m Model) View() string {
	if !m.ready {
		return "Lade REPL..."
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(styles.panel.Width(m.width - 2).Render(m.viewport.View()))
	b.WriteString("\n")
	b.WriteString(styles.input.Width(m.width - 2).Render(m.input.View()))
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")
	b.WriteString(m.renderHelpBar())

	return b.String()
}

func (m Model) renderHeader() string {
	return lipgloss.JoinHorizontal(lipgloss.Center,
		styles.logo.Render("kinematics REPL"),
		"   ",
		styles.version.Render("v"+version.CLI),
	)
}

func (m Model) renderStatusBar() string {
	var left string
	switch {
	case m.running:
		left = styles.running.Render("● läuft...")
	case m.err != nil:
		left = styles.failed.Render("✗ " + m.err.Error())
	default:
		left = styles.ok.Render("✓ ok")
	}

	right := styles.muted.Render(fmt.Sprintf("%d Zeilen  %d Variablen  %s",
		len(m.lines), len(m.vars), m.duration.Round(time.Microsecond)))

	space := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 4
	if space < 1 {
		space = 1
	}
	return styles.statusBar.Width(m.width - 2).Render(left + strings.Repeat(" ", space) + right)
}

func (m Model) renderHelpBar() string {
	items := []string{
		styles.keyHint("Enter", "Zeile ausführen"),
		styles.keyHint("↑/↓", "Verlauf"),
		styles.keyHint("Ctrl+D", "Letzte Zeile löschen"),
		styles.keyHint("Ctrl+R", "Zurücksetzen"),
		styles.keyHint("Esc", "Beenden"),
	}
	return styles.help.Render(strings.Join(items, "  "))
}

// updateViewportContent renders the program listing and the variable table
func (m *Model) updateViewportContent() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderContent())
}

func (m Model) renderContent() string {
	var content strings.Builder

	errLine := errorLine(m.err)

	content.WriteString(styles.section.Render("Programm"))
	content.WriteString("\n")
	if len(m.lines) == 0 {
		content.WriteString(styles.muted.Render("  (leer)"))
		content.WriteString("\n")
	}
	for i, line := range m.lines {
		num := styles.lineNo.Render(fmt.Sprintf("%3d ", i+1))
		if i+1 == errLine {
			content.WriteString(num + styles.badLine.Render(line))
		} else {
			content.WriteString(num + styles.line.Render(line))
		}
		content.WriteString("\n")
	}

	content.WriteString("\n")
	content.WriteString(styles.section.Render("Variablen"))
	content.WriteString("\n")
	if len(m.vars) == 0 {
		content.WriteString(styles.muted.Render("  (keine)"))
		content.WriteString("\n")
	}
	for _, key := range bindings.SortedKeys(m.vars) {
		v := m.vars[key]
		valueStyle := styles.varValue
		if orig, ok := m.initial[key]; !ok || !orig.Equal(v) {
			valueStyle = styles.varChanged
		}
		content.WriteString("  " + styles.varName.Render(key) + valueStyle.Render(v.String()))
		content.WriteString("\n")
	}

	return content.String()
}

// errorLine returns the program line an error refers to, or 0
func errorLine(err error) int {
	var lexErr *parser.LexError
	if errors.As(err, &lexErr) {
		return lexErr.Line
	}
	var parseErr *parser.ParseError
	if errors.As(err, &parseErr) {
		return parseErr.Line
	}
	return 0
}

// Lines returns the current program lines
func (m Model) Lines() []string {
	return append([]string(nil), m.lines...)
}

// Variables returns the variables of the last successful run
func (m Model) Variables() map[string]value.Value {
	return m.vars
}

// Err returns the error of the last run, if any
func (m Model) Err() error {
	return m.err
}

// Run starts the REPL
func Run(cfg Config) error {
	p := tea.NewProgram(New(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
