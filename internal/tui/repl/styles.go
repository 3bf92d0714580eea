// ============================================================================
// kinematics - Kinematic Program Interpreter
// ============================================================================
//
// Package:     repl
// Description: Colors and styles of the REPL view
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package repl

import "github.com/charmbracelet/lipgloss"

type theme struct {
	logo, version lipgloss.Style

	section, lineNo, line, badLine lipgloss.Style

	varName, varValue, varChanged lipgloss.Style

	panel, input, statusBar lipgloss.Style

	ok, failed, running lipgloss.Style

	help, key, muted lipgloss.Style
}

// styles is the theme used by View
var styles = newTheme()

func newTheme() theme {
	var (
		violet = lipgloss.Color("#8B5CF6")
		cyan   = lipgloss.Color("#06B6D4")
		green  = lipgloss.Color("#10B981")
		amber  = lipgloss.Color("#F59E0B")
		red    = lipgloss.Color("#EF4444")
		border = lipgloss.Color("#374151")
		bar    = lipgloss.Color("#1E293B")
		text   = lipgloss.Color("#F8FAFC")
		muted  = lipgloss.Color("#94A3B8")
		dim    = lipgloss.Color("#64748B")
	)
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	boxed := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(c).Padding(0, 1)
	}

	return theme{
		logo:    fg(violet).Bold(true),
		version: fg(muted).Italic(true),

		section: fg(cyan).Bold(true),
		lineNo:  fg(dim),
		line:    fg(text),
		badLine: fg(red).Bold(true),

		// values line up in one column
		varName:    fg(violet).Bold(true).Width(8),
		varValue:   fg(text),
		varChanged: fg(green).Bold(true),

		panel:     boxed(border),
		input:     boxed(violet),
		statusBar: fg(text).Background(bar).Padding(0, 1),

		ok:      fg(green).Bold(true),
		failed:  fg(red).Bold(true),
		running: fg(amber).Bold(true),

		help:  fg(muted),
		key:   fg(violet).Bold(true),
		muted: fg(muted),
	}
}

func (t theme) keyHint(key, desc string) string {
	return t.key.Render(key) + " " + t.muted.Render(desc)
}
