package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/msto63/kinematics/foundation/kinematic/bindings"
	"github.com/msto63/kinematics/foundation/kinematic/value"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F9FAFB")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4B5563"))
)

// newTable returns a table with the common CLI look
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

// writeVariables prints vars as a table or encoded in a binding format
func writeVariables(w io.Writer, vars map[string]value.Value, format string) error {
	if strings.EqualFold(format, "table") || format == "" {
		if len(vars) == 0 {
			fmt.Fprintln(w, dimStyle.Render("(keine Variablen)"))
			return nil
		}
		t := newTable("VARIABLE", "WERT")
		for _, k := range bindings.SortedKeys(vars) {
			t.Row(k, vars[k].String())
		}
		fmt.Fprintln(w, t.Render())
		return nil
	}

	f, err := bindings.ParseFormat(format)
	if err != nil {
		return err
	}
	out, err := bindings.Encode(vars, f)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
