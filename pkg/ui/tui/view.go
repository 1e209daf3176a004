package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// View renders the option list
func (m *Model) View() string {
	if m.done || m.cancelled {
		return ""
	}

	lines := []string{titleStyle.Render(m.title)}

	for i, option := range m.options {
		pointer := "  "
		style := itemStyle
		if i == m.cursor {
			pointer = cursorStyle.Render("> ")
			style = activeItemStyle
		}

		mark := ""
		if m.multi {
			mark = "( ) "
			if m.selected[i] {
				mark = markStyle.Render("(x) ")
			}
		}

		lines = append(lines, pointer+mark+style.Render(option))
	}

	lines = append(lines, m.renderHelp())

	view := lipgloss.JoinVertical(lipgloss.Left, lines...)
	if m.width > 0 {
		view = lipgloss.NewStyle().MaxWidth(m.width).Render(view)
	}
	return view + "\n"
}

func (m *Model) renderHelp() string {
	bindings := []key.Binding{keys.Up, keys.Down}
	if m.multi {
		bindings = append(bindings, keys.Toggle)
	}
	bindings = append(bindings, keys.Confirm, keys.Quit)

	if !m.showHelp {
		return helpStyle.Render("? for help")
	}

	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return helpStyle.Render(strings.Join(parts, " • "))
}
