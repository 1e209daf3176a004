package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	neonCyan    = lipgloss.Color("#00FFFF")
	neonMagenta = lipgloss.Color("#FF00FF")
	neonGreen   = lipgloss.Color("#39FF14")
	dimWhite    = lipgloss.Color("#B0B0B0")

	titleStyle = lipgloss.NewStyle().
			Foreground(neonCyan).
			Bold(true).
			MarginBottom(1)

	cursorStyle = lipgloss.NewStyle().
			Foreground(neonMagenta).
			Bold(true)

	itemStyle = lipgloss.NewStyle().
			Foreground(dimWhite).
			PaddingLeft(1)

	activeItemStyle = lipgloss.NewStyle().
			Foreground(neonCyan).
			Bold(true).
			PaddingLeft(1)

	markStyle = lipgloss.NewStyle().
			Foreground(neonGreen).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			MarginTop(1)
)
