package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Model is a bubbletea model for picking one or several options from a list
type Model struct {
	title    string
	options  []string
	multi    bool
	cursor   int
	selected map[int]bool

	done      bool
	cancelled bool
	showHelp  bool
	width     int
}

// NewSelector creates a model that returns a single choice
func NewSelector(title string, options []string) *Model {
	return &Model{
		title:    title,
		options:  options,
		selected: make(map[int]bool),
	}
}

// NewMultiSelector creates a model where SPACE toggles options and ENTER
// confirms the marked set
func NewMultiSelector(title string, options []string) *Model {
	m := NewSelector(title, options)
	m.multi = true
	return m
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Cursor returns the index under the cursor
func (m *Model) Cursor() int {
	return m.cursor
}

// Done reports whether the user confirmed a choice
func (m *Model) Done() bool {
	return m.done
}

// Cancelled reports whether the user aborted the selection
func (m *Model) Cancelled() bool {
	return m.cancelled
}

// Chosen returns the confirmed indices in list order. A single selector
// returns exactly one index once done.
func (m *Model) Chosen() []int {
	if !m.done {
		return nil
	}
	if !m.multi {
		return []int{m.cursor}
	}
	chosen := []int{}
	for i := range m.options {
		if m.selected[i] {
			chosen = append(chosen, i)
		}
	}
	return chosen
}

func (m *Model) moveCursor(delta int) {
	if len(m.options) == 0 {
		return
	}
	m.cursor = (m.cursor + delta + len(m.options)) % len(m.options)
}

func (m *Model) toggle() {
	if !m.multi || len(m.options) == 0 {
		return
	}
	m.selected[m.cursor] = !m.selected[m.cursor]
}
