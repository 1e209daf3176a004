package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func press(m *Model, msgs ...tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = m.Update(msg)
	}
	return cmd
}

var (
	down  = tea.KeyMsg{Type: tea.KeyDown}
	up    = tea.KeyMsg{Type: tea.KeyUp}
	space = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func TestSelectorMovesAndConfirms(t *testing.T) {
	m := NewSelector("Which target?", []string{"public profile", "hashtag", "single post"})

	press(m, down, down)
	assert.Equal(t, 2, m.Cursor())

	press(m, down)
	assert.Equal(t, 0, m.Cursor(), "cursor wraps around")

	press(m, up)
	assert.Equal(t, 2, m.Cursor())

	cmd := press(m, enter)
	require.NotNil(t, cmd)
	assert.True(t, m.Done())
	assert.Equal(t, []int{2}, m.Chosen())
	assert.Empty(t, m.View())
}

func TestSelectorIgnoresToggle(t *testing.T) {
	m := NewSelector("Which target?", []string{"a", "b"})
	press(m, space, enter)
	assert.Equal(t, []int{0}, m.Chosen())
}

func TestMultiSelectorToggles(t *testing.T) {
	m := NewMultiSelector("Which media?", []string{"pictures", "videos", "thumbnails"})

	press(m, space, down, down, space, down, space, space)
	assert.Nil(t, m.Chosen(), "nothing is chosen before confirmation")

	view := m.View()
	assert.Contains(t, view, "pictures")
	assert.Contains(t, view, "(x)")

	press(m, enter)
	assert.Equal(t, []int{2}, m.Chosen())
}

func TestMultiSelectorAllowsEmpty(t *testing.T) {
	m := NewMultiSelector("Which media?", []string{"pictures"})
	press(m, enter)
	assert.True(t, m.Done())
	assert.Equal(t, []int{}, m.Chosen())
}

func TestSelectorCancel(t *testing.T) {
	m := NewSelector("Which target?", []string{"a"})
	cmd := press(m, esc)
	require.NotNil(t, cmd)
	assert.True(t, m.Cancelled())
	assert.False(t, m.Done())
	assert.Nil(t, m.Chosen())
}

func TestHelpToggle(t *testing.T) {
	m := NewMultiSelector("Which media?", []string{"pictures"})
	assert.Contains(t, m.View(), "? for help")

	press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	assert.Contains(t, m.View(), "space mark")
}
