package tui

import (
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrCancelled is returned when the user aborts a selection
var ErrCancelled = errors.New("selection cancelled")

// Select shows options and returns the index the user confirmed
func Select(title string, options []string, in io.Reader, out io.Writer) (int, error) {
	chosen, err := run(NewSelector(title, options), in, out)
	if err != nil {
		return -1, err
	}
	return chosen[0], nil
}

// MultiSelect shows options and returns the marked indices, possibly none
func MultiSelect(title string, options []string, in io.Reader, out io.Writer) ([]int, error) {
	return run(NewMultiSelector(title, options), in, out)
}

func run(model *Model, in io.Reader, out io.Writer) ([]int, error) {
	if len(model.options) == 0 {
		return nil, fmt.Errorf("nothing to select for %q", model.title)
	}

	program := tea.NewProgram(model, tea.WithInput(in), tea.WithOutput(out))
	final, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("selector failed: %w", err)
	}

	m, ok := final.(*Model)
	if !ok || m.Cancelled() || !m.Done() {
		return nil, ErrCancelled
	}
	return m.Chosen(), nil
}
