package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"

	"igharvest/pkg/ui/tui"
)

// DateLayout is the format accepted by Date and DateRange
const DateLayout = "2006-01-02"

// Default is the answer YesNo assumes for an empty reply
type Default int

const (
	NoDefault Default = iota
	DefaultYes
	DefaultNo
)

const yesNoHint = "Please respond with 'yes' or 'no' (or 'y' or 'n')."

// ErrCancelled is returned when the user aborts a selector
var ErrCancelled = tui.ErrCancelled

var answers = map[string]bool{
	"yes": true,
	"y":   true,
	"ye":  true,
	"no":  false,
	"n":   false,
}

// Prompter asks questions on out and reads answers from in. Every method
// loops until the answer is valid and only fails when input runs out.
type Prompter struct {
	in       io.Reader
	reader   *bufio.Reader
	out      io.Writer
	terminal bool
	fd       int
}

// New creates a line based prompter. Selectors fall back to numbered menus.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:     in,
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// NewTerminal creates a prompter on stdin/stdout that uses the interactive
// selector and hides passwords when stdin is a terminal
func NewTerminal() *Prompter {
	p := New(os.Stdin, os.Stdout)
	p.fd = int(os.Stdin.Fd())
	p.terminal = term.IsTerminal(p.fd)
	return p
}

func (p *Prompter) printf(format string, args ...interface{}) {
	fmt.Fprintf(p.out, format, args...)
}

// Println writes a message line between questions
func (p *Prompter) Println(msg string) {
	fmt.Fprintln(p.out, msg)
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", fmt.Errorf("reading answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// YesNo asks question until the reply is yes, y, ye, no or n (any case).
// An empty reply returns def unless def is NoDefault.
func (p *Prompter) YesNo(question string, def Default) (bool, error) {
	suffix := " [y/n] "
	switch def {
	case DefaultYes:
		suffix = " [Y/n] "
	case DefaultNo:
		suffix = " [y/N] "
	}

	for {
		p.printf("%s%s", question, suffix)
		line, err := p.readLine()
		if err != nil {
			return false, err
		}

		choice := strings.ToLower(line)
		if choice == "" && def != NoDefault {
			return def == DefaultYes, nil
		}
		if answer, ok := answers[choice]; ok {
			return answer, nil
		}
		p.printf("%s\n", yesNoHint)
	}
}

// Text asks question until the reply is not empty
func (p *Prompter) Text(question string) (string, error) {
	for {
		p.printf("%s ", question)
		line, err := p.readLine()
		if err != nil {
			return "", err
		}
		if line != "" {
			return line, nil
		}
	}
}

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// Date asks for a YYYY-MM-DD date and returns midnight UTC of that day
func (p *Prompter) Date(question string) (time.Time, error) {
	for {
		p.printf("%s (YYYY-MM-DD) ", question)
		line, err := p.readLine()
		if err != nil {
			return time.Time{}, err
		}
		if d, err := parseDate(line); err == nil {
			return d, nil
		}
		p.printf("Invalid date %q, please use YYYY-MM-DD.\n", line)
	}
}

// DateRange asks for a since and an until date. Both are asked again when
// either one is invalid.
func (p *Prompter) DateRange() (since, until time.Time, err error) {
	for {
		p.printf("Since when? (YYYY-MM-DD) ")
		rawSince, err := p.readLine()
		if err != nil {
			return since, until, err
		}
		p.printf("Until when? (YYYY-MM-DD) ")
		rawUntil, err := p.readLine()
		if err != nil {
			return since, until, err
		}

		s, errSince := parseDate(rawSince)
		u, errUntil := parseDate(rawUntil)
		if errSince == nil && errUntil == nil {
			return s, u, nil
		}
		p.printf("Invalid dates, please use YYYY-MM-DD for both.\n")
	}
}

// PositiveInt asks question until the reply is a whole number above zero
func (p *Prompter) PositiveInt(question string) (int, error) {
	for {
		p.printf("%s ", question)
		line, err := p.readLine()
		if err != nil {
			return 0, err
		}
		if n, err := strconv.Atoi(line); err == nil && n > 0 {
			return n, nil
		}
		p.printf("Please enter a positive whole number.\n")
	}
}

// Password reads a secret without echo when attached to a terminal
func (p *Prompter) Password(question string) (string, error) {
	p.printf("%s ", question)

	if p.terminal {
		secret, err := term.ReadPassword(p.fd)
		p.printf("\n")
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(secret), nil
	}

	line, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Select returns the index of one of options
func (p *Prompter) Select(title string, options []string) (int, error) {
	if p.terminal {
		return tui.Select(title, options, p.in, p.out)
	}

	p.printMenu(title, options)
	for {
		p.printf("Choose a number: ")
		line, err := p.readLine()
		if err != nil {
			return -1, err
		}
		if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		p.printf("Please choose a number from 1 to %d.\n", len(options))
	}
}

// MultiSelect returns the indices of the options the user marked, in list
// order. Choosing nothing is allowed.
func (p *Prompter) MultiSelect(title string, options []string) ([]int, error) {
	if p.terminal {
		return tui.MultiSelect(title, options, p.in, p.out)
	}

	p.printMenu(title, options)
	for {
		p.printf("Numbers separated by commas (empty for none): ")
		line, err := p.readLine()
		if err != nil {
			return nil, err
		}
		if chosen, ok := parseSelection(line, len(options)); ok {
			return chosen, nil
		}
		p.printf("Please choose numbers from 1 to %d.\n", len(options))
	}
}

func (p *Prompter) printMenu(title string, options []string) {
	p.printf("%s\n", title)
	for i, option := range options {
		p.printf("  %d) %s\n", i+1, option)
	}
}

func parseSelection(line string, n int) ([]int, bool) {
	marked := make([]bool, n)
	for _, field := range strings.Split(line, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		i, err := strconv.Atoi(field)
		if err != nil || i < 1 || i > n {
			return nil, false
		}
		marked[i-1] = true
	}

	chosen := []int{}
	for i, m := range marked {
		if m {
			chosen = append(chosen, i)
		}
	}
	return chosen, true
}
