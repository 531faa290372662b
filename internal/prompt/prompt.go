package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"golang.org/x/term"

	"github.com/NeverVane/keepsake/internal/logger"
	"github.com/NeverVane/keepsake/internal/snippet"
)

// Prompter is the interactive surface commands talk to. Keeping it an
// interface means the binding engine and command flows can run against
// scripted answers in tests.
type Prompter interface {
	snippet.Supplier

	// Input asks for free text. An empty answer yields def.
	Input(label, def string) (string, error)

	// Confirm asks a yes/no question. Enter accepts def; declining is
	// an answer, not an error.
	Confirm(label string, def bool) (bool, error)
}

// Console is the terminal Prompter. On a TTY it renders promptui
// prompts; when stdin is not a terminal it degrades to plain line
// reads so piped input still works.
type Console struct {
	tty       bool
	allowEdit bool
	in        *bufio.Reader
	out       io.Writer
	logger    *logger.Logger
}

// NewConsole creates a Console wired to the process stdin/stdout.
// allowEdit controls whether defaults render as editable text or get
// replaced on the first keystroke.
func NewConsole(allowEdit bool) *Console {
	return &Console{
		tty:       term.IsTerminal(int(os.Stdin.Fd())),
		allowEdit: allowEdit,
		in:        bufio.NewReader(os.Stdin),
		out:       os.Stdout,
		logger:    logger.GetLogger().WithComponent("prompt"),
	}
}

// Supply asks for the value of one placeholder occurrence.
func (c *Console) Supply(name string) (string, error) {
	label := fmt.Sprintf("Enter value for '%s'", name)
	if !c.tty {
		return c.readLine(label + ": ")
	}
	p := promptui.Prompt{Label: label}
	val, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("prompt for %q aborted: %w", name, err)
	}
	return val, nil
}

// Input asks for free text, offering def as the editable default.
func (c *Console) Input(label, def string) (string, error) {
	if !c.tty {
		val, err := c.readLine(label + ": ")
		if err != nil {
			return "", err
		}
		if val == "" {
			return def, nil
		}
		return val, nil
	}
	p := promptui.Prompt{
		Label:     label,
		Default:   def,
		AllowEdit: c.allowEdit,
	}
	val, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("prompt aborted: %w", err)
	}
	return val, nil
}

// Confirm asks label as a yes/no question, re-asking on anything that
// is not y/yes/n/no/empty. Interrupt and end of input count as a
// decline so an aborted prompt never executes anything.
func (c *Console) Confirm(label string, def bool) (bool, error) {
	suffix := " [y/N]"
	if def {
		suffix = " [Y/n]"
	}
	for {
		var answer string
		var err error
		if c.tty {
			p := promptui.Prompt{Label: label + suffix}
			answer, err = p.Run()
			if err != nil {
				if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
					return false, nil
				}
				return false, fmt.Errorf("confirmation failed: %w", err)
			}
		} else {
			answer, err = c.readLine(label + suffix + ": ")
			if err != nil {
				if errors.Is(err, io.EOF) {
					return false, nil
				}
				return false, err
			}
		}

		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
	}
}

// readLine is the non-TTY path: print the label, take one line.
func (c *Console) readLine(label string) (string, error) {
	fmt.Fprint(c.out, label)
	line, err := c.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
