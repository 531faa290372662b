package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/NeverVane/keepsake/internal/logger"
)

// Executor runs a fully substituted command line. The default path
// parses the line as Bash syntax and interprets it in-process, which
// catches malformed commands before anything runs; the fallback hands
// the line to the system shell untouched.
type Executor struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	native bool
	shell  string
	logger *logger.Logger
}

// Options configures an Executor.
type Options struct {
	// Native selects the in-process interpreter. When false the line
	// runs via the shell untouched.
	Native bool

	// Shell is the binary used for the fallback path. Empty means sh.
	Shell string
}

// New creates an Executor attached to the process stdio.
func New(opts Options) *Executor {
	shell := opts.Shell
	if shell == "" {
		shell = "sh"
	}
	return &Executor{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		native: opts.Native,
		shell:  shell,
		logger: logger.GetLogger().WithComponent("executor"),
	}
}

// Run executes the command line and returns its exit status. A nonzero
// status from the command is not an error; err reports only failures
// to parse or launch the line.
func (e *Executor) Run(ctx context.Context, command string) (int, error) {
	if strings.TrimSpace(command) == "" {
		return 0, fmt.Errorf("empty command")
	}
	e.logger.Debug().Str("command", command).Bool("native", e.native).Msg("Executing command")
	if e.native {
		return e.runNative(ctx, command)
	}
	return e.runShell(ctx, command)
}

func (e *Executor) runNative(ctx context.Context, command string) (int, error) {
	parser := syntax.NewParser(syntax.Variant(syntax.LangBash))
	prog, err := parser.Parse(strings.NewReader(command), "")
	if err != nil {
		return 0, fmt.Errorf("parse command: %w", err)
	}

	runner, err := interp.New(
		interp.StdIO(e.stdin, e.stdout, e.stderr),
	)
	if err != nil {
		return 0, fmt.Errorf("create interpreter: %w", err)
	}

	if err := runner.Run(ctx, prog); err != nil {
		var status interp.ExitStatus
		if errors.As(err, &status) {
			return int(status), nil
		}
		return 0, fmt.Errorf("run command: %w", err)
	}
	return 0, nil
}

func (e *Executor) runShell(ctx context.Context, command string) (int, error) {
	cmd := exec.CommandContext(ctx, e.shell, "-c", command)
	cmd.Stdin = e.stdin
	cmd.Stdout = e.stdout
	cmd.Stderr = e.stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return 0, fmt.Errorf("run command: %w", err)
	}
	return 0, nil
}
