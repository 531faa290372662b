package executor

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExecutor(native bool) (*Executor, *bytes.Buffer) {
	out := &bytes.Buffer{}
	e := New(Options{Native: native})
	e.stdin = strings.NewReader("")
	e.stdout = out
	e.stderr = out
	return e, out
}

func TestExecutor_Run_Native(t *testing.T) {
	e, out := newTestExecutor(true)

	code, err := e.Run(context.Background(), "echo hello world")
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "hello world\n", out.String())
}

func TestExecutor_Run_NativeNonzeroStatusIsNotAnError(t *testing.T) {
	e, _ := newTestExecutor(true)

	code, err := e.Run(context.Background(), "exit 3")
	require.NoError(t, err)
	assert.Equal(t, 3, code)
}

func TestExecutor_Run_NativeParseErrorBeforeExecution(t *testing.T) {
	e, out := newTestExecutor(true)

	_, err := e.Run(context.Background(), "echo ((( oops")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse command")
	assert.Empty(t, out.String(), "nothing may run when the line does not parse")
}

func TestExecutor_Run_NativePipeline(t *testing.T) {
	e, out := newTestExecutor(true)

	code, err := e.Run(context.Background(), "printf 'a\\nb\\n' | wc -l")
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "2", strings.TrimSpace(out.String()))
}

func TestExecutor_Run_ShellFallback(t *testing.T) {
	e, out := newTestExecutor(false)

	code, err := e.Run(context.Background(), "echo via-shell")
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "via-shell\n", out.String())
}

func TestExecutor_Run_ShellFallbackExitCode(t *testing.T) {
	e, _ := newTestExecutor(false)

	code, err := e.Run(context.Background(), "exit 7")
	require.NoError(t, err)
	assert.Equal(t, 7, code)
}

func TestExecutor_Run_EmptyCommand(t *testing.T) {
	e, _ := newTestExecutor(true)

	_, err := e.Run(context.Background(), "   ")
	assert.Error(t, err)
}
