package prompt

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipeConsole builds a Console in the non-TTY degradation mode, fed
// from canned input.
func pipeConsole(input string) (*Console, *bytes.Buffer) {
	out := &bytes.Buffer{}
	c := NewConsole(true)
	c.tty = false
	c.in = bufio.NewReader(strings.NewReader(input))
	c.out = out
	return c, out
}

func TestConsole_Supply_ReadsLine(t *testing.T) {
	c, out := pipeConsole("30\n")

	val, err := c.Supply("age")
	require.NoError(t, err)
	assert.Equal(t, "30", val)
	assert.Contains(t, out.String(), "Enter value for 'age'")
}

func TestConsole_Supply_LastLineWithoutNewline(t *testing.T) {
	c, _ := pipeConsole("final")

	val, err := c.Supply("arg")
	require.NoError(t, err)
	assert.Equal(t, "final", val)
}

func TestConsole_Supply_EOFIsAnError(t *testing.T) {
	c, _ := pipeConsole("")

	_, err := c.Supply("age")
	assert.Error(t, err)
}

func TestConsole_Input_EmptyTakesDefault(t *testing.T) {
	c, _ := pipeConsole("\n")

	val, err := c.Input("Description", "list files")
	require.NoError(t, err)
	assert.Equal(t, "list files", val)
}

func TestConsole_Input_AnswerWins(t *testing.T) {
	c, _ := pipeConsole("show disk usage\n")

	val, err := c.Input("Description", "old")
	require.NoError(t, err)
	assert.Equal(t, "show disk usage", val)
}

func TestConsole_Confirm_EnterAcceptsDefault(t *testing.T) {
	c, out := pipeConsole("\n")

	ok, err := c.Confirm("Execute", true)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, out.String(), "[Y/n]")

	c, out = pipeConsole("\n")
	ok, err = c.Confirm("Execute", false)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, out.String(), "[y/N]")
}

func TestConsole_Confirm_Answers(t *testing.T) {
	for input, want := range map[string]bool{
		"y\n":   true,
		"Y\n":   true,
		"yes\n": true,
		"n\n":   false,
		"no\n":  false,
	} {
		c, _ := pipeConsole(input)
		ok, err := c.Confirm("Execute", true)
		require.NoError(t, err, "input %q", input)
		assert.Equal(t, want, ok, "input %q", input)
	}
}

func TestConsole_Confirm_ReasksOnGarbage(t *testing.T) {
	c, _ := pipeConsole("maybe\nlater\nn\n")

	ok, err := c.Confirm("Execute", true)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConsole_Confirm_EOFDeclines(t *testing.T) {
	c, _ := pipeConsole("")

	ok, err := c.Confirm("Execute", true)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestScript_RecordsAndAnswers(t *testing.T) {
	s := &Script{
		Values:   []string{"v1"},
		Inputs:   []string{"typed"},
		Confirms: []bool{false},
	}

	val, err := s.Supply("name")
	require.NoError(t, err)
	assert.Equal(t, "v1", val)
	assert.Equal(t, []string{"name"}, s.Asked)

	_, err = s.Supply("again")
	assert.Error(t, err, "exhausted script must refuse, not invent")

	in, err := s.Input("Command", "def")
	require.NoError(t, err)
	assert.Equal(t, "typed", in)

	in, err = s.Input("Command", "def")
	require.NoError(t, err)
	assert.Equal(t, "def", in, "exhausted inputs fall back to the default")

	ok, err := s.Confirm("Execute", true)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Confirm("Execute", true)
	require.NoError(t, err)
	assert.True(t, ok, "exhausted confirms fall back to the default")
}
