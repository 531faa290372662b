package snippet

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// script is a Supplier that pops pre-baked answers and records which
// names were asked for.
type script struct {
	answers []string
	asked   []string
	err     error
}

func (s *script) Supply(name string) (string, error) {
	s.asked = append(s.asked, name)
	if s.err != nil {
		return "", s.err
	}
	if len(s.answers) == 0 {
		return "", fmt.Errorf("no scripted answer for %q", name)
	}
	val := s.answers[0]
	s.answers = s.answers[1:]
	return val, nil
}

func TestPlaceholders_AppearanceOrder(t *testing.T) {
	names := Placeholders("echo {name} is {age}")
	assert.Equal(t, []string{"name", "age"}, names)
}

func TestPlaceholders_DuplicatesPerOccurrence(t *testing.T) {
	names := Placeholders("scp {host}:{path} {host}:{path}.bak")
	assert.Equal(t, []string{"host", "path", "host", "path"}, names)
}

func TestPlaceholders_MalformedIsLiteral(t *testing.T) {
	cases := []struct {
		template string
		want     []string
	}{
		{"echo hello", nil},
		{"echo {}", nil},
		{"echo {two words}", nil},
		{"echo {unterminated", nil},
		{"echo }backwards{", nil},
		{"echo {ok} and {not ok} and {fine}", []string{"ok", "fine"}},
		{"echo {a{b}", []string{"b"}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Placeholders(tc.template), "template %q", tc.template)
	}
}

func TestBind_ConsumesArgsInOrder(t *testing.T) {
	sup := &script{}
	res, err := Bind("tar -czf {archive} {dir}", BindOptions{
		Args:   []string{"out.tgz", "src"},
		Supply: sup,
	})
	require.NoError(t, err)
	assert.Equal(t, "tar -czf out.tgz src", res.Command)
	assert.Equal(t, []Binding{{"archive", "out.tgz"}, {"dir", "src"}}, res.Bindings)
	assert.Empty(t, sup.asked, "all occurrences were covered by args")
	assert.Empty(t, res.Unbound)
}

func TestBind_ExcessArgsSilentlyIgnored(t *testing.T) {
	res, err := Bind("echo {msg}", BindOptions{Args: []string{"hi", "extra", "more"}})
	require.NoError(t, err)
	assert.Equal(t, "echo hi", res.Command)
}

func TestBind_PromptsExactlyForUncovered(t *testing.T) {
	sup := &script{answers: []string{"30"}}
	res, err := Bind("echo {name} is {age}", BindOptions{
		Args:   []string{"Alice"},
		Supply: sup,
	})
	require.NoError(t, err)
	assert.Equal(t, "echo Alice is 30", res.Command)
	assert.Equal(t, []string{"age"}, sup.asked)
}

func TestBind_PromptOrderFollowsAppearance(t *testing.T) {
	sup := &script{answers: []string{"1", "2", "3"}}
	res, err := Bind("go {a} {b} {c}", BindOptions{Supply: sup})
	require.NoError(t, err)
	assert.Equal(t, "go 1 2 3", res.Command)
	assert.Equal(t, []string{"a", "b", "c"}, sup.asked)
}

func TestBind_SafeLeavesLiteralPlaceholders(t *testing.T) {
	sup := &script{}
	res, err := Bind("echo {name} is {age}", BindOptions{
		Safe:   true,
		Supply: sup,
	})
	require.NoError(t, err)
	assert.Equal(t, "echo {name} is {age}", res.Command)
	assert.Empty(t, sup.asked, "safe mode must not prompt")
	assert.Equal(t, []string{"name", "age"}, res.Unbound)
}

func TestBind_SafeStillConsumesArgs(t *testing.T) {
	res, err := Bind("echo {name} is {age}", BindOptions{
		Args: []string{"Alice"},
		Safe: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "echo Alice is {age}", res.Command)
	assert.Equal(t, []string{"age"}, res.Unbound)
}

func TestBind_DuplicateNamesBindPerOccurrence(t *testing.T) {
	res, err := Bind("echo {x} {x}", BindOptions{Args: []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, "echo a b", res.Command)
	assert.Equal(t, []Binding{{"x", "a"}, {"x", "b"}}, res.Bindings)
}

func TestBind_AnnouncesArgBindingsBeforeLaterPrompts(t *testing.T) {
	var events []string
	sup := SupplierFunc(func(name string) (string, error) {
		events = append(events, "prompt:"+name)
		return "v", nil
	})
	_, err := Bind("cp {src} {dst}", BindOptions{
		Args:   []string{"a.txt"},
		Supply: sup,
		OnBound: func(name, value string) {
			events = append(events, fmt.Sprintf("bound:%s=%s", name, value))
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"bound:src=a.txt", "prompt:dst"}, events)
}

func TestBind_RoundTripLeavesNoDelimiters(t *testing.T) {
	template := "rsync -av {src}/ {host}:{dst}/ --exclude {pat}"
	names := Placeholders(template)
	require.Len(t, names, 4)

	args := make([]string, len(names))
	for i := range args {
		args[i] = fmt.Sprintf("v%d", i)
	}
	res, err := Bind(template, BindOptions{Args: args})
	require.NoError(t, err)
	assert.Empty(t, Placeholders(res.Command))
	assert.NotContains(t, res.Command, "{")
}

func TestBind_SupplierErrorAborts(t *testing.T) {
	boom := errors.New("terminal gone")
	sup := &script{err: boom}
	_, err := Bind("echo {msg}", BindOptions{Supply: sup})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestBind_MissingSupplierIsAnError(t *testing.T) {
	_, err := Bind("echo {msg}", BindOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "msg")
}

func TestBind_NoPlaceholders(t *testing.T) {
	res, err := Bind("uptime", BindOptions{Args: []string{"ignored"}})
	require.NoError(t, err)
	assert.Equal(t, "uptime", res.Command)
	assert.Empty(t, res.Bindings)
	assert.Empty(t, res.Unbound)
}
