package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NeverVane/keepsake/internal/snippet"
)

func testSnippets() []snippet.Snippet {
	return []snippet.Snippet{
		{Template: "df -h", Description: "disk usage"},
		{Template: "docker ps -a", Description: "all containers"},
		{Template: "grep -rn {pattern} {dir}", Description: "recursive search"},
		{Template: "ls {dir}", Description: "list a directory"},
		{Template: "tar -czf {archive} {dir}", Description: "compress a directory"},
		{Template: "tools {name}", Description: "run a helper tool"},
	}
}

func templates(snippets []snippet.Snippet) []string {
	out := make([]string, len(snippets))
	for i, sn := range snippets {
		out[i] = sn.Template
	}
	return out
}

func TestMatcher_Match_ExactSubstring(t *testing.T) {
	m := NewMatcher(nil)

	matches, err := m.Match(testSnippets(), "ls")
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "ls {dir}", matches[0].Template, "verbatim term ranks first")
	assert.Contains(t, templates(matches), "tools {name}", "substring scan catches embedded hits")
}

func TestMatcher_Match_CaseInsensitive(t *testing.T) {
	m := NewMatcher(nil)

	matches, err := m.Match(testSnippets(), "LS")
	require.NoError(t, err)
	assert.Contains(t, templates(matches), "ls {dir}")
}

func TestMatcher_Match_Fuzzy(t *testing.T) {
	m := NewMatcher(nil)

	// One edit away from "docker".
	matches, err := m.Match(testSnippets(), "dockr")
	require.NoError(t, err)
	assert.Contains(t, templates(matches), "docker ps -a")
}

func TestMatcher_Match_DescriptionTerms(t *testing.T) {
	m := NewMatcher(nil)

	matches, err := m.Match(testSnippets(), "list directory")
	require.NoError(t, err)
	assert.Contains(t, templates(matches), "ls {dir}")
}

func TestMatcher_Match_PunctuationSubstring(t *testing.T) {
	m := NewMatcher(nil)

	matches, err := m.Match(testSnippets(), "-czf")
	require.NoError(t, err)
	assert.Contains(t, templates(matches), "tar -czf {archive} {dir}")

	matches, err = m.Match(testSnippets(), "s {d")
	require.NoError(t, err)
	assert.Contains(t, templates(matches), "ls {dir}")
}

func TestMatcher_Match_EmptyPatternMatchesAll(t *testing.T) {
	m := NewMatcher(nil)

	snippets := testSnippets()
	matches, err := m.Match(snippets, "")
	require.NoError(t, err)
	assert.Len(t, matches, len(snippets))
}

func TestMatcher_Match_NothingMatches(t *testing.T) {
	m := NewMatcher(nil)

	matches, err := m.Match(testSnippets(), "zzzzzz")
	require.NoError(t, err)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
}

func TestMatcher_Match_NoSnippets(t *testing.T) {
	m := NewMatcher(nil)

	matches, err := m.Match(nil, "ls")
	require.NoError(t, err)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
}

func TestMatcher_Match_NoDuplicates(t *testing.T) {
	m := NewMatcher(nil)

	// Hits both through Bleve terms and the substring scan; must appear
	// once.
	matches, err := m.Match(testSnippets(), "grep")
	require.NoError(t, err)

	count := 0
	for _, sn := range matches {
		if sn.Template == "grep -rn {pattern} {dir}" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestMatcher_Match_SingleSnippet(t *testing.T) {
	m := NewMatcher(nil)

	saved := []snippet.Snippet{{Template: "ls {dir}", Description: "list a directory"}}
	matches, err := m.Match(saved, "ls")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "ls {dir}", matches[0].Template)
	assert.Equal(t, "list a directory", matches[0].Description)
}
