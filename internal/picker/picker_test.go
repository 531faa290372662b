package picker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NeverVane/keepsake/internal/snippet"
)

func TestPick_EmptySet(t *testing.T) {
	_, err := Pick(nil, "choose")
	assert.Error(t, err)
}

func TestPick_SingleSnippetNeedsNoInteraction(t *testing.T) {
	idx, err := Pick([]snippet.Snippet{{Template: "ls {dir}"}}, "choose")
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
}

func TestSnippetItem_ListContract(t *testing.T) {
	it := snippetItem{sn: snippet.Snippet{Template: "ls {dir}", Description: "list a directory"}}

	assert.Equal(t, "ls {dir}", it.FilterValue())
	assert.Contains(t, it.Title(), "$ ls {dir}")
	assert.Contains(t, it.Description(), "list a directory")
}

func TestNewModel_StartsUnchosen(t *testing.T) {
	m := newModel([]snippet.Snippet{{Template: "a"}, {Template: "b"}}, "choose")

	assert.Equal(t, -1, m.choice)
	assert.False(t, m.aborted)
	assert.Equal(t, "choose", m.list.Title)
	assert.Len(t, m.list.Items(), 2)
}
