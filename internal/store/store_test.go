package store

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NeverVane/keepsake/internal/snippet"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return New(Options{
		Fs:   afero.NewMemMapFs(),
		Path: "/data/keepsake/snippets.json",
	})
}

func TestFileStore_SaveAndList(t *testing.T) {
	st := newTestStore(t)

	updated, err := st.Save(snippet.Snippet{Template: "ls {dir}", Description: "list a directory"})
	require.NoError(t, err)
	assert.False(t, updated)

	updated, err = st.Save(snippet.Snippet{Template: "df -h", Description: "disk usage"})
	require.NoError(t, err)
	assert.False(t, updated)

	snippets, err := st.List()
	require.NoError(t, err)
	require.Len(t, snippets, 2)
	assert.Equal(t, "df -h", snippets[0].Template)
	assert.Equal(t, "ls {dir}", snippets[1].Template)
	assert.Equal(t, "list a directory", snippets[1].Description)
}

func TestFileStore_SaveOverwritesDescription(t *testing.T) {
	st := newTestStore(t)

	_, err := st.Save(snippet.Snippet{Template: "ls {dir}", Description: "old"})
	require.NoError(t, err)

	updated, err := st.Save(snippet.Snippet{Template: "ls {dir}", Description: "new"})
	require.NoError(t, err)
	assert.True(t, updated)

	snippets, err := st.List()
	require.NoError(t, err)
	require.Len(t, snippets, 1)
	assert.Equal(t, "new", snippets[0].Description)
}

func TestFileStore_SaveRejectsInvalidSnippet(t *testing.T) {
	st := newTestStore(t)

	_, err := st.Save(snippet.Snippet{Template: "", Description: "x"})
	assert.Error(t, err)

	_, err = st.Save(snippet.Snippet{Template: "  padded  ", Description: "x"})
	assert.Error(t, err)
}

func TestFileStore_ListAbsentStore(t *testing.T) {
	st := newTestStore(t)

	_, err := st.List()
	assert.ErrorIs(t, err, ErrNoStore)
}

func TestFileStore_RemoveAbsentStore(t *testing.T) {
	st := newTestStore(t)

	err := st.Remove("ls {dir}")
	assert.ErrorIs(t, err, ErrNoStore)
}

func TestFileStore_RemoveMissingKey(t *testing.T) {
	st := newTestStore(t)

	_, err := st.Save(snippet.Snippet{Template: "ls {dir}", Description: "list"})
	require.NoError(t, err)

	err = st.Remove("rm -rf {dir}")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "rm -rf {dir}")
}

func TestFileStore_RemoveLastEntryEmptiesStore(t *testing.T) {
	st := newTestStore(t)

	_, err := st.Save(snippet.Snippet{Template: "ls {dir}", Description: "list"})
	require.NoError(t, err)
	require.NoError(t, st.Remove("ls {dir}"))

	_, err = st.List()
	assert.ErrorIs(t, err, ErrNoStore)
}

func TestFileStore_DocumentIsFlatJSON(t *testing.T) {
	fs := afero.NewMemMapFs()
	st := New(Options{Fs: fs, Path: "/data/snippets.json"})

	_, err := st.Save(snippet.Snippet{Template: "ls {dir}", Description: "list a directory"})
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, "/data/snippets.json")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"ls {dir}": "list a directory"`)

	// The temp file used for atomic publication must not linger.
	exists, err := afero.Exists(fs, "/data/snippets.json.tmp")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFileStore_LoadRejectsMalformedDocument(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/snippets.json", []byte("not json"), 0644))

	st := New(Options{Fs: fs, Path: "/data/snippets.json"})
	_, err := st.List()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse snippet store")
}
