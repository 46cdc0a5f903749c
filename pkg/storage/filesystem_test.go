package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save("classes/7a.json", []byte(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, "classes/7a.json", name)

	data, err := store.Read("classes/7a.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(data))

	_, err = store.Save("classes/7a.json", []byte(`{"a":2}`))
	require.NoError(t, err)
	data, err = store.Read("classes/7a.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":2}`, string(data))

	entries, err := os.ReadDir(filepath.Dir(store.Path("classes/7a.json")))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")

	require.NoError(t, store.Delete("classes/7a.json"))
	require.NoError(t, store.Delete("classes/7a.json"))
	_, err = store.Read("classes/7a.json")
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestLocalStorageRejectsEscapingPaths(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("../outside.json", []byte("x"))
	assert.Error(t, err)
	_, err = store.Save("/etc/passwd", []byte("x"))
	assert.Error(t, err)
	_, err = store.Read("..")
	assert.Error(t, err)
}

func TestLocalStorageList(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	names, err := store.List("classes", ".json")
	require.NoError(t, err)
	assert.Empty(t, names)

	_, _ = store.Save("classes/b.json", []byte("{}"))
	_, _ = store.Save("classes/a.json", []byte("{}"))
	_, _ = store.Save("classes/notes.txt", []byte("x"))

	names, err = store.List("classes", ".json")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.json", "b.json"}, names)
}
