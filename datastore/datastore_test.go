package datastore

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddGetDelete(t *testing.T) {
	ds, err := New(filepath.Join(t.TempDir(), "store.json"), zerolog.Nop())
	require.NoError(t, err)
	defer ds.Close()

	ds.Add("greeting", "hello")
	v, ok := ds.Get("greeting")
	require.True(t, ok)
	assert.Equal(t, "hello", v)

	ds.Delete("greeting")
	_, ok = ds.Get("greeting")
	assert.False(t, ok)
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")

	ds, err := New(path, zerolog.Nop())
	require.NoError(t, err)
	ds.Add("count", 42)
	require.NoError(t, ds.Close())

	reopened, err := New(path, zerolog.Nop())
	require.NoError(t, err)
	defer reopened.Close()

	v, ok := reopened.Get("count")
	require.True(t, ok)
	// numbers come back as float64 after the JSON round trip
	assert.EqualValues(t, 42, v)
}

func TestCloseIsIdempotentAndStopsWrites(t *testing.T) {
	ds, err := New(filepath.Join(t.TempDir(), "store.json"), zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, ds.Close())
	require.NoError(t, ds.Close())

	ds.Add("late", "write")
	_, ok := ds.Get("late")
	assert.False(t, ok)
}

func TestKeys(t *testing.T) {
	ds, err := New(filepath.Join(t.TempDir(), "store.json"), zerolog.Nop())
	require.NoError(t, err)
	defer ds.Close()

	ds.Add("a", 1)
	ds.Add("b", 2)
	assert.ElementsMatch(t, []string{"a", "b"}, ds.Keys())
}

func TestRejectsEmptyPath(t *testing.T) {
	_, err := New("", zerolog.Nop())
	assert.Error(t, err)
}
