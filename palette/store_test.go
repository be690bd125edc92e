package palette

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "palettes.json"))
}

func TestStoreLoadMissingFile(t *testing.T) {
	names, pals, err := testStore(t).Load()
	require.NoError(t, err)
	assert.Empty(t, names)
	assert.Empty(t, pals)
}

func TestStoreAppendAndLoad(t *testing.T) {
	s := testStore(t)
	first := Palette{{R: 1, G: 2, B: 3}}
	second := Palette{{R: 9, G: 8, B: 7}, {R: 6, G: 5, B: 4}}

	require.NoError(t, s.Append("sunset", first))
	require.NoError(t, s.Append("ocean", second))

	names, pals, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"sunset", "ocean"}, names)
	assert.Equal(t, []Palette{first, second}, pals)
}

func TestStoreRejectsDuplicateName(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.Append("dup", Palette{{R: 1}}))

	err := s.Append("dup", Palette{{R: 2}})
	require.Error(t, err)

	// The rejected append must not have touched the stored palette.
	names, pals, loadErr := s.Load()
	require.NoError(t, loadErr)
	require.Equal(t, []string{"dup"}, names)
	assert.Equal(t, Palette{{R: 1}}, pals[0])
}

func TestStoreRejectsEmptyPalette(t *testing.T) {
	s := testStore(t)
	assert.Error(t, s.Append("empty", nil))
	_, err := os.Stat(s.Path)
	assert.True(t, os.IsNotExist(err), "rejected append must not create the store file")
}

func TestStoreRejectsCorruptFile(t *testing.T) {
	s := testStore(t)
	require.NoError(t, os.WriteFile(s.Path, []byte("{broken"), 0o644))
	_, _, err := s.Load()
	assert.Error(t, err)
}
