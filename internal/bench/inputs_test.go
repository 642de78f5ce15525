package bench

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInputs(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".inp"), []byte("<sim/>"), 0644))
	}
	return dir
}

func TestList(t *testing.T) {
	dir := writeInputs(t, "shock_tube", "advection", "advection_2d")

	names, err := List(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"advection", "advection_2d", "shock_tube"}, names)
}

func TestList_Empty(t *testing.T) {
	names, err := List(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestInputFile_Exact(t *testing.T) {
	dir := writeInputs(t, "advection", "advection_2d")

	path, err := InputFile(dir, "advection")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "advection.inp"), path)
}

func TestInputFile_UniquePrefix(t *testing.T) {
	dir := writeInputs(t, "advection", "shock_tube")

	path, err := InputFile(dir, "shock")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "shock_tube.inp"), path)
}

func TestInputFile_Ambiguous(t *testing.T) {
	dir := writeInputs(t, "advection", "advection_2d")

	_, err := InputFile(dir, "adv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous")
}

func TestInputFile_Unknown(t *testing.T) {
	dir := writeInputs(t, "advection")

	_, err := InputFile(dir, "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown benchmark")
}
