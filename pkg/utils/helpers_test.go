package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInSlice(t *testing.T) {
	assert.True(t, InSlice("b", []string{"a", "b"}))
	assert.False(t, InSlice("c", []string{"a", "b"}))
	assert.False(t, InSlice("a", nil))
}

func TestListDirSkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.avi"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0755))

	names, err := ListDir(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.avi"}, names)

	_, err = ListDir(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestEnsureDirs(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "data", "uploads")
	require.NoError(t, EnsureDirs("", nested, nested))

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestIsVideoFile(t *testing.T) {
	assert.True(t, IsVideoFile("match.MP4"))
	assert.True(t, IsVideoFile("a.b.avi"))
	assert.False(t, IsVideoFile("notes.txt"))
	assert.False(t, IsVideoFile("mp4"))
}

func TestSafeBase(t *testing.T) {
	assert.Equal(t, "clip.mp4", SafeBase("../../etc/clip.mp4"))
	assert.Equal(t, "clip.mp4", SafeBase(`C:\videos\clip.mp4`))
	assert.Equal(t, "", SafeBase(".."))
	assert.Equal(t, "", SafeBase(""))
}
