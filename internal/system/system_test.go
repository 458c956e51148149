package system

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsImagePath(t *testing.T) {
	assert.True(t, IsImagePath("a/b/c.PNG"))
	assert.True(t, IsImagePath("x.jpeg"))
	assert.True(t, IsImagePath("x.webp"))
	assert.False(t, IsImagePath("x.pdf"))
	assert.False(t, IsImagePath("noext"))
}

func TestFindLatestImage(t *testing.T) {
	dir := t.TempDir()
	files := []string{"a.png", "b.jpg", "c.png", "notes.txt"}
	for i, f := range files {
		p := filepath.Join(dir, f)
		require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
		mod := time.Now().Add(time.Duration(i) * time.Hour)
		require.NoError(t, os.Chtimes(p, mod, mod))
	}

	latest, err := FindLatestImage(dir)
	require.NoError(t, err)
	// notes.txt is newest but is not an image.
	assert.Equal(t, filepath.Join(dir, "c.png"), latest)

	fromFile, err := FindLatestImage(filepath.Join(dir, "a.png"))
	require.NoError(t, err)
	assert.Equal(t, latest, fromFile)
}

func TestFindLatestImage_Empty(t *testing.T) {
	_, err := FindLatestImage(t.TempDir())
	require.Error(t, err)
}

func TestDefaultWorkers_Positive(t *testing.T) {
	assert.Positive(t, DefaultWorkers())
}

func TestScratch_Reset(t *testing.T) {
	s := GetScratch(64)
	defer PutScratch(s)

	assert.Len(t, s.SrcLuma, 64)
	assert.Len(t, s.TgtRank, 64)
	assert.Len(t, s.Pix, 192)

	s.Reset(4)
	assert.Len(t, s.SrcRank, 4)
	assert.GreaterOrEqual(t, cap(s.SrcRank), 64)
}
