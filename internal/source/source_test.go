package source

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func writePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestImageSource_Directory(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "b.png"), 2, 3, color.White)
	writePNG(t, filepath.Join(dir, "a.png"), 4, 5, color.Black)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0644))

	src, err := Open(dir, 72)
	require.NoError(t, err)
	defer src.Close()

	require.Equal(t, 2, src.Count())
	assert.Equal(t, "a", src.Name(0))
	assert.Equal(t, "b", src.Name(1))

	img, err := src.Load(0)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
}

func TestLoadImage_BMP(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.bmp")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, bmp.Encode(f, image.NewRGBA(image.Rect(0, 0, 7, 3))))
	require.NoError(t, f.Close())

	img, err := LoadImage(path, 72)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 7, 3), img.Bounds())
}

func TestLoadImage_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadImage(filepath.Join(dir, "missing.png"), 72)
	assert.Error(t, err)

	_, err = LoadImage(dir, 72)
	assert.ErrorContains(t, err, "contains no images")

	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not a png"), 0644))
	_, err = LoadImage(bad, 72)
	assert.ErrorContains(t, err, "decoding")
}
