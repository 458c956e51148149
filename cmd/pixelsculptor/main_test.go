package main

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/pixelsculptor/internal/config"
	"github.com/ivlev/pixelsculptor/internal/engine"
	"github.com/ivlev/pixelsculptor/internal/history"
	"github.com/ivlev/pixelsculptor/internal/output"
	"github.com/ivlev/pixelsculptor/internal/report"
)

func writeImage(t *testing.T, path string, w, h int, seed uint8) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x*9) + seed, uint8(y * 11), seed, 255})
		}
	}
	require.NoError(t, output.Save(img, path))
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	blockSize, threshold, workers = config.DefaultBlockSize, config.DefaultAcceptThreshold, 0
	configPath, logFile, debug = "", filepath.Join(t.TempDir(), "test.log"), false
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(os.Stderr)
	return root.Execute()
}

func TestSetup_FlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("block_size: 16\naccept_threshold: 0.5\nworkers: 2\n"), 0644))
	a, b := filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png")
	writeImage(t, a, 8, 8, 1)
	writeImage(t, b, 8, 8, 1)

	require.NoError(t, execute(t, "--config", cfgPath, "--block-size", "4", "score", a, b))
	assert.Equal(t, 4, cfg.BlockSize)
	assert.Equal(t, 0.5, cfg.AcceptThreshold)
	assert.Equal(t, 2, cfg.Workers)
}

func TestSetup_RejectsBadThreshold(t *testing.T) {
	err := execute(t, "--threshold", "2", "history", "--db", filepath.Join(t.TempDir(), "h.db"))
	assert.ErrorIs(t, err, config.ErrInvalidConfiguration)
}

func TestScore_ShapeMismatch(t *testing.T) {
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png")
	writeImage(t, a, 8, 8, 0)
	writeImage(t, b, 9, 8, 0)
	assert.Error(t, execute(t, "score", a, b))
}

func TestRun_WritesOutputReportAndHistory(t *testing.T) {
	dir := t.TempDir()
	src, tgt := filepath.Join(dir, "src.png"), filepath.Join(dir, "tgt.png")
	out, rep, db := filepath.Join(dir, "out", "result.png"), filepath.Join(dir, "run.yaml"), filepath.Join(dir, "h.db")
	writeImage(t, src, 24, 16, 5)
	writeImage(t, tgt, 12, 8, 60)

	cfgPath := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("history_db: "+db+"\n"), 0644))

	require.NoError(t, execute(t, "--config", cfgPath, "run", "--source", src, "--target", tgt, "--output", out, "--report", rep))

	_, err := os.Stat(out)
	require.NoError(t, err)

	r, err := report.Read(rep)
	require.NoError(t, err)
	assert.True(t, r.Resized)
	assert.Equal(t, report.Size{Width: 12, Height: 8}, r.TargetSize)
	assert.Equal(t, out, r.Output)

	store, err := history.Open(db)
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.Recent(t.Context(), 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, r.ID, runs[0].ID)
}

func TestRun_Batch(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	writeImage(t, filepath.Join(in, "one.png"), 10, 10, 1)
	writeImage(t, filepath.Join(in, "two.bmp"), 10, 10, 2)
	tgt := filepath.Join(dir, "tgt.png")
	writeImage(t, tgt, 10, 10, 3)
	out := filepath.Join(dir, "out")

	require.NoError(t, execute(t, "--workers", "2", "run", "--source", in, "--target", tgt, "--output", out))

	for _, name := range []string{"001_one.png", "002_two.png"} {
		_, err := os.Stat(filepath.Join(out, name))
		assert.NoError(t, err, name)
	}
}

func TestRun_BatchKeepsSameNamedSources(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	writeImage(t, filepath.Join(in, "a.png"), 8, 8, 1)
	writeImage(t, filepath.Join(in, "a.bmp"), 8, 8, 2)
	tgt := filepath.Join(dir, "tgt.png")
	writeImage(t, tgt, 8, 8, 3)
	out := filepath.Join(dir, "out")
	db := filepath.Join(dir, "h.db")
	cfgPath := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("history_db: "+db+"\n"), 0644))

	require.NoError(t, execute(t, "--config", cfgPath, "run", "--source", in, "--target", tgt, "--output", out))

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	store, err := history.Open(db)
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.Recent(t.Context(), 5)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.NotEqual(t, runs[0].Output, runs[1].Output)
}

func TestBatchOutputPath(t *testing.T) {
	a := batchOutputPath("out", engine.BatchItem{Index: 0, Name: "a"})
	b := batchOutputPath("out", engine.BatchItem{Index: 1, Name: "a"})
	assert.Equal(t, filepath.Join("out", "001_a.png"), a)
	assert.NotEqual(t, a, b)
}
