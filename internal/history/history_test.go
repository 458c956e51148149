package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/pixelsculptor/internal/report"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func run(id string, started time.Time, score float64) *report.Report {
	return &report.Report{
		ID:         id,
		StartedAt:  started,
		FinishedAt: started.Add(time.Second),
		Source:     "src.png",
		Target:     "tgt.png",
		TargetSize: report.Size{Width: 64, Height: 48},
		BlockSize:  8,
		Threshold:  0.7,
		Score:      score,
		Passed:     score >= 0.7,
		Timings:    report.Timings{Transport: 25 * time.Millisecond},
	}
}

func TestRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Record(ctx, run("a", base, 0.5)))
	require.NoError(t, s.Record(ctx, run("b", base.Add(time.Minute), 0.9)))
	require.NoError(t, s.Record(ctx, run("c", base.Add(2*time.Minute), 0.75)))

	runs, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)

	b := runs[1]
	assert.True(t, b.Passed)
	assert.InDelta(t, 0.9, b.Score, 1e-12)
	assert.Equal(t, 64, b.Width)
	assert.Equal(t, 25*time.Millisecond, b.Elapsed)
	assert.True(t, base.Add(time.Minute).Equal(b.StartedAt))
}

func TestRecord_ReplacesSameID(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	now := time.Now().UTC()

	require.NoError(t, s.Record(ctx, run("x", now, 0.1)))
	require.NoError(t, s.Record(ctx, run("x", now, 0.8)))

	runs, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].Passed)
}

func TestRecent_Empty(t *testing.T) {
	runs, err := openTemp(t).Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
