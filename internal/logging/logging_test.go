package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	lines []string
}

func (r *recorder) Debugf(f string, a ...interface{}) {
	r.lines = append(r.lines, "D "+fmt.Sprintf(f, a...))
}
func (r *recorder) Infof(f string, a ...interface{}) {
	r.lines = append(r.lines, "I "+fmt.Sprintf(f, a...))
}
func (r *recorder) Warningf(f string, a ...interface{}) {
	r.lines = append(r.lines, "W "+fmt.Sprintf(f, a...))
}
func (r *recorder) Errorf(f string, a ...interface{}) {
	r.lines = append(r.lines, "E "+fmt.Sprintf(f, a...))
}

func TestSet_RoutesEveryLevel(t *testing.T) {
	rec := &recorder{}
	Set(rec)
	defer Discard()

	Debugf("d %d", 1)
	Infof("i %s", "x")
	Warningf("w")
	Errorf("e %v", true)

	assert.Equal(t, []string{"D d 1", "I i x", "W w", "E e true"}, rec.lines)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	f, err := OpenFile(path, true)
	require.NoError(t, err)
	defer Discard()

	Infof("[*] score=%.4f", 0.8123)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "score=0.8123")
}
