// Package logging is the process-wide leveled logger. It writes through
// github.com/jcgregorio/logger to stderr unless redirected with Setup.
package logging

import (
	"os"
	"sync"

	"github.com/jcgregorio/logger"
)

// Logger is the subset of *logger.Logger the program uses.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

var (
	mu  sync.RWMutex
	std Logger = newLogger(os.Stderr, false)
)

func newLogger(w logger.SyncWriter, debug bool) Logger {
	return logger.NewFromOptions(&logger.Options{
		SyncWriter:   w,
		DepthDelta:   2,
		IncludeDebug: debug,
	})
}

// Setup sends log lines to w. Debug lines are dropped unless debug is set.
func Setup(w logger.SyncWriter, debug bool) {
	Set(newLogger(w, debug))
}

// Set replaces the process logger.
func Set(l Logger) {
	mu.Lock()
	defer mu.Unlock()
	std = l
}

// Discard silences all logging.
func Discard() {
	Setup(discard{}, false)
}

// OpenFile appends log lines to path and returns the file for closing.
func OpenFile(path string, debug bool) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	Setup(f, debug)
	return f, nil
}

func current() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return std
}

func Debugf(format string, args ...interface{})   { current().Debugf(format, args...) }
func Infof(format string, args ...interface{})    { current().Infof(format, args...) }
func Warningf(format string, args ...interface{}) { current().Warningf(format, args...) }
func Errorf(format string, args ...interface{})   { current().Errorf(format, args...) }

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
func (discard) Sync() error                 { return nil }
