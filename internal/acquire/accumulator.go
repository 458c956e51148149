package acquire

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// ErrMalformedMessage is returned when a collected message closes but does
// not parse as JSON.
var ErrMalformedMessage = errors.New("malformed JSON message")

type State int

const (
	Idle State = iota
	Collecting
)

func (s State) String() string {
	if s == Collecting {
		return "collecting"
	}
	return "idle"
}

// Accumulator reassembles a JSON message split over several chunks.
type Accumulator struct {
	IgnorePrefixes []string

	state State
	buf   []byte
}

func NewAccumulator(ignore ...string) *Accumulator {
	return &Accumulator{IgnorePrefixes: ignore}
}

func (a *Accumulator) State() State { return a.state }

// Feed consumes one chunk. It returns the complete message once the buffer
// holds a closing brace and parses, and nil while more chunks are needed.
func (a *Accumulator) Feed(chunk []byte) ([]byte, error) {
	for _, p := range a.IgnorePrefixes {
		if p != "" && bytes.HasPrefix(chunk, []byte(p)) {
			return nil, nil
		}
	}

	switch a.state {
	case Idle:
		i := bytes.IndexByte(chunk, '{')
		if i < 0 {
			return nil, nil
		}
		a.state = Collecting
		a.buf = append(a.buf[:0], chunk[i:]...)
	case Collecting:
		a.buf = append(a.buf, chunk...)
	}

	if bytes.IndexByte(a.buf, '}') < 0 {
		return nil, nil
	}

	msg := a.buf
	a.Reset()
	if !json.Valid(msg) {
		return nil, errors.Wrapf(ErrMalformedMessage, "%d bytes", len(msg))
	}
	return msg, nil
}

// Reset drops any partial message.
func (a *Accumulator) Reset() {
	a.state = Idle
	a.buf = nil
}
