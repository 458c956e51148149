// Package report persists the outcome of one transport run as YAML.
package report

import (
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Size is an image's pixel dimensions.
type Size struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Timings records per-stage wall time.
type Timings struct {
	Resize    time.Duration `yaml:"resize"`
	Transport time.Duration `yaml:"transport"`
	Validate  time.Duration `yaml:"validate"`
}

func (t Timings) Total() time.Duration { return t.Resize + t.Transport + t.Validate }

type Report struct {
	ID         string    `yaml:"id"`
	StartedAt  time.Time `yaml:"started_at"`
	FinishedAt time.Time `yaml:"finished_at"`
	Source     string    `yaml:"source"`
	Target     string    `yaml:"target"`
	SourceSize Size      `yaml:"source_size"`
	TargetSize Size      `yaml:"target_size"`
	BlockSize  int       `yaml:"block_size"`
	Threshold  float64   `yaml:"threshold"`
	Score      float64   `yaml:"score"`
	Passed     bool      `yaml:"passed"`
	Resized    bool      `yaml:"resized"`
	Output     string    `yaml:"output,omitempty"`
	Timings    Timings   `yaml:"timings"`
}

// New starts a report with a fresh run ID.
func New(source, target string) *Report {
	return &Report{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Source:    source,
		Target:    target,
	}
}

// Write writes a report to a YAML file
func Write(r *Report, path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "marshal report")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0644), "writing %s", path)
}

// Read reads a report from a YAML file
func Read(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return &r, nil
}
