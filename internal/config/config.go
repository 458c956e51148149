package config

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBlockSize       = 8
	DefaultAcceptThreshold = 0.70
	DefaultResample        = "bilinear"
	DefaultMQTTTimeout     = 30 * time.Second
	DefaultDPI             = 150
)

// ErrInvalidConfiguration is matched by every *InvalidConfigurationError.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// InvalidConfigurationError lists every configuration value that failed
// validation.
type InvalidConfigurationError struct {
	Errs *multierror.Error
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidConfiguration, e.Errs.Error())
}

func (e *InvalidConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

func (e *InvalidConfigurationError) Unwrap() error {
	return e.Errs
}

type Config struct {
	BlockSize       int     `yaml:"block_size"`
	AcceptThreshold float64 `yaml:"accept_threshold"`
	Workers         int     `yaml:"workers"`
	Resample        string  `yaml:"resample"`
	DPI             int     `yaml:"dpi"`

	Target    string `yaml:"target"`
	Output    string `yaml:"output"`
	Report    string `yaml:"report"`
	HistoryDB string `yaml:"history_db"`
	ShowStats bool   `yaml:"show_stats"`

	MQTT MQTTConfig `yaml:"mqtt"`
}

type MQTTConfig struct {
	Broker         string        `yaml:"broker"`
	Topic          string        `yaml:"topic"`
	ClientID       string        `yaml:"client_id"`
	QoS            byte          `yaml:"qos"`
	Timeout        time.Duration `yaml:"timeout"`
	Chunked        bool          `yaml:"chunked"`
	IgnorePrefixes []string      `yaml:"ignore_prefixes"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		BlockSize:       DefaultBlockSize,
		AcceptThreshold: DefaultAcceptThreshold,
		Workers:         1,
		Resample:        DefaultResample,
		DPI:             DefaultDPI,
		MQTT: MQTTConfig{
			Broker:  "tcp://broker.mqttdashboard.com:1883",
			Topic:   "coralcrib/img",
			Timeout: DefaultMQTTTimeout,
		},
	}
}

// Load reads a YAML file on top of Default. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	return cfg, nil
}

// Validate checks the values the transform pipeline consumes.
func (c *Config) Validate() error {
	var errs *multierror.Error
	if c.BlockSize <= 0 {
		errs = multierror.Append(errs, errors.Errorf("block_size must be positive, got %d", c.BlockSize))
	}
	if c.AcceptThreshold < 0 || c.AcceptThreshold > 1 || math.IsNaN(c.AcceptThreshold) {
		errs = multierror.Append(errs, errors.Errorf("accept_threshold must be within [0,1], got %v", c.AcceptThreshold))
	}
	if c.Workers < 0 {
		errs = multierror.Append(errs, errors.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if c.MQTT.QoS > 2 {
		errs = multierror.Append(errs, errors.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS))
	}
	if errs != nil {
		return &InvalidConfigurationError{Errs: errs}
	}
	return nil
}
