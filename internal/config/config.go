// Package config holds the run configuration of the mnist-forward binary.
package config

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config captures the knobs of one forward-pass run.
type Config struct {
	DataDir       string  `yaml:"data_dir"`
	CSVPath       string  `yaml:"csv_path"`
	Split         string  `yaml:"split"`
	BatchSize     int     `yaml:"batch_size"`
	Shuffle       bool    `yaml:"shuffle"`
	Seed          uint64  `yaml:"seed"`
	MaxSamples    int     `yaml:"max_samples"`
	Normalize     string  `yaml:"normalize"` // fixed, auto or mnist
	NormalizeMean float64 `yaml:"normalize_mean"`
	NormalizeStd  float64 `yaml:"normalize_std"`
	ReinitLayer   int     `yaml:"reinit_layer"` // 1-3, 0 disables
	ReinitStd     float64 `yaml:"reinit_std"`
	PNGPath       string  `yaml:"png_path"`
	LogLevel      string  `yaml:"log_level"`
}

// NumLayers is the highest valid ReinitLayer.
const NumLayers = 3

// Normalization modes.
const (
	NormalizeFixed = "fixed" // normalize_mean / normalize_std
	NormalizeAuto  = "auto"  // statistics measured on the loaded samples
	NormalizeMNIST = "mnist" // published MNIST training-set statistics
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Split:         "test",
		BatchSize:     64,
		Shuffle:       true,
		Seed:          42,
		MaxSamples:    1000,
		Normalize:     NormalizeFixed,
		NormalizeMean: 0.5,
		NormalizeStd:  0.5,
		ReinitLayer:   1,
		ReinitStd:     0.01,
		LogLevel:      "info",
	}
}

// Overrides captures CLI supplied values. Nil fields are left alone.
type Overrides struct {
	DataDir     *string
	CSVPath     *string
	BatchSize   *int
	Seed        *uint64
	ReinitLayer *int
	PNGPath     *string
	LogLevel    *string
}

// Load reads a YAML config on top of Default and validates it. Unknown keys
// are rejected.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open config")
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML from r on top of Default without validating.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, err
	}
	return cfg, nil
}

// ApplyOverrides updates c using every non-nil override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.DataDir != nil {
		c.DataDir = *o.DataDir
	}
	if o.CSVPath != nil {
		c.CSVPath = *o.CSVPath
	}
	if o.BatchSize != nil {
		c.BatchSize = *o.BatchSize
	}
	if o.Seed != nil {
		c.Seed = *o.Seed
	}
	if o.ReinitLayer != nil {
		c.ReinitLayer = *o.ReinitLayer
	}
	if o.PNGPath != nil {
		c.PNGPath = *o.PNGPath
	}
	if o.LogLevel != nil {
		c.LogLevel = *o.LogLevel
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.DataDir != "" && c.CSVPath != "" {
		return errors.New("data_dir and csv_path are mutually exclusive")
	}
	if c.Split != "train" && c.Split != "test" {
		return errors.Errorf("split must be train or test (got %q)", c.Split)
	}
	if c.BatchSize <= 0 {
		return errors.Errorf("batch_size must be > 0 (got %d)", c.BatchSize)
	}
	if c.MaxSamples < 0 {
		return errors.Errorf("max_samples must be >= 0 (got %d)", c.MaxSamples)
	}
	switch c.Normalize {
	case NormalizeFixed, NormalizeAuto, NormalizeMNIST:
	default:
		return errors.Errorf("normalize must be %s, %s or %s (got %q)", NormalizeFixed, NormalizeAuto, NormalizeMNIST, c.Normalize)
	}
	if c.NormalizeStd <= 0 {
		return errors.Errorf("normalize_std must be > 0 (got %g)", c.NormalizeStd)
	}
	if c.ReinitLayer < 0 || c.ReinitLayer > NumLayers {
		return errors.Errorf("reinit_layer must be in [0, %d] (got %d)", NumLayers, c.ReinitLayer)
	}
	if c.ReinitStd <= 0 {
		return errors.Errorf("reinit_std must be > 0 (got %g)", c.ReinitStd)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, errors.Errorf("log_level must be debug, info, warn or error (got %q)", c.LogLevel)
	}
	return level, nil
}
