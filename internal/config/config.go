// Package config loads conversion settings from YAML files and the
// environment. Precedence, lowest first: defaults, file, environment, flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mrsinham/dicom2gif/internal/convert"
	"github.com/mrsinham/dicom2gif/internal/dicom"
	"github.com/mrsinham/dicom2gif/internal/encode"
	"github.com/mrsinham/dicom2gif/internal/logging"
	"github.com/mrsinham/dicom2gif/internal/util"
	"gopkg.in/yaml.v3"
)

const (
	// Default values
	DefaultFormat    = "gif"
	DefaultWindowing = "dicom"
	DefaultLogLevel  = "warn"

	// Environment variable names
	EnvLogLevel = "DICOM2GIF_LOG_LEVEL"
	EnvPattern  = "DICOM2GIF_PATTERN"
	EnvFormat   = "DICOM2GIF_FORMAT"
)

// Config holds the settings of a conversion with YAML tags for serialization.
// Values are kept as written on the command line and parsed by Options.
type Config struct {
	Pattern   string `yaml:"pattern"`
	OutFile   string `yaml:"out_file,omitempty"`
	Format    string `yaml:"format"`
	Duration  string `yaml:"duration,omitempty"`
	Windowing string `yaml:"windowing"`
	Frames    string `yaml:"frames,omitempty"`
	Annotate  bool   `yaml:"annotate"`
	LogLevel  string `yaml:"log_level"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Pattern:   dicom.DefaultPattern,
		Format:    DefaultFormat,
		Windowing: DefaultWindowing,
		LogLevel:  DefaultLogLevel,
	}
}

// Load reads a YAML file over the defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg as YAML, creating parent directories.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// ApplyEnv overrides settings from DICOM2GIF_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvPattern); v != "" {
		c.Pattern = v
	}
	if v := os.Getenv(EnvFormat); v != "" {
		c.Format = v
	}
}

// Validate checks every setting without converting anything.
func (c *Config) Validate() error {
	if _, err := util.ParsePattern(c.Pattern); err != nil {
		return err
	}
	if c.Format != "" {
		if _, err := encode.ParseFormat(c.Format); err != nil {
			return err
		}
	}
	if c.OutFile != "" {
		if _, err := encode.FormatFromPath(c.OutFile); err != nil {
			return err
		}
	}
	if _, err := util.ParseDuration(c.Duration); err != nil {
		return err
	}
	if _, err := util.ParseWindowing(c.Windowing); err != nil {
		return err
	}
	if _, err := util.ParseFrameRange(c.Frames); err != nil {
		return err
	}
	if c.LogLevel != "" && !logging.ValidLevel(c.LogLevel) {
		return fmt.Errorf("invalid log level %q (valid: debug, info, warn, error)", c.LogLevel)
	}
	return nil
}

// Options converts the settings to conversion options. The logger is left
// unset for the caller to fill in.
func (c *Config) Options() (convert.Options, error) {
	var opts convert.Options

	format := c.Format
	if format == "" {
		format = DefaultFormat
	}
	f, err := encode.ParseFormat(format)
	if err != nil {
		return opts, err
	}
	duration, err := util.ParseDuration(c.Duration)
	if err != nil {
		return opts, err
	}
	window, err := util.ParseWindowing(c.Windowing)
	if err != nil {
		return opts, err
	}
	frames, err := util.ParseFrameRange(c.Frames)
	if err != nil {
		return opts, err
	}

	opts.Pattern = c.Pattern
	opts.OutFile = c.OutFile
	opts.Format = f
	opts.Duration = duration
	opts.Window = window
	opts.Frames = frames
	opts.Annotate = c.Annotate
	return opts, nil
}
