// Package config holds the settings of the pakdump command.
package config

import (
	"os"
	"strings"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Config is loaded from an optional TOML file and then overridden by flags.
type Config struct {
	Output   string `toml:"output" default:"dump"`
	Codec    string `toml:"codec" default:"aplib"`
	LogLevel string `toml:"log_level" default:"info"`
	Workers  int    `toml:"workers" default:"1"`
	Manifest bool   `toml:"manifest"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Output:   "dump",
		Codec:    "aplib",
		LogLevel: "info",
		Workers:  1,
	}
}

// Load reads path on top of the defaults. Keys missing from the file keep
// their default value.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config file")
	}
	if err := toml.Unmarshal(b, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config file %s", path)
	}
	return cfg, nil
}

// Validate checks the settings. codecs lists the accepted codec names.
func (c *Config) Validate(codecs map[string]bool) error {
	if c.Output == "" {
		return errors.New("output directory must not be empty")
	}
	if !codecs[strings.ToLower(c.Codec)] {
		return errors.Errorf("unknown codec %q", c.Codec)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "log level")
	}
	if c.Workers < 1 {
		return errors.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	return nil
}
