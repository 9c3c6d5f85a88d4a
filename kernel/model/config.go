package model

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const ConfigFileName = "config.yml"

// Config is the process configuration of a pandapi server.
type Config struct {
	Listen  string      `yaml:"listen"`
	Driver  string      `yaml:"driver"`
	Workers int         `yaml:"workers"`
	Delays  DelayConfig `yaml:"delays"`
}

// DelayConfig holds how long each background transition waits before it runs.
type DelayConfig struct {
	Build    time.Duration `yaml:"build"`
	Teardown time.Duration `yaml:"teardown"`
	Purge    time.Duration `yaml:"purge"`
}

type delayConfigYaml struct {
	Build    string `yaml:"build"`
	Teardown string `yaml:"teardown"`
	Purge    string `yaml:"purge"`
}

// UnmarshalYAML requires every delay to carry a unit. A bare number would
// otherwise decode as nanoseconds.
func (d *DelayConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw delayConfigYaml
	if err := unmarshal(&raw); err != nil {
		return err
	}

	for _, delay := range []struct {
		name   string
		value  string
		target *time.Duration
	}{
		{"build", raw.Build, &d.Build},
		{"teardown", raw.Teardown, &d.Teardown},
		{"purge", raw.Purge, &d.Purge},
	} {
		if delay.value == "" {
			continue
		}
		v, err := time.ParseDuration(delay.value)
		if err != nil {
			return errors.Wrapf(err, "invalid delays.%s", delay.name)
		}
		*delay.target = v
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		Listen:  ":8080",
		Driver:  "simulated",
		Workers: 64,
		Delays: DelayConfig{
			Build:    35 * time.Second,
			Teardown: 30 * time.Second,
			Purge:    30 * time.Second,
		},
	}
}

// LoadConfig reads the YAML file at path on top of DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read config [%s]", path)
	}

	cfg := DefaultConfig()
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "unable to parse config [%s]", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config [%s]", path)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Listen == "" {
		return errors.New("listen address is required")
	}
	if c.Driver == "" {
		return errors.New("driver is required")
	}
	if c.Workers < 1 {
		return errors.Errorf("workers must be 1 or higher, got %d", c.Workers)
	}
	if c.Delays.Build < 0 || c.Delays.Teardown < 0 || c.Delays.Purge < 0 {
		return errors.New("delays must not be negative")
	}
	return nil
}

// ConfigDir returns the per-user pandapi directory.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "unable to locate home directory")
	}
	return filepath.Join(home, ".pandapi"), nil
}
