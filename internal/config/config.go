// Package config loads sitegen.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	serrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

// DefaultPath is the configuration file looked up when -c is not given.
const DefaultPath = "sitegen.yaml"

// Config is the sitegen configuration file.
type Config struct {
	Input     string         `yaml:"input"`
	Template  TemplateConfig `yaml:"template"`
	BuildRoot string         `yaml:"build_root"`
	Serve     ServeConfig    `yaml:"serve"`
	History   HistoryConfig  `yaml:"history"`
	Metrics   MetricsConfig  `yaml:"metrics"`
	Notify    NotifyConfig   `yaml:"notify"`
	Report    ReportConfig   `yaml:"report"`
}

// TemplateConfig names the template either as a local directory or a git repository.
type TemplateConfig struct {
	Path   string `yaml:"path,omitempty"`
	URL    string `yaml:"url,omitempty"`
	Branch string `yaml:"branch,omitempty"`
	Token  string `yaml:"token,omitempty"` // HTTPS token, usually ${GIT_TOKEN}
}

// IsRemote reports whether the template has to be cloned.
func (t TemplateConfig) IsRemote() bool { return t.URL != "" }

// ServeConfig controls dev server launching.
type ServeConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Command  []string `yaml:"command"`
	PortBase int      `yaml:"port_base"`
	PortSpan int      `yaml:"port_span"`
}

// HistoryConfig locates the build history database. An empty path disables it.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// MetricsConfig controls Prometheus output.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"` // written after each run
	Listen   string `yaml:"listen,omitempty"`   // host:port served by watch
}

// NotifyConfig controls NATS site events. An empty URL disables them.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// ReportConfig controls the run report.
type ReportConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads, expands and validates the configuration at path.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, serrors.ConfigNotFound(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, serrors.ConfigInvalid(path, fmt.Errorf("failed to read config file: %w", err))
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, serrors.ConfigInvalid(path, err)
	}

	// Relative paths in the file are relative to the file, not the working directory.
	cfg.resolvePaths(filepath.Dir(path))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML (after ${ENV} expansion) and applies defaults.
// It does not validate.
func Parse(data []byte) (*Config, error) {
	cfg := base()
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	applyDefaults(cfg)
	return cfg, nil
}

func (c *Config) resolvePaths(base string) {
	if base == "" || base == "." {
		return
	}
	join := func(p string) string {
		if p == "" || filepath.IsAbs(p) || p == ":memory:" {
			return p
		}
		return filepath.Join(base, p)
	}
	c.Input = join(c.Input)
	c.Template.Path = join(c.Template.Path)
	c.BuildRoot = join(c.BuildRoot)
	c.History.Path = join(c.History.Path)
	c.Metrics.Textfile = join(c.Metrics.Textfile)
}
