package config

import (
	"path/filepath"

	"git.home.luguber.info/inful/sitegen/internal/launch"
	"git.home.luguber.info/inful/sitegen/internal/notify"
)

const (
	DefaultInput     = "sites.csv"
	DefaultTemplate  = "template-app"
	DefaultBuildRoot = "build"
)

// DefaultHistoryPath is where the history database lives unless configured otherwise.
var DefaultHistoryPath = filepath.Join(DefaultBuildRoot, ".sitegen", "history.db")

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := base()
	applyDefaults(cfg)
	return cfg
}

// base holds the values a file is decoded on top of. Booleans default to true
// here because YAML cannot tell an omitted key from false; the template is left
// empty so that a file naming only a url does not also inherit a path.
func base() *Config {
	return &Config{
		Serve:   ServeConfig{Enabled: true},
		History: HistoryConfig{Path: DefaultHistoryPath},
		Report:  ReportConfig{Enabled: true},
	}
}

// applyDefaults fills values the file explicitly blanked out but that cannot be empty.
func applyDefaults(cfg *Config) {
	if cfg.Input == "" {
		cfg.Input = DefaultInput
	}
	if cfg.BuildRoot == "" {
		cfg.BuildRoot = DefaultBuildRoot
	}
	if cfg.Template.Path == "" && cfg.Template.URL == "" {
		cfg.Template.Path = DefaultTemplate
	}
	if cfg.Template.URL != "" && cfg.Template.Branch == "" {
		cfg.Template.Branch = "main"
	}
	if len(cfg.Serve.Command) == 0 {
		cfg.Serve.Command = append([]string(nil), launch.DefaultCommand...)
	}
	if cfg.Serve.PortBase == 0 {
		cfg.Serve.PortBase = launch.DefaultPortBase
	}
	if cfg.Serve.PortSpan == 0 {
		cfg.Serve.PortSpan = launch.DefaultPortSpan
	}
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = notify.DefaultSubject
	}
}
