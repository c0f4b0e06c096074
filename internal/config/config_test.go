package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sitegen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestParse_EmptyUsesDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultInput, cfg.Input)
	assert.Equal(t, DefaultTemplate, cfg.Template.Path)
	assert.Equal(t, DefaultBuildRoot, cfg.BuildRoot)
	assert.True(t, cfg.Serve.Enabled)
	assert.Equal(t, []string{"npm", "run", "dev"}, cfg.Serve.Command)
	assert.Equal(t, 3000, cfg.Serve.PortBase)
	assert.Equal(t, 500, cfg.Serve.PortSpan)
	assert.Equal(t, DefaultHistoryPath, cfg.History.Path)
	assert.Equal(t, "sitegen.site.built", cfg.Notify.Subject)
	assert.True(t, cfg.Report.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestParse_OverridesAndExplicitFalse(t *testing.T) {
	cfg, err := Parse([]byte(`
input: agencies.csv
build_root: out
serve:
  enabled: false
  command: [pnpm, dev]
history:
  path: ""
report:
  enabled: false
`))
	require.NoError(t, err)

	assert.Equal(t, "agencies.csv", cfg.Input)
	assert.Equal(t, "out", cfg.BuildRoot)
	assert.False(t, cfg.Serve.Enabled)
	assert.Equal(t, []string{"pnpm", "dev"}, cfg.Serve.Command)
	assert.Empty(t, cfg.History.Path)
	assert.False(t, cfg.Report.Enabled)
}

func TestParse_ExpandsEnvironment(t *testing.T) {
	t.Setenv("SITEGEN_TEST_NATS", "nats://broker:4222")
	cfg, err := Parse([]byte("notify:\n  nats_url: ${SITEGEN_TEST_NATS}\n"))
	require.NoError(t, err)
	assert.Equal(t, "nats://broker:4222", cfg.Notify.NATSURL)
}

func TestParse_RemoteTemplateGetsDefaultBranch(t *testing.T) {
	cfg, err := Parse([]byte("template:\n  url: https://example.com/tpl.git\n"))
	require.NoError(t, err)

	// Default path is replaced by the decoded template block.
	assert.Empty(t, cfg.Template.Path)
	assert.True(t, cfg.Template.IsRemote())
	assert.Equal(t, "main", cfg.Template.Branch)
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("serve: [oops"))
	require.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, serrors.IsCategory(err, serrors.CategoryConfig))
}

func TestLoad_ResolvesRelativePaths(t *testing.T) {
	path := writeConfig(t, "input: data/sites.csv\nbuild_root: /abs/build\n")
	dir := filepath.Dir(path)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "data", "sites.csv"), cfg.Input)
	assert.Equal(t, "/abs/build", cfg.BuildRoot)
	assert.Equal(t, filepath.Join(dir, DefaultTemplate), cfg.Template.Path)
}

func TestLoad_InvalidIsConfigError(t *testing.T) {
	path := writeConfig(t, "input: [1, 2\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, serrors.IsCategory(err, serrors.CategoryConfig))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"both template sources", func(c *Config) { c.Template.URL = "https://x/y.git" }, "template"},
		{"no template", func(c *Config) { c.Template = TemplateConfig{} }, "template"},
		{"empty command", func(c *Config) { c.Serve.Command = nil }, "serve.command"},
		{"zero span", func(c *Config) { c.Serve.PortSpan = -1 }, "serve.port_span"},
		{"range overflow", func(c *Config) { c.Serve.PortBase = 65500 }, "serve.port_base"},
		{"bad listen", func(c *Config) { c.Metrics.Listen = "9090" }, "metrics.listen"},
		{"nats without subject", func(c *Config) { c.Notify = NotifyConfig{NATSURL: "nats://x"} }, "notify.subject"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, serrors.IsCategory(err, serrors.CategoryValidation))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestValidate_ServeDisabledIgnoresCommand(t *testing.T) {
	cfg := Default()
	cfg.Serve.Enabled = false
	cfg.Serve.Command = nil
	require.NoError(t, cfg.Validate())
}

func TestInit_WritesLoadableConfigAndSites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sitegen.yaml")

	require.NoError(t, Init(path, false))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DefaultInput), cfg.Input)

	sites, err := os.ReadFile(filepath.Join(dir, DefaultInput))
	require.NoError(t, err)
	assert.Contains(t, string(sites), "acme.test")

	err = Init(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	require.NoError(t, Init(path, true))
}

func TestInit_KeepsExistingSiteList(t *testing.T) {
	dir := t.TempDir()
	sites := filepath.Join(dir, DefaultInput)
	require.NoError(t, os.WriteFile(sites, []byte("domain\nmine.test\n"), 0o600))

	require.NoError(t, Init(filepath.Join(dir, "sitegen.yaml"), false))

	data, err := os.ReadFile(sites)
	require.NoError(t, err)
	assert.Equal(t, "domain\nmine.test\n", string(data))
}
