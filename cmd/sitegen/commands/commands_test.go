package commands

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitegen/internal/config"
	serrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/history"
	"git.home.luguber.info/inful/sitegen/internal/report"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		env     string
		verbose bool
		want    slog.Level
	}{
		{"", false, slog.LevelInfo},
		{"", true, slog.LevelDebug},
		{"debug", false, slog.LevelDebug},
		{"WARN", false, slog.LevelWarn},
		{"error", false, slog.LevelError},
		{"error", true, slog.LevelDebug},
		{"nonsense", false, slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv("SITEGEN_LOG_LEVEL", tt.env)
			assert.Equal(t, tt.want, parseLogLevel(tt.verbose))
		})
	}
}

func TestApplyTemplateFlag(t *testing.T) {
	cfg := config.Default()
	applyTemplateFlag(cfg, "https://git.example.com/agency/template.git", "")
	assert.Equal(t, "https://git.example.com/agency/template.git", cfg.Template.URL)
	assert.Equal(t, "main", cfg.Template.Branch)
	assert.Empty(t, cfg.Template.Path)

	applyTemplateFlag(cfg, "", "release")
	assert.Equal(t, "release", cfg.Template.Branch)

	applyTemplateFlag(cfg, "./my-template", "")
	assert.Equal(t, config.TemplateConfig{Path: "./my-template"}, cfg.Template)

	assert.True(t, looksRemote("git@example.com:agency/template"))
	assert.False(t, looksRemote("template-app"))
}

func TestLoadConfig_DefaultPathMissingUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := loadConfig(config.DefaultPath)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultInput, cfg.Input)

	_, err = loadConfig("custom.yaml")
	require.Error(t, err)
	assert.True(t, serrors.IsCategory(err, serrors.CategoryConfig))
}

// project lays out a template, a site list and a config in a temp dir.
func project(t *testing.T, csv string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	tpl := filepath.Join(dir, "template")
	require.NoError(t, os.MkdirAll(filepath.Join(tpl, "src"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(tpl, "src", "App.jsx"),
		[]byte("<h1>[[ Quick | Fast | Speedy ]]</h1><p>{{ phone }} {{ email }} {{ address }}</p>"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(tpl, "index.html"), []byte("<title>Template</title>"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sites.csv"), []byte(csv), 0o600))

	cfg := config.Default()
	cfg.Input = filepath.Join(dir, "sites.csv")
	cfg.Template = config.TemplateConfig{Path: tpl}
	cfg.BuildRoot = filepath.Join(dir, "build")
	cfg.History.Path = filepath.Join(dir, "build", ".sitegen", "history.db")
	cfg.Metrics.Textfile = filepath.Join(dir, "build", ".sitegen", "sitegen.prom")
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestRunBuild_WithoutServing(t *testing.T) {
	cfg := project(t, "domain,phone,email\nacme.test,123,x@acme.test\nglobex.test,555,info@globex.test\n")

	err := RunBuild(context.Background(), cfg, sessionOptions{serve: false, seed: 42})
	require.NoError(t, err)

	app, err := os.ReadFile(filepath.Join(cfg.BuildRoot, "acme.test", "src", "App.jsx"))
	require.NoError(t, err)
	assert.Contains(t, string(app), "<p>123 x@acme.test N/A</p>")

	index, err := os.ReadFile(filepath.Join(cfg.BuildRoot, "acme.test", "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "<title>acme.test</title>", string(index))

	assert.FileExists(t, filepath.Join(cfg.BuildRoot, report.MarkdownFile))
	assert.FileExists(t, filepath.Join(cfg.BuildRoot, report.HTMLFile))

	prom, err := os.ReadFile(cfg.Metrics.Textfile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `sitegen_site_outcomes_total{outcome="built"} 2`)

	store, err := history.NewSQLiteStore(cfg.History.Path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	entries, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRunBuild_SeedIsReproducible(t *testing.T) {
	heroOf := func() string {
		cfg := project(t, "domain\none.test\n")
		require.NoError(t, RunBuild(context.Background(), cfg, sessionOptions{seed: 7}))
		data, err := os.ReadFile(filepath.Join(cfg.BuildRoot, "one.test", "src", "App.jsx"))
		require.NoError(t, err)
		return string(data)
	}
	assert.Equal(t, heroOf(), heroOf())
}

func TestRunBuild_MissingDomainColumnIsInputError(t *testing.T) {
	cfg := project(t, "name,phone\nacme,1\n")

	err := RunBuild(context.Background(), cfg, sessionOptions{})
	require.Error(t, err)
	assert.True(t, serrors.IsCategory(err, serrors.CategoryInput))
	assert.Equal(t, 3, serrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
	assert.NoDirExists(t, filepath.Join(cfg.BuildRoot, "acme"))
}

func TestRunBuild_ServesUntilServersExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	cfg := project(t, "domain\nserved.test\n")
	marker := filepath.Join(t.TempDir(), "port")
	cfg.Serve.Command = []string{"sh", "-c", `printf %s "$PORT" > "` + marker + `"`}

	done := make(chan error, 1)
	go func() { done <- RunBuild(context.Background(), cfg, sessionOptions{serve: true, seed: 3}) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("build did not return after dev server exited")
	}

	port, err := os.ReadFile(marker)
	require.NoError(t, err)
	assert.Regexp(t, `^3[0-4]\d\d$`, string(port))
}

func TestRunInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sitegen.yaml")
	require.NoError(t, RunInit(path, false))
	assert.FileExists(t, path)
	assert.FileExists(t, filepath.Join(filepath.Dir(path), "sites.csv"))
	require.Error(t, RunInit(path, false))
}

func TestPrintHistory(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printHistory(&buf, nil))
	assert.Equal(t, "No build history yet.\n", buf.String())

	buf.Reset()
	finished := time.Date(2025, 5, 6, 7, 8, 9, 0, time.Local)
	require.NoError(t, printHistory(&buf, []history.Entry{
		{RunID: "0123456789abcdef", Domain: "acme.test", Status: "launched", Port: 3111, HeroWord: "Fast", FinishedAt: finished},
		{RunID: "0123456789abcdef", Domain: "bad.test", Status: "failed", Error: "permission denied", FinishedAt: finished},
	}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "FINISHED"))
	assert.Contains(t, lines[1], "01234567")
	assert.Contains(t, lines[1], "3111")
	assert.Contains(t, lines[2], "permission denied")
	assert.Contains(t, lines[1], "2025-05-06 07:08:09")
}

func TestHistoryCmd_NoDatabaseYet(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "sitegen.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("history:\n  path: hist.db\n"), 0o600))

	var buf bytes.Buffer
	cmd := &HistoryCmd{Limit: 5, out: &buf}
	require.NoError(t, cmd.Run(&Global{}, &CLI{Config: cfgPath}))
	assert.Contains(t, buf.String(), "No build history yet.")
}
