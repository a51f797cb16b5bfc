package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.DefaultAI != "claude" {
		t.Errorf("DefaultAI = %q, want 'claude'", cfg.DefaultAI)
	}
	if cfg.ScrollbackLines != 10000 {
		t.Errorf("ScrollbackLines = %d, want 10000", cfg.ScrollbackLines)
	}
	if cfg.CommitOptions != 3 {
		t.Errorf("CommitOptions = %d, want 3", cfg.CommitOptions)
	}
	if cfg.CommitTimeout != 60*time.Second {
		t.Errorf("CommitTimeout = %s, want 60s", cfg.CommitTimeout)
	}
	if cfg.TerminateGrace != 3*time.Second {
		t.Errorf("TerminateGrace = %s, want 3s", cfg.TerminateGrace)
	}
	if cfg.HistoryMaxBytes != 1<<20 {
		t.Errorf("HistoryMaxBytes = %d, want 1MiB", cfg.HistoryMaxBytes)
	}
	if cfg.Keys.Quit != "q" || cfg.Keys.NormalMode != "ctrl+g" {
		t.Errorf("Keys = %+v", cfg.Keys)
	}
	if cfg.Theme.Status["running"].Label != "RUNNING" {
		t.Errorf("Theme.Status[running] = %+v", cfg.Theme.Status["running"])
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate(defaults) error = %v", err)
	}
}

func TestDefaultDataDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	if dir := defaultDataDir(); dir != "/custom/config/devhub" {
		t.Errorf("with XDG_CONFIG_HOME: got %q, want '/custom/config/devhub'", dir)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	if dir := defaultDataDir(); !strings.HasSuffix(dir, filepath.Join(".config", "devhub")) {
		t.Errorf("without XDG_CONFIG_HOME: got %q, expected to end with '.config/devhub'", dir)
	}
}

func TestPaths(t *testing.T) {
	cfg := &Config{DataDir: "/data", ProjectDir: "/src/app"}

	if got := cfg.ConfigFile(); got != "/data/config.toml" {
		t.Errorf("ConfigFile() = %q", got)
	}
	if got := cfg.LogFile(); got != "/data/devhub.log" {
		t.Errorf("LogFile() = %q", got)
	}
	if got := cfg.HistoryDir(); got != "/src/app/.devhub/history" {
		t.Errorf("HistoryDir() = %q", got)
	}
	if got := ProjectConfigFile("/src/app"); got != "/src/app/.devhub/config.toml" {
		t.Errorf("ProjectConfigFile() = %q", got)
	}
}

func TestEnsureDataDir(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "devhub-test", "data")
	cfg := &Config{DataDir: dataDir}

	if err := cfg.EnsureDataDir(); err != nil {
		t.Fatalf("EnsureDataDir() error: %v", err)
	}
	info, err := os.Stat(dataDir)
	if err != nil {
		t.Fatalf("data dir does not exist: %v", err)
	}
	if !info.IsDir() {
		t.Error("data dir is not a directory")
	}
	if err := cfg.EnsureDataDir(); err != nil {
		t.Errorf("second EnsureDataDir() error: %v", err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadNoFiles(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load(Options{ProjectDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "claude", cfg.DefaultAI)
	assert.Equal(t, 3, cfg.CommitOptions)
}

func TestLoadMergesProjectAndEnv(t *testing.T) {
	xdg := t.TempDir()
	project := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	writeFile(t, filepath.Join(xdg, "devhub", "config.toml"), `
shell = "/bin/zsh"
default_ai = "gemini"
commit_options = 5
commit_timeout = "2m"

[ai_commands]
claude = "/opt/claude/bin/claude"

[keys]
quit = "Q"
`)
	writeFile(t, ProjectConfigFile(project), `
default_ai = "opencode"
scrollback_lines = 500
`)
	t.Setenv("DEVHUB_COMMIT_OPTIONS", "4")

	cfg, err := Load(Options{ProjectDir: project})
	require.NoError(t, err)

	assert.Equal(t, "/bin/zsh", cfg.Shell)
	assert.Equal(t, "opencode", cfg.DefaultAI)
	assert.Equal(t, 500, cfg.ScrollbackLines)
	assert.Equal(t, 4, cfg.CommitOptions)
	assert.Equal(t, 2*time.Minute, cfg.CommitTimeout)
	assert.Equal(t, "Q", cfg.Keys.Quit)
	assert.Equal(t, "h", cfg.Keys.NavLeft)
	assert.Equal(t, project, cfg.ProjectDir)
	assert.Equal(t, map[string]string{"claude": "/opt/claude/bin/claude"}, cfg.AIExecutables())
}

func TestLoadExplicitFileMustExist(t *testing.T) {
	_, err := Load(Options{ConfigFile: filepath.Join(t.TempDir(), "missing.toml")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown ai", `default_ai = "copilot"`, "default_ai"},
		{"bad bound", `commit_options = 0`, "commit_options"},
		{"duplicate key", "[keys]\ncommit = \"q\"", "duplicate keybindings"},
		{"bad color", "[theme.colors]\nfocus_frame = \"orange\"", "focus_frame"},
		{"bad level", `log_level = "loud"`, "log_level"},
		{"unknown tool override", "[ai_commands]\naider = \"aider\"", "ai_commands"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			writeFile(t, path, tt.content)

			_, err := Load(Options{ConfigFile: path})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devhub", "config.toml")

	require.NoError(t, WriteDefault(path, false))
	assert.ErrorIs(t, WriteDefault(path, false), ErrExists)
	require.NoError(t, WriteDefault(path, true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Regexp(t, `default_ai = ['"]claude['"]`, string(data))

	cfg, err := Load(Options{ConfigFile: path})
	require.NoError(t, err)
	assert.Equal(t, Default().Keys, cfg.Keys)
	assert.Equal(t, 60*time.Second, cfg.CommitTimeout)
}

func TestProjectSettings(t *testing.T) {
	project := t.TempDir()

	s, err := LoadProjectSettings(project)
	require.NoError(t, err)
	assert.Empty(t, s.LastAI())

	require.NoError(t, s.SetLastAI("gemini"))

	reloaded, err := LoadProjectSettings(project)
	require.NoError(t, err)
	assert.Equal(t, "gemini", reloaded.LastAI())

	data, err := os.ReadFile(filepath.Join(project, ".devhub", "settings.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "last_ai: gemini\n", string(data))
	assert.FileExists(t, filepath.Join(project, ".devhub", ".gitignore"))
}

func TestEnsureProjectStateDir(t *testing.T) {
	project := t.TempDir()
	require.NoError(t, EnsureProjectStateDir(project))

	ignore := filepath.Join(project, ".devhub", ".gitignore")
	data, err := os.ReadFile(ignore)
	require.NoError(t, err)
	assert.Equal(t, "*\n", string(data))

	// an edited ignore file is left alone
	require.NoError(t, os.WriteFile(ignore, []byte("history/\n"), 0o644))
	require.NoError(t, EnsureProjectStateDir(project))
	data, err = os.ReadFile(ignore)
	require.NoError(t, err)
	assert.Equal(t, "history/\n", string(data))
}
