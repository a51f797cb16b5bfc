// Package config loads devhub configuration: the global file in the data
// directory merged with an optional per-project file, overridden by DEVHUB_
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	// DataDir holds the global config file and the log.
	DataDir string `mapstructure:"-"`
	// ProjectDir is the project the sessions run in.
	ProjectDir string `mapstructure:"-"`

	// Shell overrides $SHELL for the shell panel.
	Shell string `mapstructure:"shell"`
	// DefaultAI is the AI tool used when the project has no last used tool.
	DefaultAI       string            `mapstructure:"default_ai"`
	ScrollbackLines int               `mapstructure:"scrollback_lines"`
	CommitOptions   int               `mapstructure:"commit_options"`
	CommitTimeout   time.Duration     `mapstructure:"commit_timeout"`
	MaxDiffBytes    int               `mapstructure:"max_diff_bytes"`
	TerminateGrace  time.Duration     `mapstructure:"terminate_grace"`
	HistoryMaxBytes int64             `mapstructure:"history_max_bytes"`
	RefreshInterval time.Duration     `mapstructure:"refresh_interval"`
	LogLevel        string            `mapstructure:"log_level"`
	AICommands      map[string]string `mapstructure:"ai_commands"`

	Keys  KeyBindings `mapstructure:"keys"`
	Theme Theme       `mapstructure:"theme"`
}

// KeyBindings holds the normal mode keybindings.
type KeyBindings struct {
	Quit         string `mapstructure:"quit"`
	Help         string `mapstructure:"help"`
	NormalMode   string `mapstructure:"normal_mode"`
	NextPanel    string `mapstructure:"next_panel"`
	NavLeft      string `mapstructure:"nav_left"`
	NavRight     string `mapstructure:"nav_right"`
	Commit       string `mapstructure:"commit"`
	Push         string `mapstructure:"push"`
	Refresh      string `mapstructure:"refresh"`
	ToggleFolder string `mapstructure:"toggle_folder"`
	SwitchAI     string `mapstructure:"switch_ai"`
	Restart      string `mapstructure:"restart"`
	ScrollUp     string `mapstructure:"scroll_up"`
	ScrollDown   string `mapstructure:"scroll_down"`
}

// Theme holds theme configuration.
type Theme struct {
	Colors ThemeColors            `mapstructure:"colors"`
	Status map[string]StatusStyle `mapstructure:"status"`
}

// ThemeColors holds color configuration.
type ThemeColors struct {
	FocusFrame  string `mapstructure:"focus_frame"`
	SelectionBg string `mapstructure:"selection_bg"`
	SelectionFg string `mapstructure:"selection_fg"`
	StatusBarBg string `mapstructure:"statusbar_bg"`
	StatusBarFg string `mapstructure:"statusbar_fg"`
}

// StatusStyle is how a session state is shown in panel titles.
type StatusStyle struct {
	Icon  string `mapstructure:"icon"`
	Color string `mapstructure:"color"`
	Label string `mapstructure:"label"`
}

// defaults is the single source of default values, used for viper
// defaults and for the file written by WriteDefault.
func defaults() map[string]any {
	return map[string]any{
		"shell":             "",
		"default_ai":        "claude",
		"scrollback_lines":  10000,
		"commit_options":    3,
		"commit_timeout":    "60s",
		"max_diff_bytes":    60000,
		"terminate_grace":   "3s",
		"history_max_bytes": 1 << 20,
		"refresh_interval":  "5s",
		"log_level":         "info",
		"ai_commands": map[string]any{
			"claude":   "claude",
			"gemini":   "gemini",
			"opencode": "opencode",
		},
		"keys": map[string]any{
			"quit":          "q",
			"help":          "?",
			"normal_mode":   "ctrl+g",
			"next_panel":    "tab",
			"nav_left":      "h",
			"nav_right":     "l",
			"commit":        "c",
			"push":          "P",
			"refresh":       "r",
			"toggle_folder": "f",
			"switch_ai":     "a",
			"restart":       "R",
			"scroll_up":     "pgup",
			"scroll_down":   "pgdn",
		},
		"theme": map[string]any{
			"colors": map[string]any{
				"focus_frame":  "green",
				"selection_bg": "blue",
				"selection_fg": "white",
				"statusbar_bg": "blue",
				"statusbar_fg": "white",
			},
			"status": map[string]any{
				"starting":     statusDefault("◐", "yellow", "STARTING"),
				"running":      statusDefault("●", "green", "RUNNING"),
				"exited":       statusDefault("✓", "white", "EXITED"),
				"crashed":      statusDefault("✗", "red", "CRASHED"),
				"unresponsive": statusDefault("⚠", "magenta", "STUCK"),
				"failed":       statusDefault("✗", "red", "FAILED"),
				"idle":         statusDefault("○", "white", "IDLE"),
			},
		},
	}
}

func statusDefault(icon, color, label string) map[string]any {
	return map[string]any{"icon": icon, "color": color, "label": label}
}

// setDefaults registers every leaf of defaults() with v.
func setDefaults(v *viper.Viper, prefix string, m map[string]any) {
	for k, val := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]any); ok {
			setDefaults(v, key, sub)
			continue
		}
		v.SetDefault(key, val)
	}
}

// Options selects the files Load reads.
type Options struct {
	// ConfigFile replaces <data dir>/config.toml. It must exist.
	ConfigFile string
	// ProjectDir is searched for .devhub/config.toml.
	ProjectDir string
}

// Default returns the configuration without any file or environment.
func Default() *Config {
	cfg, err := load(viper.New(), Options{})
	if err != nil {
		panic(fmt.Sprintf("default config: %v", err))
	}
	return cfg
}

// Load reads the global and project files and the environment.
func Load(opts Options) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DEVHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	globalFile := opts.ConfigFile
	if globalFile == "" {
		globalFile = filepath.Join(defaultDataDir(), "config.toml")
	}
	if err := readFile(v, globalFile, opts.ConfigFile != "", false); err != nil {
		return nil, err
	}
	if opts.ProjectDir != "" {
		if err := readFile(v, ProjectConfigFile(opts.ProjectDir), false, true); err != nil {
			return nil, err
		}
	}

	cfg, err := load(v, opts)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readFile(v *viper.Viper, path string, required, merge bool) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("config file: %w", err)
	}
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	var err error
	if merge {
		err = v.MergeInConfig()
	} else {
		err = v.ReadInConfig()
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}

func load(v *viper.Viper, opts Options) (*Config, error) {
	setDefaults(v, "", defaults())

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.DataDir = defaultDataDir()
	cfg.ProjectDir = opts.ProjectDir
	return &cfg, nil
}

// ErrExists is returned by WriteDefault when the file is already there.
var ErrExists = errors.New("config file already exists")

// WriteDefault writes the default configuration as TOML to path. An
// existing file is only replaced when force is set.
func WriteDefault(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%w: %s", ErrExists, path)
	}
	data, err := toml.Marshal(defaults())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// defaultDataDir returns the default data directory.
func defaultDataDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "devhub")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".devhub"
	}
	return filepath.Join(home, ".config", "devhub")
}

// ConfigFile returns the path of the global config file.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "config.toml")
}

// LogFile returns the path of the application log.
func (c *Config) LogFile() string {
	return filepath.Join(c.DataDir, "devhub.log")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *Config) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0o755)
}

// ProjectStateDir returns <project>/.devhub.
func ProjectStateDir(projectDir string) string {
	return filepath.Join(projectDir, ".devhub")
}

// EnsureProjectStateDir creates <project>/.devhub with a .gitignore that
// ignores everything in it, so interaction logs and settings stay out of the
// user's own git commands as well.
func EnsureProjectStateDir(projectDir string) error {
	dir := ProjectStateDir(projectDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	ignore := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(ignore); err == nil {
		return nil
	}
	return os.WriteFile(ignore, []byte("*\n"), 0o644)
}

// ProjectConfigFile returns the per-project config file.
func ProjectConfigFile(projectDir string) string {
	return filepath.Join(ProjectStateDir(projectDir), "config.toml")
}

// HistoryDir returns the project's interaction log directory.
func (c *Config) HistoryDir() string {
	return filepath.Join(ProjectStateDir(c.ProjectDir), "history")
}

// AIExecutables returns the executable overrides by tool name, skipping
// entries equal to the tool name.
func (c *Config) AIExecutables() map[string]string {
	out := make(map[string]string, len(c.AICommands))
	for name, exe := range c.AICommands {
		if exe != "" && exe != name {
			out[name] = exe
		}
	}
	return out
}
