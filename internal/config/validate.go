package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"go.uber.org/zap"

	"github.com/abdullathedruid/devhub/internal/ai"
)

// Validate checks bounds, tool names, log level, colors and keybindings.
func (c *Config) Validate() error {
	var errs []error

	if c.ScrollbackLines < 0 {
		errs = append(errs, fmt.Errorf("scrollback_lines must not be negative, got %d", c.ScrollbackLines))
	}
	if c.CommitOptions < 1 || c.CommitOptions > 9 {
		errs = append(errs, fmt.Errorf("commit_options must be between 1 and 9, got %d", c.CommitOptions))
	}
	if c.CommitTimeout <= 0 {
		errs = append(errs, fmt.Errorf("commit_timeout must be positive, got %s", c.CommitTimeout))
	}
	if c.MaxDiffBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_diff_bytes must be positive, got %d", c.MaxDiffBytes))
	}
	if c.TerminateGrace <= 0 {
		errs = append(errs, fmt.Errorf("terminate_grace must be positive, got %s", c.TerminateGrace))
	}
	if c.HistoryMaxBytes <= 0 {
		errs = append(errs, fmt.Errorf("history_max_bytes must be positive, got %d", c.HistoryMaxBytes))
	}
	if c.RefreshInterval <= 0 {
		errs = append(errs, fmt.Errorf("refresh_interval must be positive, got %s", c.RefreshInterval))
	}
	if _, err := ai.Resolve(c.DefaultAI); err != nil {
		errs = append(errs, fmt.Errorf("default_ai: %w", err))
	}
	for name := range c.AICommands {
		if _, err := ai.Resolve(name); err != nil {
			errs = append(errs, fmt.Errorf("ai_commands: %w", err))
		}
	}
	if _, err := zap.ParseAtomicLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if err := ValidateKeys(&c.Keys); err != nil {
		errs = append(errs, err)
	}
	for name, color := range map[string]string{
		"focus_frame":  c.Theme.Colors.FocusFrame,
		"selection_bg": c.Theme.Colors.SelectionBg,
		"selection_fg": c.Theme.Colors.SelectionFg,
		"statusbar_bg": c.Theme.Colors.StatusBarBg,
		"statusbar_fg": c.Theme.Colors.StatusBarFg,
	} {
		if !ValidateColor(color) {
			errs = append(errs, fmt.Errorf("theme.colors.%s: unknown color %q", name, color))
		}
	}
	for state, style := range c.Theme.Status {
		if style.Color != "" && !ValidateColor(style.Color) {
			errs = append(errs, fmt.Errorf("theme.status.%s: unknown color %q", state, style.Color))
		}
	}
	return errors.Join(errs...)
}

// ValidateKeys checks for duplicate keybindings and invalid key strings.
func ValidateKeys(keys *KeyBindings) error {
	keyMap := make(map[string][]string)

	v := reflect.ValueOf(keys).Elem()
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldName := t.Field(i).Tag.Get("mapstructure")

		if field.Kind() != reflect.String {
			continue
		}

		keyStr := field.String()
		if keyStr == "" {
			continue
		}

		key, err := ParseKey(keyStr)
		if err != nil {
			return fmt.Errorf("invalid key for %s: %w", fieldName, err)
		}

		// compare parsed keys so "esc" and "escape" collide
		name := key.String()
		keyMap[name] = append(keyMap[name], fieldName)
	}

	var duplicates []string
	for key, actions := range keyMap {
		if len(actions) > 1 {
			duplicates = append(duplicates, fmt.Sprintf("key %q is used by: %s", key, strings.Join(actions, ", ")))
		}
	}

	if len(duplicates) > 0 {
		return fmt.Errorf("duplicate keybindings found:\n  %s", strings.Join(duplicates, "\n  "))
	}

	return nil
}

// ValidateColor checks if a color string is valid for gocui.
func ValidateColor(color string) bool {
	_, ok := colorNames[strings.ToLower(color)]
	return ok
}
