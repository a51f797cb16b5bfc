// Package ai knows the AI coding assistants that can run in the AI panel and
// how to invoke each of them interactively or for a single prompt.
package ai

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Tool is one of the supported assistant CLIs.
type Tool int

const (
	ToolUnknown Tool = iota
	ToolClaude
	ToolGemini
	ToolOpenCode
)

// ErrUnknownTool is returned when a command names no supported assistant.
var ErrUnknownTool = errors.New("unsupported AI command")

// Tools lists the supported assistants in display order.
func Tools() []Tool {
	return []Tool{ToolClaude, ToolGemini, ToolOpenCode}
}

// Names returns the command names of the supported assistants.
func Names() []string {
	names := make([]string, 0, 3)
	for _, t := range Tools() {
		names = append(names, t.String())
	}
	return names
}

// Resolve maps a command name (optionally a path) to a Tool.
func Resolve(command string) (Tool, error) {
	name := strings.ToLower(filepath.Base(strings.TrimSpace(command)))
	for _, t := range Tools() {
		if t.String() == name {
			return t, nil
		}
	}
	return ToolUnknown, fmt.Errorf("%w %q (supported: %s)", ErrUnknownTool, command, strings.Join(Names(), ", "))
}

func (t Tool) String() string {
	switch t {
	case ToolClaude:
		return "claude"
	case ToolGemini:
		return "gemini"
	case ToolOpenCode:
		return "opencode"
	default:
		return "unknown"
	}
}

// DisplayName is the name shown in panel titles.
func (t Tool) DisplayName() string {
	switch t {
	case ToolClaude:
		return "Claude"
	case ToolGemini:
		return "Gemini"
	case ToolOpenCode:
		return "OpenCode"
	default:
		return "Unknown"
	}
}

// PromptMode says how a one-shot invocation receives its prompt.
type PromptMode int

const (
	PromptStdin PromptMode = iota
	PromptArg
)

// Template is the fixed command shape of a tool, resolved once when a
// session or a commit request is created.
type Template struct {
	Tool       Tool
	Executable string

	interactive []string
	oneShot     []string
	prompt      PromptMode
}

// Template returns the command template of t. An empty executable uses the
// tool's own name.
func (t Tool) Template(executable string) (Template, error) {
	if executable == "" {
		executable = t.String()
	}
	tpl := Template{Tool: t, Executable: executable}
	switch t {
	case ToolClaude:
		tpl.oneShot = []string{"--print"}
		tpl.prompt = PromptStdin
	case ToolGemini:
		tpl.oneShot = []string{"--prompt"}
		tpl.prompt = PromptArg
	case ToolOpenCode:
		tpl.oneShot = []string{"run"}
		tpl.prompt = PromptArg
	default:
		return Template{}, fmt.Errorf("%w %q", ErrUnknownTool, t.String())
	}
	return tpl, nil
}

// Interactive returns the argv for a long-lived session.
func (tpl Template) Interactive(extra ...string) []string {
	argv := append([]string{tpl.Executable}, tpl.interactive...)
	return append(argv, extra...)
}

// OneShot returns the argv for answering a single prompt and the data to
// write to the process's stdin.
func (tpl Template) OneShot(prompt string) (argv []string, stdin string) {
	argv = append([]string{tpl.Executable}, tpl.oneShot...)
	if tpl.prompt == PromptArg {
		return append(argv, prompt), ""
	}
	return argv, prompt
}
