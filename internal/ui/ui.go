package ui

import (
	"fmt"
	"strings"

	"github.com/abdullathedruid/devhub/internal/config"
	"github.com/abdullathedruid/devhub/internal/history"
	"github.com/abdullathedruid/devhub/internal/input"
	"github.com/abdullathedruid/devhub/internal/session"
	"github.com/mattn/go-runewidth"
)

// Colors and styles for the TUI
const (
	ColorReset   = "\033[0m"
	ColorBold    = "\033[1m"
	ColorDim     = "\033[2m"
	ColorRed     = "\033[31m"
	ColorGreen   = "\033[32m"
	ColorYellow  = "\033[33m"
	ColorBlue    = "\033[34m"
	ColorMagenta = "\033[35m"
	ColorCyan    = "\033[36m"
	ColorWhite   = "\033[37m"
	ColorReverse = "\033[7m"
)

var ansiColors = map[string]string{
	"red":     ColorRed,
	"green":   ColorGreen,
	"yellow":  ColorYellow,
	"blue":    ColorBlue,
	"magenta": ColorMagenta,
	"cyan":    ColorCyan,
	"white":   ColorWhite,
}

// ANSIColor returns the escape for a theme color name, or "" for the
// default color.
func ANSIColor(name string) string {
	return ansiColors[strings.ToLower(name)]
}

// StatusStyle returns the theme entry for a session state, falling back to
// the state's name.
func StatusStyle(theme config.Theme, state session.State) config.StatusStyle {
	if st, ok := theme.Status[state.String()]; ok {
		return st
	}
	return config.StatusStyle{Label: strings.ToUpper(state.String())}
}

// SessionTitle is the panel title for a session: its name and state.
func SessionTitle(theme config.Theme, name string, st session.Status) string {
	style := StatusStyle(theme, st.State)
	if style.Icon == "" {
		return fmt.Sprintf("%s %s", name, style.Label)
	}
	return fmt.Sprintf("%s %s %s", name, style.Icon, style.Label)
}

// StatusLine is the colored one-line summary of a session's status shown
// under a finished session's output.
func StatusLine(theme config.Theme, st session.Status) string {
	msg := st.Message()
	if msg == "" {
		return ""
	}
	color := ANSIColor(StatusStyle(theme, st.State).Color)
	if color == "" {
		return "[" + msg + "]"
	}
	return color + "[" + msg + "]" + ColorReset
}

// StatusBar holds what the bottom line shows.
type StatusBar struct {
	Mode       input.Mode
	Panel      string
	Branch     string
	Foreground string
	Scrolled   int
	Message    string
	Help       string
}

// Render returns the status bar content for the given width.
func (s StatusBar) Render(width int) string {
	left := fmt.Sprintf(" %s │ %s", s.Mode, s.Panel)
	if s.Foreground != "" {
		left += " (" + s.Foreground + ")"
	}
	if s.Branch != "" {
		left += " │ " + s.Branch
	}
	if s.Scrolled > 0 {
		left += fmt.Sprintf(" │ scrolled %d", s.Scrolled)
	}
	if s.Message != "" {
		left += " │ " + s.Message
	}
	right := s.Help + " "

	gap := width - runewidth.StringWidth(left) - runewidth.StringWidth(right)
	if gap < 1 {
		return Truncate(left, width)
	}
	return left + strings.Repeat(" ", gap) + right
}

// HistoryBanner renders the last records of the previous run as dimmed
// lines, shown over a new session until it receives input.
func HistoryBanner(records []history.Record, width int) []string {
	if len(records) == 0 {
		return nil
	}
	lines := make([]string, 0, len(records)+1)
	lines = append(lines, ColorDim+Truncate("── previous run ──", width)+ColorReset)
	for _, r := range records {
		lines = append(lines, ColorDim+Truncate(r.Summary(), width)+ColorReset)
	}
	return lines
}

// Truncate shortens a string to fit in the given width.
func Truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}

// PadRight pads a string to the right.
func PadRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return runewidth.Truncate(s, width, "")
	}
	return s + strings.Repeat(" ", width-sw)
}

// Center centers a string in the given width.
func Center(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return runewidth.Truncate(s, width, "")
	}
	padding := (width - sw) / 2
	return strings.Repeat(" ", padding) + s + strings.Repeat(" ", width-sw-padding)
}

// HelpText returns the help screen content for the configured keys.
func HelpText(k config.KeyBindings) string {
	rows := []struct{ key, desc string }{
		{"", "Navigation"},
		{k.NextPanel, "Cycle panels"},
		{k.NavLeft + "/" + k.NavRight, "Focus left / right panel"},
		{"enter", "Type into the focused session"},
		{k.NormalMode, "Back to normal mode"},
		{k.ScrollUp + "/" + k.ScrollDown, "Scroll the focused session"},
		{"", "Sessions"},
		{k.Restart, "Restart the focused session"},
		{k.SwitchAI, "Switch AI tool"},
		{"", "Git"},
		{k.Commit, "Generate a commit message and commit"},
		{k.Push, "Push the current branch"},
		{k.Refresh, "Refresh the git panel"},
		{k.ToggleFolder, "Toggle git status / folder listing"},
		{"", "Other"},
		{k.Help, "Show this help"},
		{k.Quit, "Quit"},
	}

	var sb strings.Builder
	sb.WriteString("devhub - shell, AI assistant and git in one screen\n")
	for _, r := range rows {
		if r.key == "" {
			sb.WriteString("\n" + r.desc + "\n")
			continue
		}
		sb.WriteString("  " + PadRight(r.key, 18) + " " + r.desc + "\n")
	}
	sb.WriteString("\nPress any key to close this help...")
	return sb.String()
}

// WrapText wraps text to fit within the given width.
func WrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if runewidth.StringWidth(line) <= width {
			lines = append(lines, line)
			continue
		}

		for runewidth.StringWidth(line) > width {
			// Find a break point that fits within width
			breakIdx := 0
			currentWidth := 0
			lastSpace := -1
			for i, r := range line {
				rw := runewidth.RuneWidth(r)
				if currentWidth+rw > width {
					break
				}
				currentWidth += rw
				breakIdx = i + len(string(r))
				if r == ' ' {
					lastSpace = breakIdx
				}
			}
			if lastSpace > 0 {
				breakIdx = lastSpace
			}
			lines = append(lines, line[:breakIdx])
			line = strings.TrimSpace(line[breakIdx:])
		}
		if line != "" {
			lines = append(lines, line)
		}
	}

	return lines
}

// FormatDuration formats a duration for display.
func FormatDuration(seconds int64) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds ago", seconds)
	}
	if seconds < 3600 {
		return fmt.Sprintf("%dm ago", seconds/60)
	}
	if seconds < 86400 {
		return fmt.Sprintf("%dh ago", seconds/3600)
	}
	return fmt.Sprintf("%dd ago", seconds/86400)
}
