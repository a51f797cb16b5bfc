package ui

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"

	"github.com/abdullathedruid/devhub/internal/commitmsg"
)

// maxPreviewLines bounds the diff shown under the candidates.
const maxPreviewLines = 200

// CommitDialog holds the state of the commit modal.
type CommitDialog struct {
	Tool       string
	Stat       []string
	Diff       string
	Candidates []commitmsg.Candidate
	Selected   int
	Busy       bool
	Err        error
}

// Render returns the dialog body for the given width.
func (d *CommitDialog) Render(width int) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%sChanges%s\n", ColorBold, ColorReset)
	for _, s := range d.Stat {
		sb.WriteString("  " + Truncate(s, width-2) + "\n")
	}
	sb.WriteString("\n")

	switch {
	case d.Busy:
		fmt.Fprintf(&sb, "%sAsking %s for commit messages...%s\n", ColorYellow, d.Tool, ColorReset)
	case d.Err != nil:
		for _, l := range WrapText(d.Err.Error(), width-2) {
			sb.WriteString(ColorRed + "  " + l + ColorReset + "\n")
		}
		sb.WriteString("\n  r: retry   a: switch tool   esc: cancel\n")
	default:
		fmt.Fprintf(&sb, "%sMessages from %s%s\n", ColorBold, d.Tool, ColorReset)
		for i, c := range d.Candidates {
			line := Truncate(fmt.Sprintf("%d. %s", i+1, c.Text), width-4)
			if i == d.Selected {
				sb.WriteString("  " + ColorReverse + line + ColorReset + "\n")
				continue
			}
			sb.WriteString("  " + line + "\n")
		}
		sb.WriteString("\n  enter: commit   1-9: pick   r: retry   a: switch tool   esc: cancel\n")
	}

	if d.Diff != "" {
		sb.WriteString("\n")
		sb.WriteString(HighlightDiff(previewLines(d.Diff, maxPreviewLines)))
	}
	return sb.String()
}

// Move changes the selection by delta, staying within the candidates.
func (d *CommitDialog) Move(delta int) {
	if len(d.Candidates) == 0 {
		return
	}
	d.Selected = min(max(d.Selected+delta, 0), len(d.Candidates)-1)
}

// Choice returns the selected candidate.
func (d *CommitDialog) Choice() (commitmsg.Candidate, bool) {
	if d.Busy || d.Err != nil || d.Selected < 0 || d.Selected >= len(d.Candidates) {
		return commitmsg.Candidate{}, false
	}
	return d.Candidates[d.Selected], true
}

// HighlightDiff colors a unified diff for a 256 color terminal. The input
// is returned unchanged when highlighting fails.
func HighlightDiff(diff string) string {
	var sb strings.Builder
	if err := quick.Highlight(&sb, diff, "diff", "terminal256", "monokai"); err != nil {
		return diff
	}
	return sb.String()
}

func previewLines(s string, n int) string {
	lines := strings.SplitAfter(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[:n], "") + fmt.Sprintf("... %d more lines\n", len(lines)-n)
}
