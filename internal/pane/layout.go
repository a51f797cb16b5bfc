package pane

// StatusBarHeight is the height reserved for the status bar at the bottom.
const StatusBarHeight = 2

// Column widths in percent of the terminal width. The AI column takes the
// rest.
const (
	GitPercent   = 25
	ShellPercent = 40
)

// minColumn is the narrowest a column is allowed to get.
const minColumn = 12

// Layout represents the position and size of a pane in screen coordinates.
type Layout struct {
	X0, Y0, X1, Y1 int
}

// Width returns the interior width (excluding borders).
func (l Layout) Width() int {
	w := l.X1 - l.X0 - 1
	if w < 1 {
		return 1
	}
	return w
}

// Height returns the interior height (excluding borders).
func (l Layout) Height() int {
	h := l.Y1 - l.Y0 - 1
	if h < 1 {
		return 1
	}
	return h
}

// Screen holds the layouts of the three columns and the status bar:
//
//	[ git ][    shell    ][   ai    ]
//	[           status             ]
type Screen struct {
	Git    Layout
	Shell  Layout
	AI     Layout
	Status Layout
}

// For returns the layout of the pane of the given kind.
func (s Screen) For(kind Kind) Layout {
	switch kind {
	case KindGit:
		return s.Git
	case KindShell:
		return s.Shell
	default:
		return s.AI
	}
}

// CalculateScreen splits a maxX by maxY terminal into the three columns and
// the status bar.
func CalculateScreen(maxX, maxY int) Screen {
	gitW := maxX * GitPercent / 100
	shellW := maxX * ShellPercent / 100
	if maxX >= 3*minColumn {
		gitW = max(gitW, minColumn)
		shellW = max(shellW, minColumn)
		if maxX-gitW-shellW < minColumn {
			shellW = maxX - gitW - minColumn
		}
	}
	bottom := maxY - StatusBarHeight
	if bottom < 2 {
		bottom = 2
	}

	return Screen{
		Git:    Layout{0, 0, gitW - 1, bottom},
		Shell:  Layout{gitW, 0, gitW + shellW - 1, bottom},
		AI:     Layout{gitW + shellW, 0, maxX - 1, bottom},
		Status: Layout{0, maxY - StatusBarHeight, maxX - 1, maxY},
	}
}
