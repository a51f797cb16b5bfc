package pane

import (
	"sync"

	"github.com/abdullathedruid/devhub/internal/screen"
)

// Viewport is the scroll position of a session panel.
type Viewport struct {
	mu        sync.Mutex
	scrollPos int // 0 = live view, >0 = rows scrolled up from bottom
}

// ScrollPos returns the current scroll position (0 = live, >0 = scrolled up).
func (v *Viewport) ScrollPos() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.scrollPos
}

// IsScrolled returns true if the view is scrolled (not showing live output).
func (v *Viewport) IsScrolled() bool {
	return v.ScrollPos() > 0
}

// ScrollUp moves the viewport up by lines, stopping at limit rows.
// Returns the new scroll position.
func (v *Viewport) ScrollUp(lines, limit int) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scrollPos = min(v.scrollPos+lines, max(limit, 0))
	return v.scrollPos
}

// ScrollDown moves the viewport down by the given number of lines.
// Returns the new scroll position (minimum 0).
func (v *Viewport) ScrollDown(lines int) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scrollPos = max(v.scrollPos-lines, 0)
	return v.scrollPos
}

// ScrollToBottom resets scroll position to show live output.
func (v *Viewport) ScrollToBottom() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scrollPos = 0
}

// Lines returns the rows to draw for a panel scrolled up by scrollPos: the
// newest scrollback rows followed by the top of the live screen. At
// scrollPos 0 this is the live screen. The alternate screen has no
// scrollback.
func Lines(snap *screen.Snapshot, sb *screen.Scrollback, scrollPos int) []screen.Line {
	if snap == nil {
		return nil
	}
	height := len(snap.Lines)
	if scrollPos <= 0 || snap.Alternate || sb == nil {
		return snap.Lines
	}
	scrollPos = min(scrollPos, sb.Len())

	if scrollPos >= height {
		return sb.View(scrollPos-height, height, snap.Cols)
	}
	history := sb.View(0, scrollPos, snap.Cols)
	rows := make([]screen.Line, 0, height)
	rows = append(rows, history...)
	return append(rows, snap.Lines[:height-len(history)]...)
}
