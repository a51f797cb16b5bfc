package screen

import "sync"

// Scrollback is a bounded FIFO of rows evicted from the top of the primary
// screen. Rows keep the width they had when evicted and are re-wrapped to the
// display width only when a view asks for them.
//
// The buffer's writer pushes rows while renderers read views, so access is
// guarded by a mutex held only for the duration of one call.
type Scrollback struct {
	mu      sync.Mutex
	max     int
	entries []*sbEntry
	start   int
}

type sbEntry struct {
	line Line

	// display cache for the last width this row was shown at
	cacheCols int
	cache     []Line
}

// NewScrollback creates a scrollback holding at most max rows. A max of zero
// disables scrollback.
func NewScrollback(max int) *Scrollback {
	if max < 0 {
		max = 0
	}
	return &Scrollback{max: max}
}

// Push appends a row, dropping the oldest one when the bound is reached.
func (s *Scrollback) Push(l Line) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.max == 0 {
		return
	}
	e := &sbEntry{line: l}
	if len(s.entries) < s.max {
		s.entries = append(s.entries, e)
		return
	}
	s.entries[s.start] = e
	s.start = (s.start + 1) % s.max
}

// Len returns the number of stored rows.
func (s *Scrollback) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Max returns the configured bound.
func (s *Scrollback) Max() int {
	return s.max
}

// Line returns a copy of row i, where 0 is the oldest stored row.
func (s *Scrollback) Line(i int) Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.entries) {
		return Line{}
	}
	return s.at(i).line.clone()
}

// Clear drops every stored row.
func (s *Scrollback) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.start = 0
}

// View returns up to height display rows laid out at width columns. offset
// counts stored rows back from the newest one; offset 0 ends the view at the
// newest row. Rows are returned oldest first.
func (s *Scrollback) View(offset, height, width int) []Line {
	s.mu.Lock()
	defer s.mu.Unlock()

	if height <= 0 || width <= 0 {
		return nil
	}
	var rows []Line
	for i := len(s.entries) - 1 - offset; i >= 0 && len(rows) < height; i-- {
		display := s.at(i).display(width)
		rows = append(cloneLines(display), rows...)
	}
	if len(rows) > height {
		rows = rows[len(rows)-height:]
	}
	return rows
}

// popNewest removes and returns up to n of the newest rows, oldest first.
func (s *Scrollback) popNewest(n int) []Line {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n > len(s.entries) {
		n = len(s.entries)
	}
	if n <= 0 {
		return nil
	}
	ordered := make([]*sbEntry, len(s.entries))
	for i := range ordered {
		ordered[i] = s.at(i)
	}
	keep := len(ordered) - n
	out := make([]Line, 0, n)
	for _, e := range ordered[keep:] {
		out = append(out, e.line)
	}
	s.entries = ordered[:keep]
	s.start = 0
	return out
}

func (s *Scrollback) at(i int) *sbEntry {
	if len(s.entries) < s.max {
		return s.entries[i]
	}
	return s.entries[(s.start+i)%s.max]
}

func (e *sbEntry) display(cols int) []Line {
	if len(e.line.Cells) == cols {
		return []Line{e.line}
	}
	if e.cacheCols != cols || e.cache == nil {
		e.cache, _ = wrapCells(trimTrailing(e.line.Cells), cols)
		e.cacheCols = cols
	}
	return e.cache
}

func cloneLines(lines []Line) []Line {
	out := make([]Line, len(lines))
	for i, l := range lines {
		out[i] = l.clone()
	}
	return out
}
