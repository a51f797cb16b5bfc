package screen

// Snapshot is an immutable copy of a buffer taken between two input chunks.
// Rows that did not change since the previous snapshot share storage with it.
type Snapshot struct {
	Rows       int
	Cols       int
	Lines      []Line
	Cursor     Cursor
	Alternate  bool
	Title      string
	Generation uint64
	Scrollback int
}

// Text returns every row as a string with trailing spaces removed.
func (s *Snapshot) Text() []string {
	out := make([]string, len(s.Lines))
	for i, l := range s.Lines {
		out[i] = l.String()
	}
	return out
}

// Cell returns the cell at (row, col), or a blank cell outside the grid.
func (s *Snapshot) Cell(row, col int) Cell {
	if row < 0 || row >= len(s.Lines) || col < 0 || col >= len(s.Lines[row].Cells) {
		return Blank(Pen{})
	}
	return s.Lines[row].Cells[col]
}

// Snapshot returns the state published by the most recent Commit. It is safe
// to call from any goroutine and never blocks the writer.
func (b *Buffer) Snapshot() *Snapshot {
	return b.published.Load()
}

// Commit publishes the current state for readers. The writer calls it after
// applying a complete input chunk so readers never observe half of an escape
// sequence's effect. Commit is a no-op when nothing changed.
func (b *Buffer) Commit() {
	prev := b.published.Load()
	cursor := b.Cursor()
	sbLen := b.sb.Len()

	if prev != nil && !b.anyDirty() &&
		prev.Cursor == cursor &&
		prev.Alternate == b.Alternate() &&
		prev.Title == b.title &&
		prev.Scrollback == sbLen {
		return
	}

	reuse := prev != nil && prev.Rows == b.rows && prev.Cols == b.cols
	lines := make([]Line, b.rows)
	for i := range lines {
		if reuse && !b.dirty[i] {
			lines[i] = prev.Lines[i]
			continue
		}
		lines[i] = b.g.lines[i].clone()
		b.dirty[i] = false
	}

	b.generation++
	b.published.Store(&Snapshot{
		Rows:       b.rows,
		Cols:       b.cols,
		Lines:      lines,
		Cursor:     cursor,
		Alternate:  b.Alternate(),
		Title:      b.title,
		Generation: b.generation,
		Scrollback: sbLen,
	})
}

func (b *Buffer) anyDirty() bool {
	for _, d := range b.dirty {
		if d {
			return true
		}
	}
	return false
}
