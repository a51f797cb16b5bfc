package screen

// Resize changes the grid to rows x cols. The primary screen is reflowed:
// wrapped rows are rejoined into logical lines and wrapped again at the new
// width, and the cursor keeps its place in the text. The alternate screen is
// cropped or padded. The scroll region resets to the full screen.
func (b *Buffer) Resize(rows, cols int) {
	rows, cols = clampSize(rows, cols)
	if rows == b.rows && cols == b.cols {
		return
	}

	if b.primary != nil {
		b.g = crop(b.g, rows, cols)
		reflowed := b.reflow(*b.primary, b.rows, rows, cols)
		b.primary = &reflowed
	} else {
		b.g = b.reflow(b.g, b.rows, rows, cols)
	}
	b.rows, b.cols = rows, cols
	b.dirty = make([]bool, rows)
	b.touchAll()
}

func (b *Buffer) reflow(g grid, oldRows, rows, cols int) grid {
	lastUsed := g.row
	for i := len(g.lines) - 1; i > lastUsed; i-- {
		if !g.lines[i].blank() {
			lastUsed = i
			break
		}
	}
	if len(g.below) > 0 {
		lastUsed = len(g.lines) - 1
	}

	// A full screen takes its newest scrollback rows back into the reflow so
	// lines evicted by an earlier resize return; whatever does not fit is
	// evicted again below. Rows kept under the screen by an earlier shrink
	// follow the last row.
	var src []Line
	if lastUsed == oldRows-1 {
		src = b.sb.popNewest(rows)
	}
	pulled := len(src)
	src = append(src, g.lines[:lastUsed+1]...)
	src = append(src, g.below...)
	cursorRow := g.row + pulled
	cursorCol := g.col
	if g.pendingWrap {
		cursorCol++
	}

	var (
		out            []Line
		newRow, newCol int
		pendingWrap    bool
		acc            []Cell
	)
	flush := func(cursorOffset int) {
		wrapped, starts := wrapCells(acc, cols)
		if cursorOffset >= 0 {
			r := len(starts) - 1
			for r > 0 && starts[r] > cursorOffset {
				r--
			}
			newRow = len(out) + r
			newCol = cursorOffset - starts[r]
			pendingWrap = false
			if newCol >= cols {
				newCol = cols - 1
				pendingWrap = true
			}
		}
		out = append(out, wrapped...)
		acc = nil
	}

	cursorOffset := -1
	for i, l := range src {
		if i == cursorRow {
			cursorOffset = len(acc) + cursorCol
		}
		if l.Wrapped && i < len(src)-1 {
			acc = append(acc, l.Cells...)
			continue
		}
		cells := trimTrailing(l.Cells)
		if cursorOffset > len(acc)+len(cells) {
			// keep the blanks the cursor sits on so it lands on the same column
			cells = l.Cells[:min(len(l.Cells), cursorOffset-len(acc))]
		}
		acc = append(acc, cells...)
		flush(cursorOffset)
		cursorOffset = -1
	}

	// Rows above the cursor go to scrollback until the cursor row fits; the
	// rest of the overflow is kept under the screen for the next grow.
	var below []Line
	if len(out) > rows {
		evict := min(len(out)-rows, newRow)
		for _, l := range out[:evict] {
			b.sb.Push(l)
		}
		out = out[evict:]
		newRow -= evict
		if len(out) > rows {
			below = out[rows:]
			out = out[:rows:rows]
		}
	}
	for len(out) < rows {
		out = append(out, newLine(cols, Pen{}))
	}

	saved := g.saved
	saved.row = clamp(saved.row, 0, rows-1)
	saved.col = clamp(saved.col, 0, cols-1)
	return grid{
		lines:       out,
		row:         clamp(newRow, 0, rows-1),
		col:         clamp(newCol, 0, cols-1),
		pendingWrap: pendingWrap,
		top:         0,
		bottom:      rows,
		saved:       saved,
		below:       below,
	}
}

// crop resizes a grid without reflowing, keeping the top-left corner.
func crop(g grid, rows, cols int) grid {
	out := make([]Line, rows)
	for i := range out {
		out[i] = newLine(cols, Pen{})
		if i < len(g.lines) {
			copy(out[i].Cells, g.lines[i].Cells)
		}
	}
	for i := range out {
		cells := out[i].Cells
		if n := len(cells); n > 0 && cells[n-1].Width == 2 {
			cells[n-1] = Blank(cells[n-1].Pen)
		}
	}
	saved := g.saved
	saved.row = clamp(saved.row, 0, rows-1)
	saved.col = clamp(saved.col, 0, cols-1)
	return grid{
		lines:  out,
		row:    clamp(g.row, 0, rows-1),
		col:    clamp(g.col, 0, cols-1),
		top:    0,
		bottom: rows,
		saved:  saved,
	}
}

// wrapCells lays a logical line out over rows of cols cells. It returns the
// rows and the index into cells at which each row starts. Every row but the
// last is marked wrapped; there is always at least one row.
func wrapCells(cells []Cell, cols int) ([]Line, []int) {
	var (
		rows   []Line
		starts []int
	)
	cur := newLine(cols, Pen{})
	col := 0
	start := 0
	for i := 0; i < len(cells); i++ {
		c := cells[i]
		if c.Continuation() {
			continue
		}
		w := int(c.Width)
		if w > cols {
			c, w = Blank(c.Pen), 1
		}
		if col+w > cols {
			cur.Wrapped = true
			rows = append(rows, cur)
			starts = append(starts, start)
			cur = newLine(cols, Pen{})
			col = 0
			start = i
		}
		cur.Cells[col] = c
		if w == 2 {
			cur.Cells[col+1] = Cell{Width: 0, Pen: c.Pen}
		}
		col += w
	}
	rows = append(rows, cur)
	starts = append(starts, start)
	return rows, starts
}

func trimTrailing(cells []Cell) []Cell {
	n := len(cells)
	for n > 0 && cells[n-1].isDefaultBlank() {
		n--
	}
	return cells[:n]
}
