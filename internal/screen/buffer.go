package screen

import (
	"sync/atomic"
)

// Direction selects which way Scroll moves content.
type Direction int

const (
	// ScrollUp moves content towards the top; blank rows appear at the bottom.
	ScrollUp Direction = iota
	// ScrollDown moves content towards the bottom; blank rows appear at the top.
	ScrollDown
)

// Cursor is the write position and its visibility.
type Cursor struct {
	Row     int
	Col     int
	Visible bool
}

type savedCursor struct {
	row, col    int
	pen         Pen
	pendingWrap bool
	valid       bool
}

// grid is the state that is swapped when switching to the alternate screen.
type grid struct {
	lines       []Line
	row, col    int
	pendingWrap bool
	top, bottom int
	saved       savedCursor
	// below holds rows a shrink cut off under the last row. They come back
	// on the next grow unless the screen scrolled or was erased meanwhile.
	below []Line
}

// Buffer is the terminal grid of one session.
//
// A Buffer has a single writer: every mutating method must be called from the
// same goroutine. Readers on other goroutines use Snapshot, which returns the
// state as of the last Commit and never waits for the writer.
type Buffer struct {
	rows, cols int
	g          grid
	primary    *grid
	pen        Pen
	visible    bool
	autowrap   bool
	title      string
	sb         *Scrollback

	dirty      []bool
	generation uint64
	published  atomic.Pointer[Snapshot]
}

// New returns a blank rows x cols buffer whose scrollback keeps at most
// scrollback rows.
func New(rows, cols, scrollback int) *Buffer {
	rows, cols = clampSize(rows, cols)
	b := &Buffer{
		rows:     rows,
		cols:     cols,
		visible:  true,
		autowrap: true,
		sb:       NewScrollback(scrollback),
	}
	b.g = b.blankGrid(rows, cols)
	b.dirty = make([]bool, rows)
	b.touchAll()
	b.Commit()
	return b
}

func clampSize(rows, cols int) (int, int) {
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}
	return rows, cols
}

func (b *Buffer) blankGrid(rows, cols int) grid {
	g := grid{lines: make([]Line, rows), bottom: rows}
	for i := range g.lines {
		g.lines[i] = newLine(cols, Pen{})
	}
	return g
}

// Rows returns the grid height.
func (b *Buffer) Rows() int { return b.rows }

// Cols returns the grid width.
func (b *Buffer) Cols() int { return b.cols }

// Cursor returns the current cursor.
func (b *Buffer) Cursor() Cursor {
	return Cursor{Row: b.g.row, Col: b.g.col, Visible: b.visible}
}

// ScrollRegion returns the active region as a half-open row range.
func (b *Buffer) ScrollRegion() (top, bottom int) {
	return b.g.top, b.g.bottom
}

// Scrollback returns the buffer's scrollback.
func (b *Buffer) Scrollback() *Scrollback { return b.sb }

// Alternate reports whether the alternate screen is active.
func (b *Buffer) Alternate() bool { return b.primary != nil }

// Pen returns the rendition used for new cells.
func (b *Buffer) Pen() Pen { return b.pen }

// SetPen sets the rendition used for new cells and erasures.
func (b *Buffer) SetPen(p Pen) { b.pen = p }

// SetTitle records the window title.
func (b *Buffer) SetTitle(t string) {
	if b.title != t {
		b.title = t
		b.touchAll()
	}
}

// SetCursorVisible shows or hides the cursor.
func (b *Buffer) SetCursorVisible(v bool) {
	if b.visible != v {
		b.visible = v
		b.touchRow(b.g.row)
	}
}

// SetAutowrap toggles wrapping at the right margin.
func (b *Buffer) SetAutowrap(on bool) {
	b.autowrap = on
	if !on {
		b.g.pendingWrap = false
	}
}

// Line returns a copy of a grid row.
func (b *Buffer) Line(row int) Line {
	if row < 0 || row >= b.rows {
		return Line{}
	}
	return b.g.lines[row].clone()
}

// WriteCell stores c at (row, col). Writes outside the grid are ignored. A
// wide character that loses one of its halves is blanked.
func (b *Buffer) WriteCell(row, col int, c Cell) {
	if row < 0 || row >= b.rows || col < 0 || col >= b.cols {
		return
	}
	cells := b.g.lines[row].Cells
	old := cells[col]
	if old.Width == 2 && col+1 < b.cols {
		cells[col+1] = Blank(Pen{})
	}
	if old.Continuation() && col > 0 && !c.Continuation() {
		cells[col-1] = Blank(Pen{})
	}
	cells[col] = c
	b.touchRow(row)
}

// MoveCursor places the cursor, clamped to the grid.
func (b *Buffer) MoveCursor(row, col int) {
	b.g.row = clamp(row, 0, b.rows-1)
	b.g.col = clamp(col, 0, b.cols-1)
	b.g.pendingWrap = false
	b.touchRow(b.g.row)
}

// Put writes r with the current pen at the cursor and advances it, wrapping
// at the right margin when autowrap is on.
func (b *Buffer) Put(r rune, width int) {
	if width <= 0 || width > b.cols {
		return
	}
	if b.g.pendingWrap {
		b.g.pendingWrap = false
		if b.autowrap {
			b.wrap()
		}
	}
	if b.g.col+width > b.cols {
		if b.autowrap {
			for c := b.g.col; c < b.cols; c++ {
				b.WriteCell(b.g.row, c, Blank(b.pen))
			}
			b.wrap()
		} else {
			b.g.col = b.cols - width
		}
	}

	row, col := b.g.row, b.g.col
	b.WriteCell(row, col, Cell{Ch: r, Width: uint8(width), Pen: b.pen})
	if width == 2 {
		b.WriteCell(row, col+1, Cell{Width: 0, Pen: b.pen})
	}
	if col+width >= b.cols {
		b.g.col = b.cols - 1
		b.g.pendingWrap = true
	} else {
		b.g.col = col + width
	}
}

func (b *Buffer) wrap() {
	b.g.lines[b.g.row].Wrapped = true
	b.touchRow(b.g.row)
	b.g.col = 0
	b.LineFeed()
}

// PendingWrap reports whether the next printed character wraps first.
func (b *Buffer) PendingWrap() bool { return b.g.pendingWrap }

// CarriageReturn moves the cursor to column 0.
func (b *Buffer) CarriageReturn() {
	b.g.col = 0
	b.g.pendingWrap = false
}

// Backspace moves the cursor one column left.
func (b *Buffer) Backspace() {
	if b.g.col > 0 {
		b.g.col--
	}
	b.g.pendingWrap = false
}

// Tab advances to the next multiple-of-eight column.
func (b *Buffer) Tab(n int) {
	for ; n > 0; n-- {
		b.g.col = min((b.g.col/8+1)*8, b.cols-1)
	}
	b.g.pendingWrap = false
}

// BackTab moves to the previous multiple-of-eight column.
func (b *Buffer) BackTab(n int) {
	for ; n > 0 && b.g.col > 0; n-- {
		b.g.col = ((b.g.col - 1) / 8) * 8
	}
	b.g.pendingWrap = false
}

// LineFeed moves down one row, scrolling the region when the cursor is on its
// bottom row.
func (b *Buffer) LineFeed() {
	b.g.pendingWrap = false
	switch {
	case b.g.row == b.g.bottom-1:
		b.Scroll(ScrollUp, 1)
	case b.g.row < b.rows-1:
		b.g.row++
	}
}

// ReverseIndex moves up one row, scrolling the region down when the cursor is
// on its top row.
func (b *Buffer) ReverseIndex() {
	b.g.pendingWrap = false
	switch {
	case b.g.row == b.g.top:
		b.Scroll(ScrollDown, 1)
	case b.g.row > 0:
		b.g.row--
	}
}

// Scroll moves the content of the scroll region by n rows. Rows leaving the
// top of a full-screen region on the primary screen go to scrollback; all
// other evicted rows are discarded.
func (b *Buffer) Scroll(dir Direction, n int) {
	b.scrollLines(b.g.top, b.g.bottom, dir, n)
}

func (b *Buffer) scrollLines(top, bottom int, dir Direction, n int) {
	height := bottom - top
	if n <= 0 || height <= 0 {
		return
	}
	n = min(n, height)
	lines := b.g.lines

	if dir == ScrollUp {
		if bottom == b.rows {
			b.g.below = nil
		}
		if b.primary == nil && top == 0 && bottom == b.rows {
			for i := 0; i < n; i++ {
				b.sb.Push(lines[i])
			}
		}
		copy(lines[top:bottom-n], lines[top+n:bottom])
		for i := bottom - n; i < bottom; i++ {
			lines[i] = newLine(b.cols, b.pen)
		}
	} else {
		copy(lines[top+n:bottom], lines[top:bottom-n])
		for i := top; i < top+n; i++ {
			lines[i] = newLine(b.cols, b.pen)
		}
	}
	for i := top; i < bottom; i++ {
		b.touchRow(i)
	}
}

// SetScrollRegion sets the half-open region [top, bottom) and homes the
// cursor. Invalid regions are ignored.
func (b *Buffer) SetScrollRegion(top, bottom int) {
	if bottom > b.rows {
		bottom = b.rows
	}
	if top < 0 || top+1 >= bottom {
		return
	}
	b.g.top, b.g.bottom = top, bottom
	b.MoveCursor(0, 0)
}

// InsertLines inserts n blank rows at the cursor row, inside the region.
func (b *Buffer) InsertLines(n int) {
	if b.g.row < b.g.top || b.g.row >= b.g.bottom {
		return
	}
	b.scrollLines(b.g.row, b.g.bottom, ScrollDown, n)
	b.g.col = 0
	b.g.pendingWrap = false
}

// DeleteLines removes n rows at the cursor row, inside the region.
func (b *Buffer) DeleteLines(n int) {
	if b.g.row < b.g.top || b.g.row >= b.g.bottom {
		return
	}
	// Deleted rows never reach scrollback, even for a full-screen region.
	lines := b.g.lines
	top, bottom := b.g.row, b.g.bottom
	n = min(n, bottom-top)
	if n <= 0 {
		return
	}
	copy(lines[top:bottom-n], lines[top+n:bottom])
	for i := bottom - n; i < bottom; i++ {
		lines[i] = newLine(b.cols, b.pen)
	}
	for i := top; i < bottom; i++ {
		b.touchRow(i)
	}
	b.g.col = 0
	b.g.pendingWrap = false
}

// InsertChars shifts the rest of the cursor row right by n blank cells.
func (b *Buffer) InsertChars(n int) {
	cells := b.g.lines[b.g.row].Cells
	col := b.g.col
	n = min(n, b.cols-col)
	if n <= 0 {
		return
	}
	copy(cells[col+n:], cells[col:b.cols-n])
	for i := col; i < col+n; i++ {
		cells[i] = Blank(b.pen)
	}
	b.fixWideEdges(b.g.row)
	b.g.pendingWrap = false
	b.touchRow(b.g.row)
}

// DeleteChars removes n cells at the cursor, pulling the rest of the row left.
func (b *Buffer) DeleteChars(n int) {
	cells := b.g.lines[b.g.row].Cells
	col := b.g.col
	n = min(n, b.cols-col)
	if n <= 0 {
		return
	}
	copy(cells[col:], cells[col+n:])
	for i := b.cols - n; i < b.cols; i++ {
		cells[i] = Blank(b.pen)
	}
	b.fixWideEdges(b.g.row)
	b.g.pendingWrap = false
	b.touchRow(b.g.row)
}

// EraseChars blanks n cells starting at the cursor without moving anything.
func (b *Buffer) EraseChars(n int) {
	b.clearRange(b.g.row, b.g.col, b.g.col+n)
	b.g.pendingWrap = false
}

// EraseInLine clears part of the cursor row: 0 to the end, 1 to the start
// (inclusive), 2 the whole row.
func (b *Buffer) EraseInLine(mode int) {
	row := b.g.row
	switch mode {
	case 0:
		b.clearRange(row, b.g.col, b.cols)
		b.g.lines[row].Wrapped = false
	case 1:
		b.clearRange(row, 0, b.g.col+1)
	case 2:
		b.clearRange(row, 0, b.cols)
		b.g.lines[row].Wrapped = false
	}
	b.g.pendingWrap = false
}

// EraseInDisplay clears part of the grid: 0 from the cursor to the end, 1
// from the start to the cursor, 2 everything, 3 the scrollback.
func (b *Buffer) EraseInDisplay(mode int) {
	if mode != 1 {
		b.g.below = nil
	}
	switch mode {
	case 0:
		b.EraseInLine(0)
		for r := b.g.row + 1; r < b.rows; r++ {
			b.clearRow(r)
		}
	case 1:
		for r := 0; r < b.g.row; r++ {
			b.clearRow(r)
		}
		b.EraseInLine(1)
	case 2:
		for r := 0; r < b.rows; r++ {
			b.clearRow(r)
		}
	case 3:
		b.sb.Clear()
		b.touchAll()
	}
	b.g.pendingWrap = false
}

// FillAlignment fills the grid with 'E' (DECALN).
func (b *Buffer) FillAlignment() {
	for r := 0; r < b.rows; r++ {
		for c := 0; c < b.cols; c++ {
			b.g.lines[r].Cells[c] = Cell{Ch: 'E', Width: 1}
		}
		b.g.lines[r].Wrapped = false
		b.touchRow(r)
	}
	b.MoveCursor(0, 0)
}

func (b *Buffer) clearRow(r int) {
	b.clearRange(r, 0, b.cols)
	b.g.lines[r].Wrapped = false
}

func (b *Buffer) clearRange(row, from, to int) {
	from = max(from, 0)
	to = min(to, b.cols)
	if from >= to {
		return
	}
	cells := b.g.lines[row].Cells
	for i := from; i < to; i++ {
		cells[i] = Blank(b.pen)
	}
	b.fixWideEdges(row)
	b.touchRow(row)
}

// fixWideEdges blanks halves of wide characters that lost their partner.
func (b *Buffer) fixWideEdges(row int) {
	cells := b.g.lines[row].Cells
	for i := range cells {
		switch {
		case cells[i].Width == 2 && (i+1 >= len(cells) || !cells[i+1].Continuation()):
			cells[i] = Blank(cells[i].Pen)
		case cells[i].Continuation() && (i == 0 || cells[i-1].Width != 2):
			cells[i] = Blank(cells[i].Pen)
		}
	}
}

// SaveCursor records position, pen and pending wrap for the active screen.
func (b *Buffer) SaveCursor() {
	b.g.saved = savedCursor{
		row:         b.g.row,
		col:         b.g.col,
		pen:         b.pen,
		pendingWrap: b.g.pendingWrap,
		valid:       true,
	}
}

// RestoreCursor restores the state recorded by SaveCursor, or homes the
// cursor with a default pen when nothing was saved.
func (b *Buffer) RestoreCursor() {
	s := b.g.saved
	if !s.valid {
		b.pen = Pen{}
		b.MoveCursor(0, 0)
		return
	}
	b.pen = s.pen
	b.MoveCursor(s.row, s.col)
	b.g.pendingWrap = s.pendingWrap && b.g.col == b.cols-1
}

// EnterAlternate switches to a blank alternate screen, keeping the primary
// screen's rows, cursor and region aside until ExitAlternate.
func (b *Buffer) EnterAlternate() {
	if b.primary != nil {
		return
	}
	saved := b.g
	b.primary = &saved
	b.g = b.blankGrid(b.rows, b.cols)
	b.g.row, b.g.col = saved.row, saved.col
	b.touchAll()
}

// ExitAlternate discards the alternate screen and restores the primary one.
func (b *Buffer) ExitAlternate() {
	if b.primary == nil {
		return
	}
	b.g = *b.primary
	b.primary = nil
	b.touchAll()
}

// Reset returns the buffer to its initial state. Scrollback is kept.
func (b *Buffer) Reset() {
	b.primary = nil
	b.g = b.blankGrid(b.rows, b.cols)
	b.pen = Pen{}
	b.visible = true
	b.autowrap = true
	b.title = ""
	b.touchAll()
}

func (b *Buffer) touchRow(r int) {
	if r >= 0 && r < len(b.dirty) {
		b.dirty[r] = true
	}
}

func (b *Buffer) touchAll() {
	for i := range b.dirty {
		b.dirty[i] = true
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
