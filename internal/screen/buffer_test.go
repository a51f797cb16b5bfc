package screen

import (
	"fmt"
	"testing"
)

func putString(b *Buffer, s string) {
	for _, r := range s {
		b.Put(r, RuneWidth(r))
	}
}

func newline(b *Buffer) {
	b.CarriageReturn()
	b.LineFeed()
}

func TestPutAdvancesCursor(t *testing.T) {
	b := New(4, 10, 0)
	putString(b, "Hello")
	newline(b)
	b.Commit()

	snap := b.Snapshot()
	if got := snap.Lines[0].String(); got != "Hello" {
		t.Errorf("row 0 = %q, want %q", got, "Hello")
	}
	if snap.Cursor.Row != 1 || snap.Cursor.Col != 0 {
		t.Errorf("cursor = (%d,%d), want (1,0)", snap.Cursor.Row, snap.Cursor.Col)
	}
}

func TestPutWrapsAndMarksRow(t *testing.T) {
	b := New(3, 5, 0)
	putString(b, "abcdefg")
	b.Commit()

	snap := b.Snapshot()
	if got := snap.Lines[0].String(); got != "abcde" {
		t.Errorf("row 0 = %q, want %q", got, "abcde")
	}
	if !snap.Lines[0].Wrapped {
		t.Error("row 0 should be marked wrapped")
	}
	if got := snap.Lines[1].String(); got != "fg" {
		t.Errorf("row 1 = %q, want %q", got, "fg")
	}
	if snap.Lines[1].Wrapped {
		t.Error("row 1 should not be marked wrapped")
	}
}

func TestPendingWrapKeepsCursorInBounds(t *testing.T) {
	b := New(2, 4, 0)
	putString(b, "abcd")

	c := b.Cursor()
	if c.Col != 3 || !b.PendingWrap() {
		t.Errorf("cursor col = %d pending = %v, want 3 true", c.Col, b.PendingWrap())
	}
	b.CarriageReturn()
	if b.PendingWrap() {
		t.Error("carriage return should clear pending wrap")
	}
}

func TestWideCharacters(t *testing.T) {
	b := New(2, 5, 0)
	putString(b, "ab世")
	b.Commit()

	snap := b.Snapshot()
	if c := snap.Cell(0, 2); c.Ch != '世' || c.Width != 2 {
		t.Errorf("cell (0,2) = %q width %d, want 世 width 2", c.Ch, c.Width)
	}
	if !snap.Cell(0, 3).Continuation() {
		t.Error("cell (0,3) should be a continuation")
	}

	// a wide character that does not fit wraps as a whole
	putString(b, "世")
	b.Commit()
	snap = b.Snapshot()
	if got := snap.Lines[1].String(); got != "世" {
		t.Errorf("row 1 = %q, want %q", got, "世")
	}

	// overwriting the continuation blanks the orphaned head
	b.WriteCell(1, 1, Cell{Ch: 'x', Width: 1})
	b.Commit()
	snap = b.Snapshot()
	if got := snap.Lines[1].String(); got != " x" {
		t.Errorf("row 1 after overwrite = %q, want %q", got, " x")
	}
}

func TestEraseInLine(t *testing.T) {
	b := New(4, 10, 0)
	for r := 0; r < 4; r++ {
		b.MoveCursor(r, 0)
		putString(b, "0123456789")
	}
	b.MoveCursor(2, 5)
	putString(b, "X")
	b.MoveCursor(2, 5)
	b.EraseInLine(0)
	b.Commit()

	snap := b.Snapshot()
	if got := snap.Lines[2].String(); got != "01234" {
		t.Errorf("row 2 = %q, want %q", got, "01234")
	}
	for _, r := range []int{0, 1, 3} {
		if got := snap.Lines[r].String(); got != "0123456789" {
			t.Errorf("row %d = %q, want untouched", r, got)
		}
	}
}

func TestEraseInDisplay(t *testing.T) {
	tests := []struct {
		mode int
		want []string
	}{
		{0, []string{"aaaa", "b", "", ""}},
		{1, []string{"", "    bb", "cccccc", "dddddd"}},
		{2, []string{"", "", "", ""}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("mode %d", tt.mode), func(t *testing.T) {
			b := New(4, 6, 0)
			for r, s := range []string{"aaaa", "bbbbbb", "cccccc", "dddddd"} {
				b.MoveCursor(r, 0)
				putString(b, s)
			}
			b.MoveCursor(1, 1)
			if tt.mode == 1 {
				b.MoveCursor(1, 3)
			}
			b.EraseInDisplay(tt.mode)
			b.Commit()

			got := b.Snapshot().Text()
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("row %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestScrollFeedsScrollbackOnlyForFullScreen(t *testing.T) {
	b := New(4, 6, 10)
	for r, s := range []string{"one", "two", "three", "four"} {
		b.MoveCursor(r, 0)
		putString(b, s)
	}

	b.Scroll(ScrollUp, 1)
	if n := b.Scrollback().Len(); n != 1 {
		t.Fatalf("scrollback len = %d, want 1", n)
	}
	if got := b.Scrollback().Line(0).String(); got != "one" {
		t.Errorf("scrollback[0] = %q, want %q", got, "one")
	}

	b.SetScrollRegion(1, 3)
	b.Scroll(ScrollUp, 1)
	if n := b.Scrollback().Len(); n != 1 {
		t.Errorf("partial region scroll grew scrollback to %d", n)
	}
	b.Commit()
	got := b.Snapshot().Text()
	want := []string{"two", "four", "", ""}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestScrollDownInsertsAtTop(t *testing.T) {
	b := New(3, 4, 10)
	for r, s := range []string{"a", "b", "c"} {
		b.MoveCursor(r, 0)
		putString(b, s)
	}
	b.Scroll(ScrollDown, 1)
	b.Commit()

	got := b.Snapshot().Text()
	want := []string{"", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d = %q, want %q", i, got[i], want[i])
		}
	}
	if b.Scrollback().Len() != 0 {
		t.Error("scrolling down must not touch scrollback")
	}
}

func TestScrollbackBound(t *testing.T) {
	const rows = 10
	b := New(rows, 20, 100)
	for i := 0; i < 150; i++ {
		putString(b, fmt.Sprintf("line %d", i))
		newline(b)
	}
	b.Commit()

	sb := b.Scrollback()
	if sb.Len() != 100 {
		t.Fatalf("scrollback len = %d, want 100", sb.Len())
	}
	// 150 lines plus the cursor row: 141 rows were evicted, the newest 100 kept
	if got := sb.Line(0).String(); got != "line 41" {
		t.Errorf("oldest = %q, want %q", got, "line 41")
	}
	if got := sb.Line(99).String(); got != "line 140" {
		t.Errorf("newest = %q, want %q", got, "line 140")
	}
	if got := b.Snapshot().Lines[0].String(); got != "line 141" {
		t.Errorf("row 0 = %q, want %q", got, "line 141")
	}
	if len(sb.entries) != 100 {
		t.Errorf("ring holds %d entries", len(sb.entries))
	}
}

func TestInsertDeleteLines(t *testing.T) {
	b := New(4, 4, 10)
	for r, s := range []string{"a", "b", "c", "d"} {
		b.MoveCursor(r, 0)
		putString(b, s)
	}
	b.MoveCursor(1, 2)
	b.InsertLines(1)
	b.Commit()
	got := b.Snapshot().Text()
	want := []string{"a", "", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("after IL row %d = %q, want %q", i, got[i], want[i])
		}
	}

	b.DeleteLines(2)
	b.Commit()
	got = b.Snapshot().Text()
	want = []string{"a", "c", "", ""}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("after DL row %d = %q, want %q", i, got[i], want[i])
		}
	}
	if b.Scrollback().Len() != 0 {
		t.Error("deleted lines must not enter scrollback")
	}
}

func TestInsertDeleteChars(t *testing.T) {
	b := New(1, 6, 0)
	putString(b, "abcdef")
	b.MoveCursor(0, 1)
	b.InsertChars(2)
	b.Commit()
	if got := b.Snapshot().Lines[0].String(); got != "a  bcd" {
		t.Errorf("after ICH = %q, want %q", got, "a  bcd")
	}
	b.DeleteChars(3)
	b.Commit()
	if got := b.Snapshot().Lines[0].String(); got != "acd" {
		t.Errorf("after DCH = %q, want %q", got, "acd")
	}
}

func TestAlternateScreenPreservesPrimary(t *testing.T) {
	b := New(3, 8, 10)
	putString(b, "shell")
	b.MoveCursor(1, 2)

	b.EnterAlternate()
	b.MoveCursor(0, 0)
	putString(b, "editor")
	for i := 0; i < 5; i++ {
		b.LineFeed()
	}
	b.Commit()
	if !b.Snapshot().Alternate {
		t.Fatal("snapshot should report the alternate screen")
	}
	if b.Scrollback().Len() != 0 {
		t.Error("alternate screen scrolling must not feed scrollback")
	}

	b.ExitAlternate()
	b.Commit()
	snap := b.Snapshot()
	if got := snap.Lines[0].String(); got != "shell" {
		t.Errorf("row 0 = %q, want %q", got, "shell")
	}
	if snap.Cursor.Row != 1 || snap.Cursor.Col != 2 {
		t.Errorf("cursor = (%d,%d), want (1,2)", snap.Cursor.Row, snap.Cursor.Col)
	}
}

func TestSaveRestoreCursor(t *testing.T) {
	b := New(5, 10, 0)
	b.SetPen(Pen{Attrs: AttrBold})
	b.MoveCursor(2, 3)
	b.SaveCursor()
	b.SetPen(Pen{})
	b.MoveCursor(4, 9)
	b.RestoreCursor()

	c := b.Cursor()
	if c.Row != 2 || c.Col != 3 {
		t.Errorf("cursor = (%d,%d), want (2,3)", c.Row, c.Col)
	}
	if !b.Pen().Attrs.Has(AttrBold) {
		t.Error("pen should be restored")
	}
}

func TestMoveCursorClamps(t *testing.T) {
	b := New(5, 10, 0)
	b.MoveCursor(100, -4)
	c := b.Cursor()
	if c.Row != 4 || c.Col != 0 {
		t.Errorf("cursor = (%d,%d), want (4,0)", c.Row, c.Col)
	}
}

func TestSetScrollRegionRejectsInvalid(t *testing.T) {
	b := New(5, 10, 0)
	b.SetScrollRegion(3, 3)
	if top, bottom := b.ScrollRegion(); top != 0 || bottom != 5 {
		t.Errorf("region = [%d,%d), want [0,5)", top, bottom)
	}
	b.SetScrollRegion(1, 4)
	if top, bottom := b.ScrollRegion(); top != 1 || bottom != 4 {
		t.Errorf("region = [%d,%d), want [1,4)", top, bottom)
	}
}

func TestSnapshotIsStableWhileWriting(t *testing.T) {
	b := New(2, 10, 0)
	putString(b, "first")
	b.Commit()
	snap := b.Snapshot()
	gen := snap.Generation

	putString(b, " more")
	if got := snap.Lines[0].String(); got != "first" {
		t.Errorf("published snapshot changed to %q", got)
	}
	if b.Snapshot().Generation != gen {
		t.Error("uncommitted writes must not be visible")
	}

	b.Commit()
	if b.Snapshot().Generation == gen {
		t.Error("commit should publish a new generation")
	}
	b.Commit()
	if b.Snapshot().Generation != gen+1 {
		t.Error("commit without changes should not publish")
	}
}
