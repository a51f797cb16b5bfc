package vt

import (
	"fmt"
	"image/color"

	"github.com/danielgatis/go-ansicode"

	"github.com/abdullathedruid/devhub/internal/screen"
)

// Backspace moves the cursor one position to the left.
func (p *Interpreter) Backspace() {
	p.buf.Backspace()
}

// Bell rings the bell.
func (p *Interpreter) Bell() {}

// CarriageReturn moves the cursor to the beginning of the line.
func (p *Interpreter) CarriageReturn() {
	p.buf.CarriageReturn()
}

// ClearLine clears the line.
func (p *Interpreter) ClearLine(mode ansicode.LineClearMode) {
	switch mode {
	case ansicode.LineClearModeRight:
		p.buf.EraseInLine(0)
	case ansicode.LineClearModeLeft:
		p.buf.EraseInLine(1)
	case ansicode.LineClearModeAll:
		p.buf.EraseInLine(2)
	}
}

// ClearScreen clears the screen.
func (p *Interpreter) ClearScreen(mode ansicode.ClearMode) {
	switch mode {
	case ansicode.ClearModeBelow:
		p.buf.EraseInDisplay(0)
	case ansicode.ClearModeAbove:
		p.buf.EraseInDisplay(1)
	case ansicode.ClearModeAll:
		p.buf.EraseInDisplay(2)
	case ansicode.ClearModeSaved:
		p.buf.EraseInDisplay(3)
	}
}

// ClearTabs clears the tab stops. Tab stops are fixed every eight columns.
func (p *Interpreter) ClearTabs(mode ansicode.TabulationClearMode) {}

// ClipboardLoad loads data from the clipboard.
func (p *Interpreter) ClipboardLoad(clipboard byte, terminator string) {}

// ClipboardStore stores data in the clipboard.
func (p *Interpreter) ClipboardStore(clipboard byte, data []byte) {}

// ConfigureCharset configures the charset.
func (p *Interpreter) ConfigureCharset(index ansicode.CharsetIndex, charset ansicode.Charset) {
	if int(index) < len(p.charsets) {
		p.charsets[index] = charset
	}
}

// Decaln runs the DECALN command.
func (p *Interpreter) Decaln() {
	p.buf.FillAlignment()
}

// DeleteChars deletes n characters.
func (p *Interpreter) DeleteChars(n int) {
	p.buf.DeleteChars(count(n))
}

// DeleteLines deletes n lines.
func (p *Interpreter) DeleteLines(n int) {
	p.buf.DeleteLines(count(n))
}

// DeviceStatus reports the device status.
func (p *Interpreter) DeviceStatus(n int) {
	switch n {
	case 5:
		p.respond("\x1b[0n")
	case 6:
		cur := p.buf.Cursor()
		p.respond(fmt.Sprintf("\x1b[%d;%dR", cur.Row+1, cur.Col+1))
	}
}

// EraseChars erases n characters.
func (p *Interpreter) EraseChars(n int) {
	p.buf.EraseChars(count(n))
}

// Goto moves the cursor to the specified position.
func (p *Interpreter) Goto(y int, x int) {
	p.buf.MoveCursor(coord(y), coord(x))
}

// GotoCol moves the cursor to the specified column.
func (p *Interpreter) GotoCol(n int) {
	p.buf.MoveCursor(p.buf.Cursor().Row, coord(n))
}

// GotoLine moves the cursor to the specified line.
func (p *Interpreter) GotoLine(n int) {
	p.buf.MoveCursor(coord(n), p.buf.Cursor().Col)
}

// HorizontalTabSet sets the current position as a tab stop.
func (p *Interpreter) HorizontalTabSet() {}

// IdentifyTerminal answers primary and secondary device attribute queries.
func (p *Interpreter) IdentifyTerminal(b byte) {
	switch b {
	case 0:
		p.respond("\x1b[?62;22c")
	case '>':
		p.respond("\x1b[>0;0;0c")
	}
}

// Input inputs a rune to be displayed.
func (p *Interpreter) Input(r rune) {
	if p.charsets[p.active] == ansicode.CharsetLineDrawing {
		if g, ok := lineDrawing[r]; ok {
			r = g
		}
	}
	p.buf.Put(r, screen.RuneWidth(r))
}

// InsertBlank inserts n blank characters.
func (p *Interpreter) InsertBlank(n int) {
	p.buf.InsertChars(count(n))
}

// InsertBlankLines inserts n blank lines.
func (p *Interpreter) InsertBlankLines(n int) {
	p.buf.InsertLines(count(n))
}

// LineFeed moves the cursor to the next line.
func (p *Interpreter) LineFeed() {
	p.buf.LineFeed()
}

// MoveBackward moves the cursor backward n columns.
func (p *Interpreter) MoveBackward(n int) {
	cur := p.buf.Cursor()
	p.buf.MoveCursor(cur.Row, cur.Col-count(n))
}

// MoveBackwardTabs moves the cursor backward n tab stops.
func (p *Interpreter) MoveBackwardTabs(n int) {
	p.buf.BackTab(count(n))
}

// MoveDown moves the cursor down n lines.
func (p *Interpreter) MoveDown(n int) {
	cur := p.buf.Cursor()
	p.buf.MoveCursor(cur.Row+count(n), cur.Col)
}

// MoveDownCr moves the cursor down and to the beginning of the line.
func (p *Interpreter) MoveDownCr(n int) {
	p.buf.MoveCursor(p.buf.Cursor().Row+lineCount(n), 0)
}

// MoveForward moves the cursor forward n columns.
func (p *Interpreter) MoveForward(n int) {
	cur := p.buf.Cursor()
	p.buf.MoveCursor(cur.Row, cur.Col+count(n))
}

// MoveForwardTabs moves the cursor forward n tab stops.
func (p *Interpreter) MoveForwardTabs(n int) {
	p.buf.Tab(count(n))
}

// MoveUp moves the cursor up n lines.
func (p *Interpreter) MoveUp(n int) {
	cur := p.buf.Cursor()
	p.buf.MoveCursor(cur.Row-count(n), cur.Col)
}

// MoveUpCr moves the cursor up and to the beginning of the line.
func (p *Interpreter) MoveUpCr(n int) {
	p.buf.MoveCursor(p.buf.Cursor().Row-lineCount(n), 0)
}

// PopKeyboardMode pops the given amount n of keyboard modes from the stack.
func (p *Interpreter) PopKeyboardMode(n int) {}

// PopTitle pops the title from the stack.
func (p *Interpreter) PopTitle() {}

// PushKeyboardMode pushes the given keyboard mode to the stack.
func (p *Interpreter) PushKeyboardMode(mode ansicode.KeyboardMode) {}

// PushTitle pushes the given title to the stack.
func (p *Interpreter) PushTitle() {}

// ReportKeyboardMode reports that no progressive keyboard flags are set.
func (p *Interpreter) ReportKeyboardMode() {
	p.respond("\x1b[?0u")
}

// ReportModifyOtherKeys reports the modify other keys mode.
func (p *Interpreter) ReportModifyOtherKeys() {}

// ResetColor resets the color at the given index.
func (p *Interpreter) ResetColor(i int) {}

// ResetState resets the terminal (RIS). Scrollback survives.
func (p *Interpreter) ResetState() {
	p.buf.Reset()
	p.charsets = [4]ansicode.Charset{}
	p.active = 0
	p.appCursor.Store(false)
	p.bracketedPaste.Store(false)
}

// RestoreCursorPosition restores the cursor position.
func (p *Interpreter) RestoreCursorPosition() {
	p.buf.RestoreCursor()
}

// ReverseIndex moves up one line, scrolling down at the top margin.
func (p *Interpreter) ReverseIndex() {
	p.buf.ReverseIndex()
}

// SaveCursorPosition saves the cursor position.
func (p *Interpreter) SaveCursorPosition() {
	p.buf.SaveCursor()
}

// ScrollDown scrolls the screen down n lines.
func (p *Interpreter) ScrollDown(n int) {
	p.buf.Scroll(screen.ScrollDown, count(n))
}

// ScrollUp scrolls the screen up n lines.
func (p *Interpreter) ScrollUp(n int) {
	p.buf.Scroll(screen.ScrollUp, count(n))
}

// SetActiveCharset shifts G0 (SI) or G1 (SO) in.
func (p *Interpreter) SetActiveCharset(n int) {
	if n >= 0 && n < len(p.charsets) {
		p.active = n
	}
}

// SetColor sets the color at the given index.
func (p *Interpreter) SetColor(index int, color color.Color) {}

// SetCursorStyle sets the cursor style.
func (p *Interpreter) SetCursorStyle(style ansicode.CursorStyle) {}

// SetDynamicColor sets the dynamic color at the given index.
func (p *Interpreter) SetDynamicColor(prefix string, index int, terminator string) {}

// SetHyperlink sets the hyperlink.
func (p *Interpreter) SetHyperlink(hyperlink *ansicode.Hyperlink) {}

// SetKeyboardMode sets the keyboard mode.
func (p *Interpreter) SetKeyboardMode(mode ansicode.KeyboardMode, behavior ansicode.KeyboardModeBehavior) {
}

// SetKeypadApplicationMode sets keypad to applications mode.
func (p *Interpreter) SetKeypadApplicationMode() {}

// SetMode sets the given mode.
func (p *Interpreter) SetMode(mode ansicode.TerminalMode) {
	p.setMode(mode, true)
}

// UnsetMode unsets the given mode.
func (p *Interpreter) UnsetMode(mode ansicode.TerminalMode) {
	p.setMode(mode, false)
}

func (p *Interpreter) setMode(mode ansicode.TerminalMode, on bool) {
	switch mode {
	case ansicode.TerminalModeCursorKeys:
		p.appCursor.Store(on)
	case ansicode.TerminalModeLineWrap:
		p.buf.SetAutowrap(on)
	case ansicode.TerminalModeShowCursor:
		p.buf.SetCursorVisible(on)
	case ansicode.TerminalModeSwapScreenAndSetRestoreCursor:
		p.switchScreen(on)
	case ansicode.TerminalModeBracketedPaste:
		p.bracketedPaste.Store(on)
	}
}

// SetModifyOtherKeys sets the modify other keys mode.
func (p *Interpreter) SetModifyOtherKeys(modify ansicode.ModifyOtherKeys) {}

// SetScrollingRegion sets the scrolling region from one-based, inclusive
// margins. A missing bottom margin arrives as 1.
func (p *Interpreter) SetScrollingRegion(top int, bottom int) {
	rows := p.buf.Rows()
	top = max(top, 1)
	if bottom < top || bottom == 1 {
		bottom = rows
	}
	p.buf.SetScrollRegion(top-1, bottom)
}

// SetTerminalCharAttribute updates the pen.
func (p *Interpreter) SetTerminalCharAttribute(attr ansicode.TerminalCharAttribute) {
	pen := p.buf.Pen()
	switch attr.Attr {
	case ansicode.CharAttributeReset:
		pen = screen.Pen{}
	case ansicode.CharAttributeBold:
		pen.Attrs |= screen.AttrBold
	case ansicode.CharAttributeDim:
		pen.Attrs |= screen.AttrDim
	case ansicode.CharAttributeItalic:
		pen.Attrs |= screen.AttrItalic
	case ansicode.CharAttributeUnderline,
		ansicode.CharAttributeDoubleUnderline,
		ansicode.CharAttributeCurlyUnderline,
		ansicode.CharAttributeDottedUnderline,
		ansicode.CharAttributeDashedUnderline:
		pen.Attrs |= screen.AttrUnderline
	case ansicode.CharAttributeBlinkSlow, ansicode.CharAttributeBlinkFast:
		pen.Attrs |= screen.AttrBlink
	case ansicode.CharAttributeReverse:
		pen.Attrs |= screen.AttrReverse
	case ansicode.CharAttributeHidden:
		pen.Attrs |= screen.AttrHidden
	case ansicode.CharAttributeCancelBold, ansicode.CharAttributeCancelBoldDim:
		pen.Attrs &^= screen.AttrBold | screen.AttrDim
	case ansicode.CharAttributeCancelItalic:
		pen.Attrs &^= screen.AttrItalic
	case ansicode.CharAttributeCancelUnderline:
		pen.Attrs &^= screen.AttrUnderline
	case ansicode.CharAttributeCancelBlink:
		pen.Attrs &^= screen.AttrBlink
	case ansicode.CharAttributeCancelReverse:
		pen.Attrs &^= screen.AttrReverse
	case ansicode.CharAttributeCancelHidden:
		pen.Attrs &^= screen.AttrHidden
	case ansicode.CharAttributeForeground:
		pen.Fg = attrColor(attr)
	case ansicode.CharAttributeBackground:
		pen.Bg = attrColor(attr)
	}
	p.buf.SetPen(pen)
}

func attrColor(attr ansicode.TerminalCharAttribute) screen.Color {
	switch {
	case attr.NamedColor != nil:
		if n := *attr.NamedColor; n >= 0 && n <= 255 {
			return screen.Indexed(uint8(n))
		}
		// default foreground, background and the special slots
		return screen.Color{}
	case attr.IndexedColor != nil:
		return screen.Indexed(attr.IndexedColor.Index)
	case attr.RGBColor != nil:
		return screen.RGB(attr.RGBColor.R, attr.RGBColor.G, attr.RGBColor.B)
	}
	return screen.Color{}
}

// SetTitle sets the window title.
func (p *Interpreter) SetTitle(title string) {
	p.buf.SetTitle(title)
}

// Substitute replaces the character under the cursor.
func (p *Interpreter) Substitute() {}

// Tab moves the cursor to the next tab stop.
func (p *Interpreter) Tab(n int) {
	p.buf.Tab(count(n))
}

// TextAreaSizeChars reports the text area size in characters.
func (p *Interpreter) TextAreaSizeChars() {
	p.respond(fmt.Sprintf("\x1b[8;%d;%dt", p.buf.Rows(), p.buf.Cols()))
}

// TextAreaSizePixels reports the text area size in pixels.
func (p *Interpreter) TextAreaSizePixels() {}

// UnsetKeypadApplicationMode sets the keypad to numeric mode.
func (p *Interpreter) UnsetKeypadApplicationMode() {}

// lineDrawing is the DEC special graphics set.
var lineDrawing = map[rune]rune{
	'`': '◆', 'a': '▒', 'f': '°', 'g': '±', 'j': '┘', 'k': '┐', 'l': '┌',
	'm': '└', 'n': '┼', 'o': '⎺', 'p': '⎻', 'q': '─', 'r': '⎼', 's': '⎽',
	't': '├', 'u': '┤', 'v': '┴', 'w': '┬', 'x': '│', 'y': '≤', 'z': '≥',
	'{': 'π', '|': '≠', '}': '£', '~': '·',
}
