// Package screen holds the virtual terminal grid that a session's output is
// rendered into: the active cells, cursor, scroll region and a bounded
// scrollback of rows that scrolled off the top.
package screen

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// ColorKind tells how a Color value is interpreted.
type ColorKind uint8

const (
	ColorDefault ColorKind = iota
	ColorIndexed
	ColorRGB
)

// Color is a terminal colour: the default, one of the 256 palette entries,
// or a 24-bit value packed as 0xRRGGBB.
type Color struct {
	Kind  ColorKind
	Value uint32
}

// Indexed returns a palette colour.
func Indexed(n uint8) Color {
	return Color{Kind: ColorIndexed, Value: uint32(n)}
}

// RGB returns a truecolor value.
func RGB(r, g, b uint8) Color {
	return Color{Kind: ColorRGB, Value: uint32(r)<<16 | uint32(g)<<8 | uint32(b)}
}

// Components splits an RGB colour into its channels.
func (c Color) Components() (r, g, b uint8) {
	return uint8(c.Value >> 16), uint8(c.Value >> 8), uint8(c.Value)
}

// Attr is a bitset of graphic rendition flags.
type Attr uint8

const (
	AttrBold Attr = 1 << iota
	AttrDim
	AttrItalic
	AttrUnderline
	AttrBlink
	AttrReverse
	AttrHidden
)

// Has reports whether every flag in f is set.
func (a Attr) Has(f Attr) bool {
	return a&f == f
}

// Pen is the rendition applied to newly written cells.
type Pen struct {
	Fg    Color
	Bg    Color
	Attrs Attr
}

// Cell is one grid position. Width is 1 or 2 for a character and 0 for the
// right half of a wide character.
type Cell struct {
	Ch    rune
	Width uint8
	Pen
}

// Blank returns an erased cell. Erasing keeps the background of the pen.
func Blank(p Pen) Cell {
	return Cell{Ch: ' ', Width: 1, Pen: Pen{Bg: p.Bg}}
}

// Continuation reports whether c is the trailing half of a wide character.
func (c Cell) Continuation() bool {
	return c.Width == 0
}

func (c Cell) isDefaultBlank() bool {
	return c.Width == 1 && (c.Ch == ' ' || c.Ch == 0) && c.Pen == Pen{}
}

// RuneWidth is the number of columns r occupies.
func RuneWidth(r rune) int {
	return runewidth.RuneWidth(r)
}

// Line is one row of cells. Wrapped is set when the text continues on the
// following row because it ran past the last column.
type Line struct {
	Cells   []Cell
	Wrapped bool
}

func newLine(cols int, p Pen) Line {
	cells := make([]Cell, cols)
	blank := Blank(p)
	for i := range cells {
		cells[i] = blank
	}
	return Line{Cells: cells}
}

func (l Line) clone() Line {
	cells := make([]Cell, len(l.Cells))
	copy(cells, l.Cells)
	return Line{Cells: cells, Wrapped: l.Wrapped}
}

func (l Line) blank() bool {
	if l.Wrapped {
		return false
	}
	for _, c := range l.Cells {
		if !c.isDefaultBlank() {
			return false
		}
	}
	return true
}

// String returns the row's text with trailing spaces removed.
func (l Line) String() string {
	var sb strings.Builder
	for _, c := range l.Cells {
		if c.Continuation() {
			continue
		}
		if c.Ch == 0 {
			sb.WriteByte(' ')
			continue
		}
		sb.WriteRune(c.Ch)
	}
	return strings.TrimRight(sb.String(), " ")
}
