// Package ui renders sessions, the git panel and dialogs into gocui views.
package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/abdullathedruid/devhub/internal/input"
	"github.com/abdullathedruid/devhub/internal/screen"
	"github.com/jesseduffield/gocui"
)

// RenderLines writes rows of cells as text with SGR escapes, one row per
// line. Views created with gocui.OutputTrue interpret the escapes.
func RenderLines(w io.Writer, lines []screen.Line) {
	var sb strings.Builder
	for i, l := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		renderLine(&sb, l)
	}
	fmt.Fprint(w, sb.String())
}

func renderLine(sb *strings.Builder, l screen.Line) {
	// trailing default blanks carry nothing to draw
	end := len(l.Cells)
	for end > 0 {
		c := l.Cells[end-1]
		if c.Width == 1 && (c.Ch == ' ' || c.Ch == 0) && c.Pen == (screen.Pen{}) {
			end--
			continue
		}
		break
	}

	var pen screen.Pen
	for _, c := range l.Cells[:end] {
		if c.Continuation() {
			continue
		}
		if c.Pen != pen {
			sb.WriteString(SGR(c.Pen))
			pen = c.Pen
		}
		if c.Ch == 0 {
			sb.WriteByte(' ')
			continue
		}
		sb.WriteRune(c.Ch)
	}
	if pen != (screen.Pen{}) {
		sb.WriteString("\x1b[0m")
	}
}

// SGR returns the escape sequence that selects p from a reset state.
func SGR(p screen.Pen) string {
	params := []string{"0"}
	for _, a := range []struct {
		flag screen.Attr
		code string
	}{
		{screen.AttrBold, "1"},
		{screen.AttrDim, "2"},
		{screen.AttrItalic, "3"},
		{screen.AttrUnderline, "4"},
		{screen.AttrBlink, "5"},
		{screen.AttrReverse, "7"},
		{screen.AttrHidden, "8"},
	} {
		if p.Attrs.Has(a.flag) {
			params = append(params, a.code)
		}
	}
	params = appendColor(params, p.Fg, 30, 90, 38)
	params = appendColor(params, p.Bg, 40, 100, 48)
	return "\x1b[" + strings.Join(params, ";") + "m"
}

func appendColor(params []string, c screen.Color, base, bright, extended int) []string {
	switch c.Kind {
	case screen.ColorIndexed:
		n := int(c.Value)
		switch {
		case n < 8:
			return append(params, strconv.Itoa(base+n))
		case n < 16:
			return append(params, strconv.Itoa(bright+n-8))
		default:
			return append(params, strconv.Itoa(extended), "5", strconv.Itoa(n))
		}
	case screen.ColorRGB:
		r, g, b := c.Components()
		return append(params, strconv.Itoa(extended), "2",
			strconv.Itoa(int(r)), strconv.Itoa(int(g)), strconv.Itoa(int(b)))
	}
	return params
}

// ConfigurePaneView sets up a gocui view for a panel with proper styling.
func ConfigurePaneView(v *gocui.View, title string, isActive bool, mode input.Mode, focusColor gocui.Attribute) {
	if isActive {
		v.Title = fmt.Sprintf(" [%s] %s ", mode.String(), title)
		// Bold frame for active pane using heavy box-drawing characters
		v.FrameRunes = []rune{'━', '┃', '┏', '┓', '┗', '┛'}
		if mode.IsTerminal() {
			v.FrameColor = focusColor
		} else {
			v.FrameColor = gocui.ColorBlue
		}
	} else {
		v.Title = fmt.Sprintf(" %s ", title)
		v.FrameRunes = []rune{'─', '│', '┌', '┐', '└', '┘'}
		v.FrameColor = gocui.ColorDefault
	}
	v.Frame = true
	v.Wrap = false
	v.Editable = mode.IsTerminal() && isActive
}

// ConfigureInputModal sets up the prompt view.
func ConfigureInputModal(v *gocui.View, prompt, inputBuffer string) {
	v.Title = fmt.Sprintf(" %s (Enter=confirm, Esc=cancel) ", prompt)
	v.Frame = true
	v.FrameRunes = []rune{'━', '┃', '┏', '┓', '┗', '┛'}
	v.FrameColor = gocui.ColorYellow
	v.Editable = true
	v.Clear()
	fmt.Fprintf(v, " %s", inputBuffer)
}

// ModalDimensions calculates centered modal dimensions.
func ModalDimensions(maxX, maxY, width, height int) (x0, y0, x1, y1 int) {
	width = min(width, maxX-2)
	height = min(height, maxY-2)
	x0 = (maxX - width) / 2
	y0 = (maxY - height) / 2
	x1 = x0 + width
	y1 = y0 + height
	return
}
