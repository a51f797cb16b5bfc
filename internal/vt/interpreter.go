// Package vt decodes the byte stream a program writes to its terminal into
// mutations of a screen.Buffer.
//
// Decoding is done by go-ansicode; the Interpreter is its Handler and turns
// each decoded action into a buffer operation. The decoder keeps partial
// sequences between writes, so the resulting screen does not depend on where
// the stream was cut.
package vt

import (
	"io"
	"sync/atomic"

	"github.com/danielgatis/go-ansicode"

	"github.com/abdullathedruid/devhub/internal/screen"
)

var _ ansicode.Handler = (*Interpreter)(nil)

// Interpreter applies a terminal byte stream to a screen buffer.
type Interpreter struct {
	buf *screen.Buffer
	dec *ansicode.Decoder

	// G0..G3 designations and the one shifted in.
	charsets [4]ansicode.Charset
	active   int

	reply io.Writer

	appCursor      atomic.Bool
	bracketedPaste atomic.Bool
}

// New returns an interpreter writing into buf.
func New(buf *screen.Buffer) *Interpreter {
	p := &Interpreter{buf: buf}
	p.dec = ansicode.NewDecoder(p)
	return p
}

// SetReplyWriter sets where answers to terminal queries (cursor position,
// device attributes) are written. Without one, queries are ignored.
func (p *Interpreter) SetReplyWriter(w io.Writer) {
	p.reply = w
}

// Buffer returns the screen the interpreter writes to.
func (p *Interpreter) Buffer() *screen.Buffer {
	return p.buf
}

// AppCursorKeys reports whether the program asked for application cursor
// key mode. Safe to call from any goroutine.
func (p *Interpreter) AppCursorKeys() bool {
	return p.appCursor.Load()
}

// BracketedPaste reports whether the program enabled bracketed paste. Safe
// to call from any goroutine.
func (p *Interpreter) BracketedPaste() bool {
	return p.bracketedPaste.Load()
}

// Write feeds data to the decoder and publishes the resulting screen. It
// never fails.
func (p *Interpreter) Write(data []byte) (int, error) {
	p.Feed(data)
	p.buf.Commit()
	return len(data), nil
}

// Feed processes data without publishing a snapshot.
func (p *Interpreter) Feed(data []byte) {
	_, _ = p.dec.Write(data)
}

func (p *Interpreter) respond(s string) {
	if p.reply == nil {
		return
	}
	_, _ = io.WriteString(p.reply, s)
}

func (p *Interpreter) switchScreen(alt bool) {
	b := p.buf
	if alt {
		if b.Alternate() {
			return
		}
		b.SaveCursor()
		b.EnterAlternate()
		return
	}
	if !b.Alternate() {
		return
	}
	b.ExitAlternate()
	b.RestoreCursor()
}

// count is a repeat parameter; an explicit zero means one.
func count(n int) int {
	return max(n, 1)
}

// coord is a zero-based position decoded from a one-based parameter. A zero
// parameter arrives wrapped around to 65535 and means the first position.
func coord(n int) int {
	if n >= maxParam {
		return 0
	}
	return n
}

// lineCount decodes the CNL/CPL parameter, which arrives minus one.
func lineCount(n int) int {
	if n >= maxParam {
		return 1
	}
	return n + 1
}

const maxParam = 1<<16 - 1
