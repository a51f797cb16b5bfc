package input

import (
	"unicode/utf8"

	"github.com/jesseduffield/gocui"
)

// ctrlLetters are ctrl+a through ctrl+z, encoded as 0x01 through 0x1a.
var ctrlLetters = []gocui.Key{
	gocui.KeyCtrlA, gocui.KeyCtrlB, gocui.KeyCtrlC, gocui.KeyCtrlD, gocui.KeyCtrlE,
	gocui.KeyCtrlF, gocui.KeyCtrlG, gocui.KeyCtrlH, gocui.KeyCtrlI, gocui.KeyCtrlJ,
	gocui.KeyCtrlK, gocui.KeyCtrlL, gocui.KeyCtrlM, gocui.KeyCtrlN, gocui.KeyCtrlO,
	gocui.KeyCtrlP, gocui.KeyCtrlQ, gocui.KeyCtrlR, gocui.KeyCtrlS, gocui.KeyCtrlT,
	gocui.KeyCtrlU, gocui.KeyCtrlV, gocui.KeyCtrlW, gocui.KeyCtrlX, gocui.KeyCtrlY,
	gocui.KeyCtrlZ,
}

// keySequences maps special keys to their encoding. Several named keys share
// a code with a ctrl letter (tab and ctrl+i, enter and ctrl+m), so the table
// is filled in order and the named keys win.
var keySequences = func() map[gocui.Key]string {
	m := make(map[gocui.Key]string)
	for i, k := range ctrlLetters {
		m[k] = string(rune(i + 1))
	}
	for k, seq := range map[gocui.Key]string{
		gocui.KeyCtrlBackslash: "\x1c",
		gocui.KeyEnter:         "\r",
		gocui.KeyTab:           "\t",
		gocui.KeySpace:         " ",
		gocui.KeyEsc:           "\x1b",
		gocui.KeyBackspace:     "\x7f",
		gocui.KeyBackspace2:    "\x7f",
		gocui.KeyInsert:        "\x1b[2~",
		gocui.KeyDelete:        "\x1b[3~",
		gocui.KeyHome:          "\x1b[H",
		gocui.KeyEnd:           "\x1b[F",
		gocui.KeyPgup:          "\x1b[5~",
		gocui.KeyPgdn:          "\x1b[6~",
		gocui.KeyF1:            "\x1bOP",
		gocui.KeyF2:            "\x1bOQ",
		gocui.KeyF3:            "\x1bOR",
		gocui.KeyF4:            "\x1bOS",
		gocui.KeyF5:            "\x1b[15~",
		gocui.KeyF6:            "\x1b[17~",
		gocui.KeyF7:            "\x1b[18~",
		gocui.KeyF8:            "\x1b[19~",
		gocui.KeyF9:            "\x1b[20~",
		gocui.KeyF10:           "\x1b[21~",
		gocui.KeyF11:           "\x1b[23~",
		gocui.KeyF12:           "\x1b[24~",
	} {
		m[k] = seq
	}
	return m
}()

var arrowFinals = map[gocui.Key]byte{
	gocui.KeyArrowUp:    'A',
	gocui.KeyArrowDown:  'B',
	gocui.KeyArrowRight: 'C',
	gocui.KeyArrowLeft:  'D',
}

// Encode returns the bytes a terminal sends for a key press. ch is set for
// printable characters. appCursor selects the application cursor key form
// (ESC O) the program enabled with DECCKM. Alt prefixes the key with ESC.
// Encode returns nil for keys it does not know.
func Encode(key gocui.Key, ch rune, mod gocui.Modifier, appCursor bool) []byte {
	var seq []byte
	switch {
	case ch != 0:
		seq = utf8.AppendRune(nil, ch)
	case arrowFinals[key] != 0:
		if appCursor {
			seq = []byte{0x1b, 'O', arrowFinals[key]}
		} else {
			seq = []byte{0x1b, '[', arrowFinals[key]}
		}
	default:
		s, ok := keySequences[key]
		if !ok {
			return nil
		}
		seq = []byte(s)
	}
	if mod&gocui.ModAlt != 0 {
		seq = append([]byte{0x1b}, seq...)
	}
	return seq
}
