// Package input tracks the modal input state of the host UI and encodes
// keys into the bytes a terminal program expects.
package input

// Mode represents the current input mode.
type Mode int

const (
	// ModeNormal is the default mode for navigation and commands.
	ModeNormal Mode = iota
	// ModeTerminal forwards all input to the focused session.
	ModeTerminal
	// ModeInput is for a one-line prompt, e.g. the AI command to switch to.
	ModeInput
	// ModeCommit shows the commit message candidates.
	ModeCommit
)

// String returns the human-readable mode name.
func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "NORMAL"
	case ModeTerminal:
		return "TERMINAL"
	case ModeInput:
		return "INPUT"
	case ModeCommit:
		return "COMMIT"
	default:
		return "UNKNOWN"
	}
}

// IsTerminal returns true if the mode forwards input to the terminal.
func (m Mode) IsTerminal() bool {
	return m == ModeTerminal
}

// IsNormal returns true if the mode is normal (navigation) mode.
func (m Mode) IsNormal() bool {
	return m == ModeNormal
}

// IsInput returns true if the mode is text input mode.
func (m Mode) IsInput() bool {
	return m == ModeInput
}

// IsCommit returns true while the commit dialog is open.
func (m Mode) IsCommit() bool {
	return m == ModeCommit
}
