package input

import (
	"sync"
)

// Handler manages mode state and the prompt buffer. The mode in effect
// before a prompt or the commit dialog is restored when it closes.
type Handler struct {
	mode        Mode
	prev        Mode
	prompt      string
	inputBuffer []rune
	mu          sync.RWMutex
}

// NewHandler creates a new input handler in normal mode.
func NewHandler() *Handler {
	return &Handler{
		mode: ModeNormal,
	}
}

// Mode returns the current input mode.
func (h *Handler) Mode() Mode {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.mode
}

// EnterTerminalMode switches to terminal mode.
func (h *Handler) EnterTerminalMode() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mode = ModeTerminal
}

// EnterNormalMode switches to normal mode.
func (h *Handler) EnterNormalMode() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mode = ModeNormal
}

// EnterCommitMode opens the commit dialog.
func (h *Handler) EnterCommitMode() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.mode.IsCommit() {
		h.prev = h.mode
	}
	h.mode = ModeCommit
}

// ExitCommitMode closes the commit dialog.
func (h *Handler) ExitCommitMode() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.mode.IsCommit() {
		h.mode = h.prev
	}
}

// EnterInputMode opens a prompt with the given title and initial text.
func (h *Handler) EnterInputMode(prompt, initial string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.mode.IsInput() {
		h.prev = h.mode
	}
	h.mode = ModeInput
	h.prompt = prompt
	h.inputBuffer = []rune(initial)
}

// ExitInputMode cancels the prompt.
func (h *Handler) ExitInputMode() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveInput()
}

func (h *Handler) leaveInput() {
	if h.mode.IsInput() {
		h.mode = h.prev
	}
	h.prompt = ""
	h.inputBuffer = nil
}

// Prompt returns the title of the open prompt.
func (h *Handler) Prompt() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.prompt
}

// InputBuffer returns the current input buffer contents.
func (h *Handler) InputBuffer() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return string(h.inputBuffer)
}

// AppendToInputBuffer adds a character to the input buffer.
func (h *Handler) AppendToInputBuffer(ch rune) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.inputBuffer = append(h.inputBuffer, ch)
}

// BackspaceInputBuffer removes the last character from the buffer.
func (h *Handler) BackspaceInputBuffer() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.inputBuffer) > 0 {
		h.inputBuffer = h.inputBuffer[:len(h.inputBuffer)-1]
	}
}

// ConsumeInputBuffer returns the buffer and closes the prompt.
func (h *Handler) ConsumeInputBuffer() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	result := string(h.inputBuffer)
	h.leaveInput()
	return result
}
