package input

import "testing"

func TestHandler_ModeTransitions(t *testing.T) {
	h := NewHandler()

	// Should start in normal mode
	if h.Mode() != ModeNormal {
		t.Error("NewHandler should start in ModeNormal")
	}

	h.EnterTerminalMode()
	if h.Mode() != ModeTerminal {
		t.Error("EnterTerminalMode should set ModeTerminal")
	}

	h.EnterNormalMode()
	if h.Mode() != ModeNormal {
		t.Error("EnterNormalMode should set ModeNormal")
	}

	h.EnterInputMode("AI command", "")
	if h.Mode() != ModeInput {
		t.Error("EnterInputMode should set ModeInput")
	}

	h.ExitInputMode()
	if h.Mode() != ModeNormal {
		t.Error("ExitInputMode should return to ModeNormal")
	}
}

func TestHandler_RestoresPreviousMode(t *testing.T) {
	h := NewHandler()
	h.EnterTerminalMode()

	h.EnterCommitMode()
	if h.Mode() != ModeCommit {
		t.Fatal("EnterCommitMode should set ModeCommit")
	}
	h.ExitCommitMode()
	if h.Mode() != ModeTerminal {
		t.Errorf("ExitCommitMode = %v, want %v", h.Mode(), ModeTerminal)
	}

	// a prompt opened from the commit dialog returns to it
	h.EnterCommitMode()
	h.EnterInputMode("AI command", "gemini")
	if got := h.ConsumeInputBuffer(); got != "gemini" {
		t.Errorf("ConsumeInputBuffer = %q, want %q", got, "gemini")
	}
	if h.Mode() != ModeCommit {
		t.Errorf("mode after prompt = %v, want %v", h.Mode(), ModeCommit)
	}
}

func TestHandler_InputBuffer(t *testing.T) {
	h := NewHandler()
	h.EnterInputMode("AI command", "")

	if h.InputBuffer() != "" {
		t.Error("InputBuffer should be empty initially")
	}
	if h.Prompt() != "AI command" {
		t.Errorf("Prompt = %q, want %q", h.Prompt(), "AI command")
	}

	h.AppendToInputBuffer('a')
	h.AppendToInputBuffer('é')
	h.AppendToInputBuffer('c')
	if h.InputBuffer() != "aéc" {
		t.Errorf("InputBuffer = %q, want %q", h.InputBuffer(), "aéc")
	}

	h.BackspaceInputBuffer()
	h.BackspaceInputBuffer()
	if h.InputBuffer() != "a" {
		t.Errorf("InputBuffer = %q, want %q", h.InputBuffer(), "a")
	}

	result := h.ConsumeInputBuffer()
	if result != "a" {
		t.Errorf("ConsumeInputBuffer = %q, want %q", result, "a")
	}
	if h.InputBuffer() != "" || h.Prompt() != "" {
		t.Error("prompt should be cleared after consume")
	}
	if h.Mode() != ModeNormal {
		t.Error("Mode should be normal after consume")
	}
}

func TestHandler_BackspaceEmpty(t *testing.T) {
	h := NewHandler()
	h.EnterInputMode("AI command", "")

	// Backspace on empty buffer should be safe
	h.BackspaceInputBuffer()
	if h.InputBuffer() != "" {
		t.Error("Backspace on empty buffer should keep it empty")
	}
}
