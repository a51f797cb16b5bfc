package pane

import (
	"sync"
)

// Manager holds the panels in focus order with thread-safe operations.
type Manager struct {
	panes     []*Pane
	activeIdx int
	mu        sync.RWMutex
}

// NewManager creates the git, shell and AI panels; the shell has focus.
func NewManager() *Manager {
	return &Manager{
		panes:     []*Pane{New(KindGit), New(KindShell), New(KindAI)},
		activeIdx: int(KindShell),
	}
}

// Get returns the panel of the given kind.
func (m *Manager) Get(kind Kind) *Pane {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.panes {
		if p.Kind == kind {
			return p
		}
	}
	return nil
}

// BySession returns the panel showing the session, or nil.
func (m *Manager) BySession(id string) *Pane {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.panes {
		if p.SessionID != "" && p.SessionID == id {
			return p
		}
	}
	return nil
}

// Active returns the currently active pane.
func (m *Manager) Active() *Pane {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.panes[m.activeIdx]
}

// SetActive focuses the panel of the given kind.
func (m *Manager) SetActive(kind Kind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.panes {
		if p.Kind == kind {
			m.activeIdx = i
		}
	}
}

// All returns a slice of all panes. The returned slice is a copy.
func (m *Manager) All() []*Pane {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Pane, len(m.panes))
	copy(result, m.panes)
	return result
}

// Next moves focus to the next pane (wraps around).
func (m *Manager) Next() *Pane {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activeIdx = (m.activeIdx + 1) % len(m.panes)
	return m.panes[m.activeIdx]
}

// Prev moves focus to the previous pane (wraps around).
func (m *Manager) Prev() *Pane {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activeIdx = (m.activeIdx - 1 + len(m.panes)) % len(m.panes)
	return m.panes[m.activeIdx]
}
