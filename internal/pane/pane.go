// Package pane describes the panels of the host screen: their layout, which
// one has focus and how far each is scrolled back.
package pane

// Kind identifies a panel.
type Kind int

const (
	KindGit Kind = iota
	KindShell
	KindAI
)

func (k Kind) String() string {
	switch k {
	case KindGit:
		return "git"
	case KindShell:
		return "shell"
	default:
		return "ai"
	}
}

// Pane is one panel. Session panels carry the id of the session they show.
type Pane struct {
	Kind      Kind
	ViewName  string
	SessionID string
	Viewport  *Viewport
}

// New creates a panel of the given kind.
func New(kind Kind) *Pane {
	return &Pane{
		Kind:     kind,
		ViewName: kind.String(),
		Viewport: &Viewport{},
	}
}

// HasSession reports whether the panel shows a terminal session.
func (p *Pane) HasSession() bool {
	return p.Kind != KindGit
}
