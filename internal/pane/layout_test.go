package pane

import "testing"

func TestCalculateScreen(t *testing.T) {
	s := CalculateScreen(100, 50)

	tests := []struct {
		name string
		got  Layout
		want Layout
	}{
		{"git", s.Git, Layout{0, 0, 24, 48}},
		{"shell", s.Shell, Layout{25, 0, 64, 48}},
		{"ai", s.AI, Layout{65, 0, 99, 48}},
		{"status", s.Status, Layout{0, 48, 99, 50}},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s layout = %+v, want %+v", tt.name, tt.got, tt.want)
		}
	}

	if w := s.Shell.Width(); w != 39 {
		t.Errorf("shell width = %d, want 39", w)
	}
	if h := s.Shell.Height(); h != 47 {
		t.Errorf("shell height = %d, want 47", h)
	}
}

func TestCalculateScreen_ColumnsTouch(t *testing.T) {
	for _, maxX := range []int{37, 80, 121, 200} {
		s := CalculateScreen(maxX, 30)
		if s.Shell.X0 != s.Git.X1+1 || s.AI.X0 != s.Shell.X1+1 {
			t.Errorf("maxX=%d: columns do not touch: %+v", maxX, s)
		}
		if s.AI.X1 != maxX-1 {
			t.Errorf("maxX=%d: ai column ends at %d", maxX, s.AI.X1)
		}
		for _, l := range []Layout{s.Git, s.Shell, s.AI} {
			if l.X1-l.X0+1 < minColumn {
				t.Errorf("maxX=%d: column %+v narrower than %d", maxX, l, minColumn)
			}
		}
	}
}

func TestCalculateScreen_For(t *testing.T) {
	s := CalculateScreen(100, 50)
	if s.For(KindGit) != s.Git || s.For(KindShell) != s.Shell || s.For(KindAI) != s.AI {
		t.Error("For returned the wrong layout")
	}
}

func TestLayout_MinimumSize(t *testing.T) {
	l := Layout{5, 5, 5, 5}
	if l.Width() != 1 || l.Height() != 1 {
		t.Errorf("degenerate layout size = %dx%d, want 1x1", l.Width(), l.Height())
	}
}
