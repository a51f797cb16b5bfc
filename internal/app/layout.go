package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jesseduffield/gocui"
	"go.uber.org/zap"

	"github.com/abdullathedruid/devhub/internal/config"
	"github.com/abdullathedruid/devhub/internal/history"
	"github.com/abdullathedruid/devhub/internal/input"
	"github.com/abdullathedruid/devhub/internal/pane"
	"github.com/abdullathedruid/devhub/internal/screen"
	"github.com/abdullathedruid/devhub/internal/session"
	"github.com/abdullathedruid/devhub/internal/ui"
)

// setView is g.SetView tolerating the error returned when a view is
// created.
func setView(g *gocui.Gui, name string, x0, y0, x1, y1 int) (*gocui.View, error) {
	v, err := g.SetView(name, x0, y0, x1, y1, 0)
	if err != nil && !errors.Is(err, gocui.ErrUnknownView) && err.Error() != "unknown view" {
		return nil, err
	}
	return v, nil
}

// layout is the gocui manager function. It is called on every redraw.
func (a *App) layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	scr := pane.CalculateScreen(maxX, maxY)
	mode := a.input.Mode()
	active := a.panes.Active()

	for _, p := range a.panes.All() {
		l := scr.For(p.Kind)
		v, err := setView(g, p.ViewName, l.X0, l.Y0, l.X1, l.Y1)
		if err != nil {
			return err
		}
		isActive := p == active

		if !p.HasSession() {
			a.drawGit(v, l, isActive, mode)
			continue
		}
		a.resizeSession(p, l)
		a.drawSession(g, v, p, l, isActive, mode)
	}

	if err := a.drawStatusBar(g, scr.Status, mode); err != nil {
		return err
	}
	if err := a.drawHelp(g, maxX, maxY); err != nil {
		return err
	}
	if err := a.drawInputModal(g, maxX, maxY, mode); err != nil {
		return err
	}
	if err := a.drawCommitModal(g, maxX, maxY, mode); err != nil {
		return err
	}
	return a.setCurrentView(g, mode)
}

// resizeSession resizes the pane's session when its view changed size.
func (a *App) resizeSession(p *pane.Pane, l pane.Layout) {
	if p.SessionID == "" {
		return
	}
	size := [2]int{l.Height(), l.Width()}
	if a.lastSizes[p.SessionID] == size {
		return
	}
	if err := a.sessions.Resize(p.SessionID, size[0], size[1]); err != nil {
		a.log.Debug("resize session", zap.String("session", p.SessionID), zap.Error(err))
		return
	}
	a.lastSizes[p.SessionID] = size
}

func (a *App) drawSession(g *gocui.Gui, v *gocui.View, p *pane.Pane, l pane.Layout, isActive bool, mode input.Mode) {
	theme := a.cfg.Theme
	s, err := a.sessions.Get(p.SessionID)
	if err != nil {
		ui.ConfigurePaneView(v, p.Kind.String(), isActive, mode, config.Color(theme.Colors.FocusFrame))
		v.Clear()
		fmt.Fprint(v, "no session")
		return
	}

	st := s.Status()
	ui.ConfigurePaneView(v, ui.SessionTitle(theme, s.Title(), st), isActive, mode, config.Color(theme.Colors.FocusFrame))
	if isActive && mode.IsTerminal() {
		v.Editor = gocui.EditorFunc(a.terminalEditor)
	}

	snap := s.Snapshot()
	lines := pane.Lines(snap, s.Scrollback(), p.Viewport.ScrollPos())

	rows := paneRows(lines, l.Height())
	rows = overlayBottom(rows, ui.HistoryBanner(a.bannerFor(p.SessionID), l.Width()))
	if st.State.Terminal() && st.State != session.StateIdle {
		rows = overlayBottom(rows, []string{ui.StatusLine(theme, st)})
	}

	v.Clear()
	fmt.Fprint(v, strings.Join(rows, "\n"))

	if isActive && mode.IsTerminal() && snap != nil && snap.Cursor.Visible && !p.Viewport.IsScrolled() {
		v.SetCursor(snap.Cursor.Col, snap.Cursor.Row)
		g.Cursor = true
	} else if isActive {
		g.Cursor = false
	}
}

// paneRows renders lines, padded with empty rows up to height.
func paneRows(lines []screen.Line, height int) []string {
	rows := make([]string, 0, max(height, len(lines)))
	for _, l := range lines {
		var sb strings.Builder
		ui.RenderLines(&sb, []screen.Line{l})
		rows = append(rows, sb.String())
	}
	for len(rows) < height {
		rows = append(rows, "")
	}
	return rows
}

// overlayBottom replaces the last rows with extra. Rows that are not blank
// are kept and extra is cut from the top instead.
func overlayBottom(rows, extra []string) []string {
	if len(extra) == 0 {
		return rows
	}
	start := len(rows) - len(extra)
	if start < 0 {
		extra = extra[-start:]
		start = 0
	}
	free := len(rows)
	for i := len(rows) - 1; i >= start; i-- {
		if rows[i] != "" {
			break
		}
		free = i
	}
	if free > start {
		extra = extra[free-start:]
		start = free
	}
	copy(rows[start:], extra)
	return rows
}

func (a *App) drawGit(v *gocui.View, l pane.Layout, isActive bool, mode input.Mode) {
	a.mu.Lock()
	panel := a.gitPanel
	folder := a.showFolder
	a.mu.Unlock()

	title := "Git"
	var lines []string
	if folder {
		title = "Files"
		var err error
		lines, err = ui.FolderListing(a.cfg.ProjectDir, l.Width())
		if err != nil {
			lines = []string{err.Error()}
		}
	} else {
		lines = panel.Render(l.Width(), time.Now())
	}

	ui.ConfigurePaneView(v, title, isActive, mode, config.Color(a.cfg.Theme.Colors.FocusFrame))
	v.Clear()
	fmt.Fprint(v, strings.Join(lines, "\n"))
}

func (a *App) drawStatusBar(g *gocui.Gui, l pane.Layout, mode input.Mode) error {
	v, err := setView(g, statusView, l.X0-1, l.Y0, l.X1+1, l.Y1)
	if err != nil {
		return err
	}
	v.Frame = false
	v.BgColor = config.Color(a.cfg.Theme.Colors.StatusBarBg)
	v.FgColor = config.Color(a.cfg.Theme.Colors.StatusBarFg)

	a.mu.Lock()
	bar := ui.StatusBar{
		Mode:       mode,
		Panel:      a.panes.Active().Kind.String(),
		Foreground: a.foreground,
		Message:    a.message,
		Help:       a.cfg.Keys.Help + " help",
	}
	if a.gitPanel.Status != nil {
		bar.Branch = a.gitPanel.Status.Branch
	}
	a.mu.Unlock()
	bar.Scrolled = a.panes.Active().Viewport.ScrollPos()

	v.Clear()
	fmt.Fprint(v, bar.Render(l.Width()+2))
	return nil
}

func (a *App) drawHelp(g *gocui.Gui, maxX, maxY int) error {
	a.mu.Lock()
	show := a.showHelp
	a.mu.Unlock()
	if !show {
		g.DeleteView(helpView)
		return nil
	}

	x0, y0, x1, y1 := ui.ModalDimensions(maxX, maxY, 64, 26)
	v, err := setView(g, helpView, x0, y0, x1, y1)
	if err != nil {
		return err
	}
	v.Title = " Help "
	v.Frame = true
	v.Wrap = true
	v.Clear()
	fmt.Fprint(v, ui.HelpText(a.cfg.Keys))
	_, err = g.SetViewOnTop(helpView)
	return err
}

func (a *App) drawInputModal(g *gocui.Gui, maxX, maxY int, mode input.Mode) error {
	if !mode.IsInput() {
		g.DeleteView(inputView)
		return nil
	}

	x0, y0, x1, y1 := ui.ModalDimensions(maxX, maxY, 60, 2)
	v, err := setView(g, inputView, x0, y0, x1, y1)
	if err != nil {
		return err
	}
	ui.ConfigureInputModal(v, a.input.Prompt(), a.input.InputBuffer())
	v.Editor = gocui.EditorFunc(a.inputEditor)
	_, err = g.SetViewOnTop(inputView)
	return err
}

func (a *App) drawCommitModal(g *gocui.Gui, maxX, maxY int, mode input.Mode) error {
	if a.commit == nil || !a.commit.IsOpen() {
		g.DeleteView(commitView)
		return nil
	}

	x0, y0, x1, y1 := ui.ModalDimensions(maxX, maxY, maxX*4/5, maxY*4/5)
	v, err := setView(g, commitView, x0, y0, x1, y1)
	if err != nil {
		return err
	}
	v.Title = " Commit "
	v.Frame = true
	v.Wrap = false
	v.Editable = false
	if mode.IsCommit() {
		v.FrameColor = gocui.ColorYellow
	} else {
		v.FrameColor = gocui.ColorDefault
	}
	d := a.commit.Dialog()
	v.Clear()
	fmt.Fprint(v, d.Render(x1-x0-1))
	_, err = g.SetViewOnTop(commitView)
	return err
}

// setCurrentView gives keyboard focus to the view the mode works in.
func (a *App) setCurrentView(g *gocui.Gui, mode input.Mode) error {
	name := a.panes.Active().ViewName
	switch {
	case mode.IsInput():
		name = inputView
	case mode.IsCommit():
		name = commitView
	}
	if cur := g.CurrentView(); cur != nil && cur.Name() == name && !a.firstCall {
		return nil
	}
	a.firstCall = false
	if _, err := g.SetCurrentView(name); err != nil && !errors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	return nil
}

// clearBanner drops the previous-run banner of a session once it is used.
func (a *App) clearBanner(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.banners, id)
}

// bannerFor returns the banner records shown over a session.
func (a *App) bannerFor(id string) []history.Record {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.banners[id]
}
