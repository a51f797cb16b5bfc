// Package app runs the host screen: a git panel, a shell session and an AI
// assistant session side by side, with the commit workflow on top.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jesseduffield/gocui"
	"go.uber.org/zap"

	"github.com/abdullathedruid/devhub/internal/config"
	"github.com/abdullathedruid/devhub/internal/git"
	"github.com/abdullathedruid/devhub/internal/history"
	"github.com/abdullathedruid/devhub/internal/input"
	"github.com/abdullathedruid/devhub/internal/logging"
	"github.com/abdullathedruid/devhub/internal/pane"
	"github.com/abdullathedruid/devhub/internal/process"
	"github.com/abdullathedruid/devhub/internal/session"
	"github.com/abdullathedruid/devhub/internal/ui"
)

const (
	statusView = "status"
	helpView   = "help"
	inputView  = "input-modal"
	commitView = "commit-modal"

	bannerRecords = 5
)

// promptPurpose tells what the one-line prompt is asking for.
type promptPurpose int

const (
	promptSwitchAI promptPurpose = iota
	promptCommitTool
)

// Deps are the collaborators the application drives.
type Deps struct {
	Config   *config.Config
	Sessions *session.Manager
	// Repo is nil outside a git repository.
	Repo      *git.Repo
	Generator Generator
	History   *history.Store
	Log       *zap.Logger
}

// App is the host application.
type App struct {
	gui      *gocui.Gui
	cfg      *config.Config
	sessions *session.Manager
	repo     *git.Repo
	hist     *history.Store
	log      *zap.Logger

	panes  *pane.Manager
	input  *input.Handler
	commit *CommitFlow
	keys   keys

	mu         sync.Mutex
	gitPanel   ui.GitPanel
	showFolder bool
	showHelp   bool
	message    string
	foreground string
	banners    map[string][]history.Record
	prompt     promptPurpose

	// Layout state for resize detection
	lastSizes map[string][2]int
	firstCall bool

	watcher *git.Watcher
	stop    chan struct{}
	wg      sync.WaitGroup
}

// New creates the application and its gocui screen.
func New(deps Deps) (*App, error) {
	g, err := gocui.NewGui(gocui.NewGuiOpts{
		OutputMode: gocui.OutputTrue,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing GUI: %w", err)
	}

	a := &App{
		gui:       g,
		cfg:       deps.Config,
		sessions:  deps.Sessions,
		repo:      deps.Repo,
		hist:      deps.History,
		log:       deps.Log,
		panes:     pane.NewManager(),
		input:     input.NewHandler(),
		keys:      parseKeys(deps.Config.Keys),
		banners:   make(map[string][]history.Record),
		lastSizes: make(map[string][2]int),
		firstCall: true,
		stop:      make(chan struct{}),
	}
	if deps.Repo != nil {
		a.commit = NewCommitFlow(deps.Repo, deps.Generator, deps.Config.CommitOptions, deps.Log)
	}
	return a, nil
}

// Run starts the sessions and the main event loop. It returns when the user
// quits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	a.gui.SetManagerFunc(a.layout)
	if err := a.setupKeybindings(); err != nil {
		return fmt.Errorf("setting up keybindings: %w", err)
	}

	a.sessions.Subscribe(func(session.Event) { a.redraw() })
	a.startSessions()
	a.startGit()

	a.wg.Add(1)
	go a.backgroundRefresh()

	go func() {
		select {
		case <-ctx.Done():
			a.gui.Update(func(*gocui.Gui) error { return gocui.ErrQuit })
		case <-a.stop:
		}
	}()

	if err := a.gui.MainLoop(); err != nil && !errors.Is(err, gocui.ErrQuit) {
		return fmt.Errorf("main loop: %w", err)
	}
	return nil
}

// Close stops background work and restores the terminal. Sessions are
// left to the caller, which owns the manager.
func (a *App) Close() {
	select {
	case <-a.stop:
		return
	default:
	}
	close(a.stop)
	if a.watcher != nil {
		a.watcher.Stop()
	}
	a.wg.Wait()
	a.gui.Close()
}

// startSessions creates the shell and AI sessions. The previous run's
// history is read first so the banner does not include this run's start.
func (a *App) startSessions() {
	for _, kind := range []session.Kind{session.KindShell, session.KindAI} {
		banner := a.loadBanner(kind)

		s, err := a.sessions.CreateSession(kind, "")
		if err != nil {
			a.reportError(fmt.Sprintf("start %s", kind), err)
		}
		if s == nil {
			continue
		}
		p := a.panes.Get(paneKind(kind))
		p.SessionID = s.ID()
		if len(banner) > 0 {
			a.mu.Lock()
			a.banners[s.ID()] = banner
			a.mu.Unlock()
		}
	}
	if p := a.panes.Active(); p.SessionID != "" {
		_ = a.sessions.Focus(p.SessionID)
	}
}

func (a *App) loadBanner(kind session.Kind) []history.Record {
	if a.hist == nil {
		return nil
	}
	recs, err := a.hist.Recent(kind.String(), bannerRecords)
	if err != nil {
		a.log.Debug("read history", zap.Error(err))
		return nil
	}
	return recs
}

func paneKind(k session.Kind) pane.Kind {
	if k == session.KindAI {
		return pane.KindAI
	}
	return pane.KindShell
}

// focusedSession returns the session of the active panel, or nil.
func (a *App) focusedSession() *session.Session {
	p := a.panes.Active()
	if p.SessionID == "" {
		return nil
	}
	s, err := a.sessions.Get(p.SessionID)
	if err != nil {
		return nil
	}
	return s
}

// focus moves focus to p and routes session input to it.
func (a *App) focus(p *pane.Pane) {
	a.panes.SetActive(p.Kind)
	if p.SessionID != "" {
		if err := a.sessions.Focus(p.SessionID); err != nil {
			a.log.Debug("focus session", zap.Error(err))
		}
	}
}

func (a *App) setMessage(msg string) {
	a.mu.Lock()
	a.message = msg
	a.mu.Unlock()
	a.redraw()
}

// redraw schedules a layout pass from any goroutine.
func (a *App) redraw() {
	a.gui.Update(func(*gocui.Gui) error { return nil })
}

func (a *App) reportError(what string, err error) {
	a.log.Error(what, zap.Error(err), logging.Stack(err))
	a.setMessage(fmt.Sprintf("%s: %v", what, err))
}

// backgroundRefresh refreshes the git panel and the shell's foreground
// program periodically.
func (a *App) backgroundRefresh() {
	defer a.wg.Done()

	interval := a.cfg.RefreshInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.refreshForeground()
	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			a.refreshGit()
			a.refreshForeground()
		}
	}
}

// refreshForeground looks up what the shell session is running.
func (a *App) refreshForeground() {
	p := a.panes.Get(pane.KindShell)
	s, err := a.sessions.Get(p.SessionID)
	if err != nil {
		return
	}
	name := ""
	if st := s.Status(); st.State == session.StateRunning && st.PID > 0 {
		name, _, err = process.ForegroundApp(st.PID)
		if err != nil {
			a.log.Debug("foreground app", zap.Error(err))
		}
	}

	a.mu.Lock()
	changed := a.foreground != name
	a.foreground = name
	a.mu.Unlock()
	if changed {
		a.redraw()
	}
}
