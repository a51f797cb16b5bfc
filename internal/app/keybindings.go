package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jesseduffield/gocui"
	"go.uber.org/zap"

	"github.com/abdullathedruid/devhub/internal/ai"
	"github.com/abdullathedruid/devhub/internal/config"
	"github.com/abdullathedruid/devhub/internal/input"
	"github.com/abdullathedruid/devhub/internal/pane"
	"github.com/abdullathedruid/devhub/internal/session"
)

// keys are the configured normal mode bindings, parsed.
type keys struct {
	quit, help, normal        config.Key
	next, left, right         config.Key
	commit, push, refresh     config.Key
	folder, switchAI, restart config.Key
	scrollUp, scrollDown      config.Key
}

func parseKeys(k config.KeyBindings) keys {
	return keys{
		quit:       config.MustParseKey(k.Quit),
		help:       config.MustParseKey(k.Help),
		normal:     config.MustParseKey(k.NormalMode),
		next:       config.MustParseKey(k.NextPanel),
		left:       config.MustParseKey(k.NavLeft),
		right:      config.MustParseKey(k.NavRight),
		commit:     config.MustParseKey(k.Commit),
		push:       config.MustParseKey(k.Push),
		refresh:    config.MustParseKey(k.Refresh),
		folder:     config.MustParseKey(k.ToggleFolder),
		switchAI:   config.MustParseKey(k.SwitchAI),
		restart:    config.MustParseKey(k.Restart),
		scrollUp:   config.MustParseKey(k.ScrollUp),
		scrollDown: config.MustParseKey(k.ScrollDown),
	}
}

// matches reports whether a key event is k.
func matches(k config.Key, key gocui.Key, ch rune) bool {
	if k.IsRune() {
		return ch == k.Rune()
	}
	return ch == 0 && key == k.GocuiKey()
}

// setupKeybindings configures all keyboard handlers. Views that take text
// (the focused session in terminal mode and the prompt) are editable and
// receive keys through their editor; the bindings below act in normal mode
// and in the commit dialog.
func (a *App) setupKeybindings() error {
	g := a.gui
	k := a.keys

	normal := []struct {
		key    config.Key
		action func() error
	}{
		{k.quit, func() error { return gocui.ErrQuit }},
		{k.help, a.toggleHelp},
		{k.next, func() error { a.focus(a.panes.Next()); return nil }},
		{k.left, func() error { a.focus(a.panes.Prev()); return nil }},
		{k.right, func() error { a.focus(a.panes.Next()); return nil }},
		{k.commit, a.openCommit},
		{k.push, a.push},
		{k.refresh, a.refresh},
		{k.folder, a.toggleFolder},
		{k.switchAI, a.promptSwitchAI},
		{k.restart, a.restartFocused},
		{k.scrollUp, func() error { a.scroll(1); return nil }},
		{k.scrollDown, func() error { a.scroll(-1); return nil }},
		{config.Key{Value: gocui.KeyArrowLeft}, func() error { a.focus(a.panes.Prev()); return nil }},
		{config.Key{Value: gocui.KeyArrowRight}, func() error { a.focus(a.panes.Next()); return nil }},
		{config.Key{Value: gocui.KeyEnter}, a.enterTerminal},
		{config.Key{Value: 'i'}, a.enterTerminal},
		{config.Key{Value: gocui.KeyEsc}, func() error { a.setMessage(""); return nil }},
		{config.Key{Value: gocui.KeyCtrlC}, func() error { return gocui.ErrQuit }},
	}
	for _, b := range normal {
		if err := g.SetKeybinding("", b.key.Binding(), b.key.Mod, a.inNormalMode(b.key, b.action)); err != nil {
			return fmt.Errorf("binding %s: %w", b.key, err)
		}
	}

	return a.setupCommitKeybindings()
}

// inNormalMode wraps a normal mode action. In the other modes the key is
// handed to whatever the mode edits, in case gocui delivered it here
// instead of to the editor. Any key closes the help first.
func (a *App) inNormalMode(k config.Key, action func() error) func(*gocui.Gui, *gocui.View) error {
	return func(g *gocui.Gui, v *gocui.View) error {
		switch mode := a.input.Mode(); {
		case mode.IsTerminal():
			a.forward(k.GocuiKey(), k.Rune(), k.Mod)
			return nil
		case mode.IsInput():
			a.editPrompt(k.GocuiKey(), k.Rune())
			return nil
		case mode.IsCommit():
			return nil
		}

		a.mu.Lock()
		helpShown := a.showHelp
		a.showHelp = false
		a.mu.Unlock()
		if helpShown {
			return nil
		}
		return action()
	}
}

// setupCommitKeybindings binds the commit dialog's keys to its view.
func (a *App) setupCommitKeybindings() error {
	g := a.gui
	bind := func(key any, fn func() error) error {
		return g.SetKeybinding(commitView, key, gocui.ModNone, func(*gocui.Gui, *gocui.View) error {
			if !a.input.Mode().IsCommit() || a.commit == nil {
				return nil
			}
			return fn()
		})
	}

	up := func() error { a.commit.Move(-1); return nil }
	down := func() error { a.commit.Move(1); return nil }
	for key, fn := range map[any]func() error{
		gocui.KeyArrowUp:   up,
		'k':                up,
		gocui.KeyArrowDown: down,
		'j':                down,
		gocui.KeyEnter:     a.acceptCommit,
		gocui.KeyEsc:       a.cancelCommit,
		'r':                func() error { a.commit.Retry(a.redraw); return nil },
		'a':                a.promptCommitTool,
	} {
		if err := bind(key, fn); err != nil {
			return err
		}
	}
	for i := 1; i <= 9; i++ {
		idx := i - 1
		if err := bind(rune('0'+i), func() error {
			a.commit.Select(idx)
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}

// terminalEditor forwards keys typed in terminal mode to the focused
// session. The normal mode key is the only one kept back.
func (a *App) terminalEditor(v *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) bool {
	if matches(a.keys.normal, key, ch) {
		a.input.EnterNormalMode()
		return true
	}
	return a.forward(key, ch, mod)
}

// forward encodes a key and sends it to the focused session. Typing snaps
// the panel back to live output.
func (a *App) forward(key gocui.Key, ch rune, mod gocui.Modifier) bool {
	s := a.focusedSession()
	if s == nil {
		return false
	}
	b := input.Encode(key, ch, mod, s.AppCursorKeys())
	if b == nil {
		return false
	}

	a.panes.Active().Viewport.ScrollToBottom()
	a.clearBanner(s.ID())
	if err := a.sessions.SendInput(b); err != nil {
		a.log.Debug("send input", zap.String("session", s.ID()), zap.Error(err))
	}
	return true
}

// inputEditor edits the prompt.
func (a *App) inputEditor(v *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) bool {
	a.editPrompt(key, ch)
	return true
}

func (a *App) editPrompt(key gocui.Key, ch rune) {
	switch {
	case ch != 0:
		a.input.AppendToInputBuffer(ch)
	case key == gocui.KeySpace:
		a.input.AppendToInputBuffer(' ')
	case key == gocui.KeyBackspace || key == gocui.KeyBackspace2:
		a.input.BackspaceInputBuffer()
	case key == gocui.KeyEsc:
		a.input.ExitInputMode()
	case key == gocui.KeyEnter:
		a.confirmPrompt()
	}
}

// confirmPrompt acts on the text entered in the prompt.
func (a *App) confirmPrompt() {
	text := strings.TrimSpace(a.input.ConsumeInputBuffer())
	if text == "" {
		return
	}
	a.mu.Lock()
	purpose := a.prompt
	a.mu.Unlock()

	if _, err := ai.Resolve(strings.Fields(text)[0]); err != nil {
		a.setMessage(err.Error())
		return
	}

	switch purpose {
	case promptSwitchAI:
		go a.switchAI(text)
	case promptCommitTool:
		if a.commit != nil {
			a.commit.Generate(text, a.redraw)
		}
	}
}

func (a *App) enterTerminal() error {
	p := a.panes.Active()
	if !p.HasSession() || p.SessionID == "" {
		return nil
	}
	p.Viewport.ScrollToBottom()
	a.focus(p)
	a.input.EnterTerminalMode()
	return nil
}

func (a *App) toggleHelp() error {
	a.mu.Lock()
	a.showHelp = !a.showHelp
	a.mu.Unlock()
	return nil
}

func (a *App) toggleFolder() error {
	a.mu.Lock()
	a.showFolder = !a.showFolder
	a.mu.Unlock()
	return nil
}

func (a *App) refresh() error {
	go func() {
		a.refreshGit()
		a.refreshForeground()
	}()
	return nil
}

// scroll moves the focused session's view half a screen; dir 1 is up.
func (a *App) scroll(dir int) {
	p := a.panes.Active()
	s := a.focusedSession()
	if s == nil || !p.HasSession() {
		return
	}
	step := 1
	if snap := s.Snapshot(); snap != nil {
		step = max(len(snap.Lines)/2, 1)
	}
	if dir > 0 {
		p.Viewport.ScrollUp(step, s.Scrollback().Len())
		return
	}
	p.Viewport.ScrollDown(step)
}

func (a *App) restartFocused() error {
	p := a.panes.Active()
	if !p.HasSession() || p.SessionID == "" {
		return nil
	}
	id := p.SessionID
	go func() {
		a.setMessage("restarting " + p.Kind.String())
		if err := a.sessions.Restart(id, ""); err != nil {
			a.reportError("restart", err)
			return
		}
		a.clearBanner(id)
		a.setMessage("")
	}()
	return nil
}

func (a *App) promptSwitchAI() error {
	a.mu.Lock()
	a.prompt = promptSwitchAI
	a.mu.Unlock()
	a.input.EnterInputMode(fmt.Sprintf("AI tool (%s)", strings.Join(ai.Names(), ", ")), a.sessions.DefaultAI())
	return nil
}

// switchAI restarts the AI panel with command, creating its session when
// the first start failed before one existed.
func (a *App) switchAI(command string) {
	p := a.panes.Get(pane.KindAI)
	if p.SessionID == "" {
		s, err := a.sessions.CreateSession(session.KindAI, command)
		if s != nil {
			p.SessionID = s.ID()
		}
		if err != nil {
			a.reportError("start "+command, err)
		}
		return
	}
	if err := a.sessions.Restart(p.SessionID, command); err != nil {
		a.reportError("switch to "+command, err)
		return
	}
	a.clearBanner(p.SessionID)
	a.setMessage("switched to " + command)
}

func (a *App) openCommit() error {
	if a.commit == nil {
		a.setMessage("not a git repository")
		return nil
	}
	go func() {
		err := a.commit.Open(a.sessions.DefaultAI(), a.redraw)
		switch {
		case errors.Is(err, ErrNoChanges):
			a.setMessage(err.Error())
		case err != nil:
			a.reportError("read diff", err)
		default:
			a.input.EnterCommitMode()
			a.redraw()
		}
	}()
	return nil
}

func (a *App) acceptCommit() error {
	go func() {
		msg, err := a.commit.Accept()
		if err != nil {
			a.reportError("commit", err)
			return
		}
		a.input.ExitCommitMode()
		subject, _, _ := strings.Cut(msg, "\n")
		a.setMessage("committed: " + subject)
		a.refreshGit()
	}()
	return nil
}

func (a *App) cancelCommit() error {
	a.commit.Close()
	a.input.ExitCommitMode()
	return nil
}

func (a *App) promptCommitTool() error {
	a.mu.Lock()
	a.prompt = promptCommitTool
	a.mu.Unlock()
	a.input.EnterInputMode(fmt.Sprintf("Commit message tool (%s)", strings.Join(ai.Names(), ", ")), a.commit.Tool())
	return nil
}

func (a *App) push() error {
	if a.repo == nil {
		a.setMessage("not a git repository")
		return nil
	}
	go func() {
		a.setMessage("pushing...")
		if err := a.repo.Push(); err != nil {
			a.reportError("push", err)
			return
		}
		a.setMessage("pushed")
		a.refreshGit()
	}()
	return nil
}
