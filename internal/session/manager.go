package session

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	goerrors "github.com/go-errors/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abdullathedruid/devhub/internal/ai"
	"github.com/abdullathedruid/devhub/internal/history"
	"github.com/abdullathedruid/devhub/internal/terminal"
)

// Settings is the per-project record of the last AI tool used.
type Settings interface {
	LastAI() string
	SetLastAI(name string) error
}

// Config holds the manager's fixed inputs. They apply to every session for
// its whole lifetime.
type Config struct {
	Dir        string
	Shell      string
	DefaultAI  string
	Scrollback int
	Grace      time.Duration
	// Executables overrides AI tool executables, keyed by tool name.
	Executables map[string]string
	Rows        int
	Cols        int
}

// Manager owns the sessions of one project.
type Manager struct {
	sup      *terminal.Supervisor
	cfg      Config
	settings Settings
	hist     *history.Store
	log      *zap.Logger

	mu        sync.Mutex
	sessions  map[string]*Session
	order     []string
	focused   string
	listeners []func(Event)
	closed    bool
}

// NewManager creates a manager. settings and hist may be nil.
func NewManager(sup *terminal.Supervisor, cfg Config, settings Settings, hist *history.Store, log *zap.Logger) *Manager {
	return &Manager{
		sup:      sup,
		cfg:      cfg,
		settings: settings,
		hist:     hist,
		log:      log,
		sessions: make(map[string]*Session),
	}
}

// Subscribe registers fn for events of every session.
func (m *Manager) Subscribe(fn func(Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

func (m *Manager) dispatch(ev Event) {
	m.mu.Lock()
	listeners := m.listeners
	m.mu.Unlock()
	for _, fn := range listeners {
		fn(ev)
	}
}

// DefaultShell returns the configured shell, $SHELL, or /bin/sh.
func (m *Manager) DefaultShell() string {
	if m.cfg.Shell != "" {
		return m.cfg.Shell
	}
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "/bin/sh"
}

// DefaultAI returns the AI command used when none is given: the project's
// last used tool, then the configured default, then claude.
func (m *Manager) DefaultAI() string {
	if m.settings != nil {
		if last := m.settings.LastAI(); last != "" {
			return last
		}
	}
	if m.cfg.DefaultAI != "" {
		return m.cfg.DefaultAI
	}
	return ai.ToolClaude.String()
}

// resolve turns a user command into argv and a panel title. AI commands
// outside the supported set are rejected.
func (m *Manager) resolve(kind Kind, command string) ([]string, string, ai.Tool, error) {
	fields := strings.Fields(command)
	if kind == KindShell {
		if len(fields) == 0 {
			fields = strings.Fields(m.DefaultShell())
		}
		return fields, "Shell", ai.ToolUnknown, nil
	}

	if len(fields) == 0 {
		fields = strings.Fields(m.DefaultAI())
	}
	if len(fields) == 0 {
		return nil, "", ai.ToolUnknown, fmt.Errorf("%w: empty command", ai.ErrUnknownTool)
	}
	tool, err := ai.Resolve(fields[0])
	if err != nil {
		return nil, "", ai.ToolUnknown, err
	}
	tpl, err := tool.Template(m.cfg.Executables[tool.String()])
	if err != nil {
		return nil, "", ai.ToolUnknown, err
	}
	return tpl.Interactive(fields[1:]...), tool.DisplayName(), tool, nil
}

func (m *Manager) nextID(kind Kind) string {
	base := kind.String()
	if _, ok := m.sessions[base]; !ok {
		return base
	}
	for i := 2; ; i++ {
		id := fmt.Sprintf("%s-%d", base, i)
		if _, ok := m.sessions[id]; !ok {
			return id
		}
	}
}

// CreateSession creates a session and starts command in it. An empty
// command uses the default shell or AI tool. Unsupported AI commands are
// rejected without creating a session. When the process cannot be spawned
// the session is still registered, in StateFailed, and the error returned.
func (m *Manager) CreateSession(kind Kind, command string) (*Session, error) {
	argv, title, tool, err := m.resolve(kind, command)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	id := m.nextID(kind)
	s := New(m.sup, Options{
		ID:         id,
		Kind:       kind,
		Title:      title,
		Dir:        m.cfg.Dir,
		Rows:       m.cfg.Rows,
		Cols:       m.cfg.Cols,
		Scrollback: m.cfg.Scrollback,
		Grace:      m.cfg.Grace,
		History:    m.hist,
		OnEvent:    m.dispatch,
		Log:        m.log,
	})
	m.sessions[id] = s
	m.order = append(m.order, id)
	if m.focused == "" {
		m.focused = id
	}
	m.mu.Unlock()

	if err := s.Start(argv); err != nil {
		return s, goerrors.Wrap(err, 0)
	}
	m.rememberAI(tool)
	m.log.Info("session created", zap.String("session", id), zap.Strings("command", argv))
	return s, nil
}

func (m *Manager) rememberAI(tool ai.Tool) {
	if tool == ai.ToolUnknown || m.settings == nil {
		return
	}
	if err := m.settings.SetLastAI(tool.String()); err != nil {
		m.log.Warn("save last AI tool", zap.Error(err))
	}
}

// Restart stops the session's process and starts command, or the previous
// command when empty. For AI sessions the command must name a supported
// tool; the previous process is terminated before the new one starts.
func (m *Manager) Restart(id, command string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	var (
		argv []string
		tool ai.Tool
	)
	if command != "" {
		var title string
		argv, title, tool, err = m.resolve(s.Kind(), command)
		if err != nil {
			return err
		}
		s.SetTitle(title)
	}
	if err := s.Restart(argv); err != nil {
		return goerrors.Wrap(err, 0)
	}
	m.rememberAI(tool)
	return nil
}

// Get returns the session with id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSession, id)
	}
	return s, nil
}

// All returns all sessions in creation order.
func (m *Manager) All() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Session, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.sessions[id])
	}
	return out
}

// Focus routes subsequent input to the session with id.
func (m *Manager) Focus(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNoSession, id)
	}
	m.focused = id
	return nil
}

// Focused returns the focused session, or nil.
func (m *Manager) Focused() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[m.focused]
}

// SendInput writes b to the focused session only.
func (m *Manager) SendInput(b []byte) error {
	s := m.Focused()
	if s == nil {
		return ErrNoFocus
	}
	_, err := s.Write(b)
	return err
}

// Paste sends text to the focused session as a paste.
func (m *Manager) Paste(text string) error {
	s := m.Focused()
	if s == nil {
		return ErrNoFocus
	}
	return s.Paste(text)
}

// Resize resizes the session with id.
func (m *Manager) Resize(id string, rows, cols int) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	return s.Resize(rows, cols)
}

// Destroy terminates the session's process, releases its pty and forgets
// the session.
func (m *Manager) Destroy(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNoSession, id)
	}
	delete(m.sessions, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	if m.focused == id {
		m.focused = ""
		if len(m.order) > 0 {
			m.focused = m.order[0]
		}
	}
	m.mu.Unlock()

	m.log.Info("session destroyed", zap.String("session", id))
	return s.Close(ctx)
}

// Shutdown closes every session concurrently and then terminates anything
// the supervisor still tracks.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.order = nil
	m.focused = ""
	m.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range sessions {
		g.Go(func() error {
			return s.Close(gctx)
		})
	}
	err := g.Wait()

	grace := m.cfg.Grace
	if grace <= 0 {
		grace = defaultGrace
	}
	if serr := m.sup.Shutdown(grace); serr != nil && err == nil {
		err = serr
	}
	return err
}
