// Package session runs interactive programs in embedded panels. A Session
// couples one pty process with the interpreter and screen it feeds; the
// Manager maps panel slots to sessions and routes input to the focused one.
package session

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abdullathedruid/devhub/internal/history"
	"github.com/abdullathedruid/devhub/internal/screen"
	"github.com/abdullathedruid/devhub/internal/terminal"
	"github.com/abdullathedruid/devhub/internal/vt"
)

const (
	defaultInputQueue = 64
	defaultGrace      = 3 * time.Second
	readChunk         = 32 * 1024
)

// EventKind says what an Event reports.
type EventKind int

const (
	// EventStatus reports a lifecycle change.
	EventStatus EventKind = iota
	// EventOutput reports that a new snapshot was published.
	EventOutput
)

// Event is delivered to the session's listener. Listeners run on session
// goroutines and must not block.
type Event struct {
	Session string
	Kind    EventKind
	Status  Status
}

// Options configures a Session.
type Options struct {
	ID    string
	Kind  Kind
	Title string
	Dir   string
	Env   []string
	Rows  int
	Cols  int
	// Scrollback bounds the number of evicted rows kept.
	Scrollback int
	// Grace is how long a terminated process may take before it is killed.
	Grace time.Duration
	// InputQueue bounds the number of queued writes.
	InputQueue int
	History    *history.Store
	OnEvent    func(Event)
	Log        *zap.Logger
}

// run is one spawned process of a session.
type run struct {
	id    string
	proc  *terminal.Process
	input chan []byte
	// applied is closed after the exit event reached the screen and status.
	applied chan struct{}
}

type pumpKind int

const (
	pumpData pumpKind = iota
	pumpResize
	pumpStart
	pumpExit
)

// pumpEvent is the unit of work of the session's serialization point.
type pumpEvent struct {
	kind       pumpKind
	run        *run
	data       []byte
	rows, cols int
	exit       terminal.ExitEvent
	result     chan error
}

// Session is one embedded terminal panel.
type Session struct {
	opts   Options
	sup    *terminal.Supervisor
	log    *zap.Logger
	buf    *screen.Buffer
	interp *vt.Interpreter

	pump      chan pumpEvent
	quit      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error

	mu      sync.Mutex
	status  Status
	current *run
	command []string
	rows    int
	cols    int
	closed  bool

	inputLine []rune
}

// New creates a session without starting a process.
func New(sup *terminal.Supervisor, opts Options) *Session {
	if opts.Rows < 1 {
		opts.Rows = 24
	}
	if opts.Cols < 1 {
		opts.Cols = 80
	}
	if opts.Grace <= 0 {
		opts.Grace = defaultGrace
	}
	if opts.InputQueue <= 0 {
		opts.InputQueue = defaultInputQueue
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Title == "" {
		opts.Title = opts.Kind.String()
	}

	buf := screen.New(opts.Rows, opts.Cols, opts.Scrollback)
	s := &Session{
		opts:   opts,
		sup:    sup,
		log:    opts.Log.With(zap.String("session", opts.ID)),
		buf:    buf,
		interp: vt.New(buf),
		pump:   make(chan pumpEvent, 16),
		quit:   make(chan struct{}),
		rows:   opts.Rows,
		cols:   opts.Cols,
	}
	s.interp.SetReplyWriter(replyWriter{s})

	s.wg.Add(1)
	go s.loop()
	return s
}

// ID returns the session's panel slot identifier.
func (s *Session) ID() string { return s.opts.ID }

// Kind returns the session kind.
func (s *Session) Kind() Kind { return s.opts.Kind }

// Title returns the panel title.
func (s *Session) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts.Title
}

// SetTitle changes the panel title.
func (s *Session) SetTitle(title string) {
	s.mu.Lock()
	s.opts.Title = title
	s.mu.Unlock()
}

// Dir returns the working directory of the session's processes.
func (s *Session) Dir() string { return s.opts.Dir }

// Status returns the current lifecycle status.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Snapshot returns the latest published screen. It never blocks output
// processing.
func (s *Session) Snapshot() *screen.Snapshot {
	return s.buf.Snapshot()
}

// Scrollback returns the session's scrollback rows.
func (s *Session) Scrollback() *screen.Scrollback {
	return s.buf.Scrollback()
}

// AppCursorKeys reports whether arrow keys should use application mode.
func (s *Session) AppCursorKeys() bool {
	return s.interp.AppCursorKeys()
}

// Start spawns command in the session. It fails with ErrRunning while a
// previous process is still alive. A spawn failure leaves the session in
// StateFailed.
func (s *Session) Start(command []string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if !s.status.State.Terminal() {
		s.mu.Unlock()
		return ErrRunning
	}
	s.command = append([]string(nil), command...)
	rows, cols := s.rows, s.cols
	s.current = nil
	// claim the session before unlocking so a concurrent Start sees it busy
	starting := Status{State: StateStarting, Command: command}
	s.status = starting
	s.mu.Unlock()
	s.emitStatus(starting)

	proc, err := s.sup.Spawn(terminal.Spec{
		Command: command,
		Dir:     s.opts.Dir,
		Env:     s.opts.Env,
		Rows:    rows,
		Cols:    cols,
	})
	if err != nil {
		s.log.Warn("spawn failed", zap.Strings("command", command), zap.Error(err))
		s.record(history.Record{Type: history.TypeError, Command: strings.Join(command, " "), Text: err.Error()})
		s.setStatus(Status{State: StateFailed, Command: command, Err: err})
		return err
	}

	r := &run{
		id:      history.NewRunID(),
		proc:    proc,
		input:   make(chan []byte, s.opts.InputQueue),
		applied: make(chan struct{}),
	}
	s.mu.Lock()
	s.current = r
	s.inputLine = s.inputLine[:0]
	s.mu.Unlock()

	s.record(history.Record{Type: history.TypeStart, RunID: r.id, Command: strings.Join(command, " ")})
	s.setStatus(Status{State: StateRunning, PID: proc.PID(), RunID: r.id, Command: command})

	// the pump must see the new run before any of its output
	s.send(pumpEvent{kind: pumpStart, run: r})
	go s.read(r)
	go s.write(r)
	return nil
}

// Restart terminates the current process, if any, and starts command. An
// empty command reuses the previous one.
func (s *Session) Restart(command []string) error {
	if len(command) == 0 {
		s.mu.Lock()
		command = s.command
		s.mu.Unlock()
	}
	if err := s.Terminate(context.Background()); err != nil {
		return err
	}
	return s.Start(command)
}

// Write queues raw input for the child. Writes are delivered in order, one
// at a time. Writing to a session without a live process returns a
// *terminal.ClosedSessionError.
func (s *Session) Write(b []byte) (int, error) {
	s.mu.Lock()
	r := s.current
	lines := s.trackInput(b)
	s.mu.Unlock()

	for _, line := range lines {
		rec := history.Record{Type: history.TypeInput, Text: line}
		if r != nil {
			rec.RunID = r.id
		}
		s.record(rec)
	}
	if r == nil {
		return 0, &terminal.ClosedSessionError{Op: "write"}
	}
	select {
	case <-r.proc.Done():
		return 0, &terminal.ClosedSessionError{Op: "write", PID: r.proc.PID()}
	default:
	}
	data := append([]byte(nil), b...)
	select {
	case r.input <- data:
		return len(b), nil
	case <-r.proc.Done():
		return 0, &terminal.ClosedSessionError{Op: "write", PID: r.proc.PID()}
	case <-s.quit:
		return 0, ErrClosed
	}
}

// Paste sends text as pasted input, bracketed when the program asked for it.
func (s *Session) Paste(text string) error {
	text = strings.ReplaceAll(strings.ReplaceAll(text, "\r\n", "\r"), "\n", "\r")
	if s.interp.BracketedPaste() {
		text = "\x1b[200~" + text + "\x1b[201~"
	}
	_, err := s.Write([]byte(text))
	return err
}

// Resize changes the screen and pty size. It is applied between two output
// chunks, never in the middle of one.
func (s *Session) Resize(rows, cols int) error {
	if rows < 1 || cols < 1 {
		return nil
	}
	s.mu.Lock()
	if rows == s.rows && cols == s.cols {
		s.mu.Unlock()
		return nil
	}
	s.rows, s.cols = rows, cols
	s.mu.Unlock()

	result := make(chan error, 1)
	if !s.send(pumpEvent{kind: pumpResize, rows: rows, cols: cols, result: result}) {
		return ErrClosed
	}
	select {
	case err := <-result:
		return err
	case <-s.quit:
		return ErrClosed
	}
}

// Terminate stops the current process and waits until its exit was applied
// or ctx is done. A process that survives a forced kill leaves the session
// in StateUnresponsive and the error wraps terminal.ErrUnresponsive.
func (s *Session) Terminate(ctx context.Context) error {
	s.mu.Lock()
	r := s.current
	s.mu.Unlock()
	if r == nil {
		return nil
	}

	if err := r.proc.Terminate(s.opts.Grace); err != nil {
		if errors.Is(err, terminal.ErrUnresponsive) {
			st := s.Status()
			st.State = StateUnresponsive
			s.setStatus(st)
		}
		return err
	}

	select {
	case <-r.applied:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.quit:
		return nil
	}
}

// Close terminates the process and stops the session. The session cannot
// be started again.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.closeErr = s.Terminate(ctx)

		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.quit)
		s.wg.Wait()
	})
	return s.closeErr
}

func (s *Session) send(ev pumpEvent) bool {
	select {
	case s.pump <- ev:
		return true
	case <-s.quit:
		return false
	}
}

// loop is the session's single writer to the interpreter and screen.
func (s *Session) loop() {
	defer s.wg.Done()

	var active *run
	for {
		var ev pumpEvent
		select {
		case ev = <-s.pump:
		case <-s.quit:
			return
		}

		switch ev.kind {
		case pumpStart:
			if active != nil {
				_, _ = s.interp.Write([]byte("\x1bc"))
			}
			active = ev.run
		case pumpData:
			if ev.run != active {
				continue
			}
			_, _ = s.interp.Write(ev.data)
			s.emit(Event{Session: s.opts.ID, Kind: EventOutput})
		case pumpResize:
			s.buf.Resize(ev.rows, ev.cols)
			s.buf.Commit()
			var err error
			if active != nil {
				err = active.proc.Resize(ev.rows, ev.cols)
				var closed *terminal.ClosedSessionError
				if errors.As(err, &closed) {
					err = nil
				}
			}
			ev.result <- err
			s.emit(Event{Session: s.opts.ID, Kind: EventOutput})
		case pumpExit:
			s.applyExit(ev.run, ev.exit)
		}
	}
}

func (s *Session) applyExit(r *run, ev terminal.ExitEvent) {
	st := Status{PID: ev.PID, RunID: r.id}
	s.mu.Lock()
	st.Command = s.command
	s.mu.Unlock()

	rec := history.Record{Type: history.TypeExit, RunID: r.id}
	switch {
	case ev.Signaled():
		st.State = StateCrashed
		st.Signal = ev.Signal
		rec.Signal = ev.Signal.String()
	case ev.Err != nil:
		st.State = StateCrashed
		st.Err = ev.Err
		rec.Text = ev.Err.Error()
	default:
		st.State = StateExited
		st.Code = ev.Code
		code := ev.Code
		rec.Code = &code
	}

	s.record(rec)
	s.setStatus(st)
	close(r.applied)
}

// read moves output of r to the pump until EOF, then forwards the exit
// event, so the final status is applied after the final output.
func (s *Session) read(r *run) {
	buf := make([]byte, readChunk)
	for {
		n, err := r.proc.Read(buf)
		if n > 0 {
			data := append([]byte(nil), buf[:n]...)
			if !s.send(pumpEvent{kind: pumpData, run: r, data: data}) {
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.log.Debug("pty read", zap.Error(err))
			}
			break
		}
	}

	select {
	case ev := <-r.proc.Exit():
		s.send(pumpEvent{kind: pumpExit, run: r, exit: ev})
	case <-s.quit:
	}
}

// write delivers queued input to r one write at a time.
func (s *Session) write(r *run) {
	for {
		select {
		case b := <-r.input:
			if _, err := r.proc.Write(b); err != nil {
				s.log.Debug("pty write", zap.Error(err))
				var closed *terminal.ClosedSessionError
				if errors.As(err, &closed) {
					return
				}
			}
		case <-r.proc.Done():
			return
		case <-s.quit:
			return
		}
	}
}

func (s *Session) setStatus(st Status) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
	s.emitStatus(st)
}

func (s *Session) emitStatus(st Status) {
	s.log.Debug("status", zap.Stringer("state", st.State), zap.Int("pid", st.PID))
	s.emit(Event{Session: s.opts.ID, Kind: EventStatus, Status: st})
}

func (s *Session) emit(ev Event) {
	if s.opts.OnEvent != nil {
		s.opts.OnEvent(ev)
	}
}

func (s *Session) record(rec history.Record) {
	if s.opts.History == nil {
		return
	}
	rec.Session = s.opts.ID
	if err := s.opts.History.Append(s.opts.Kind.String(), rec); err != nil {
		s.log.Warn("history append failed", zap.Error(err))
	}
}

// trackInput collects typed characters and returns the lines completed by
// a carriage return. Escape sequences are skipped. Called with s.mu held.
func (s *Session) trackInput(b []byte) []string {
	if s.opts.History == nil || len(b) == 0 || b[0] == 0x1b {
		return nil
	}
	var lines []string
	for _, r := range string(b) {
		switch {
		case r == '\r' || r == '\n':
			if line := strings.TrimSpace(string(s.inputLine)); line != "" {
				lines = append(lines, line)
			}
			s.inputLine = s.inputLine[:0]
		case r == 0x7f || r == 0x08:
			if n := len(s.inputLine); n > 0 {
				s.inputLine = s.inputLine[:n-1]
			}
		case r == 0x03 || r == 0x15:
			s.inputLine = s.inputLine[:0]
		case r >= 0x20:
			s.inputLine = append(s.inputLine, r)
		}
	}
	return lines
}

// replyWriter queues interpreter answers as child input without blocking
// the pump. Answers are dropped when the queue is full.
type replyWriter struct{ s *Session }

func (w replyWriter) Write(b []byte) (int, error) {
	w.s.mu.Lock()
	r := w.s.current
	w.s.mu.Unlock()
	if r == nil {
		return len(b), nil
	}
	select {
	case r.input <- append([]byte(nil), b...):
	default:
		w.s.log.Debug("dropped terminal reply", zap.String("reply", strconv.Quote(string(b))))
	}
	return len(b), nil
}
