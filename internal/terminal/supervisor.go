// Package terminal runs child processes on pseudo-terminals and guarantees
// each of them is reaped exactly once.
package terminal

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/creack/pty"
	"go.uber.org/zap"
)

const (
	defaultKillTimeout  = 2 * time.Second
	defaultDrainTimeout = 250 * time.Millisecond
)

// Spec describes a process to spawn.
type Spec struct {
	// Command is the executable followed by its arguments.
	Command []string
	Dir     string
	// Env is appended to the host environment.
	Env  []string
	Rows int
	Cols int
}

// Supervisor spawns and tracks pty processes.
type Supervisor struct {
	log          *zap.Logger
	killTimeout  time.Duration
	drainTimeout time.Duration

	mu     sync.Mutex
	procs  map[int]*Process
	closed bool
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithKillTimeout sets how long Terminate waits after SIGKILL before giving
// up on a process.
func WithKillTimeout(d time.Duration) Option {
	return func(s *Supervisor) { s.killTimeout = d }
}

// WithDrainTimeout sets how long output is drained after a child exited
// before its pty is closed.
func WithDrainTimeout(d time.Duration) Option {
	return func(s *Supervisor) { s.drainTimeout = d }
}

// NewSupervisor creates a supervisor.
func NewSupervisor(log *zap.Logger, opts ...Option) *Supervisor {
	s := &Supervisor{
		log:          log,
		killTimeout:  defaultKillTimeout,
		drainTimeout: defaultDrainTimeout,
		procs:        make(map[int]*Process),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Spawn starts spec.Command on a new pty of the given size.
func (s *Supervisor) Spawn(spec Spec) (*Process, error) {
	if len(spec.Command) == 0 {
		return nil, &SpawnError{Err: errors.New("empty command")}
	}
	name := spec.Command[0]

	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, &SpawnError{Command: name, Err: errors.New("supervisor is shut down")}
	}

	path, err := exec.LookPath(name)
	if err != nil {
		return nil, &SpawnError{Command: name, Err: err}
	}
	if spec.Dir != "" {
		info, err := os.Stat(spec.Dir)
		if err != nil {
			return nil, &SpawnError{Command: name, Err: err}
		}
		if !info.IsDir() {
			return nil, &SpawnError{Command: name, Err: fmt.Errorf("%s is not a directory", spec.Dir)}
		}
	}
	rows, cols := spec.Rows, spec.Cols
	if rows < 1 {
		rows = 24
	}
	if cols < 1 {
		cols = 80
	}

	cmd := exec.Command(path, spec.Command[1:]...)
	cmd.Args[0] = name
	cmd.Dir = spec.Dir
	cmd.Env = append(os.Environ(), "TERM=xterm-256color", "COLORTERM=truecolor")
	cmd.Env = append(cmd.Env, spec.Env...)

	ptmx, err := pty.StartWithAttrs(cmd, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)}, sysProcAttr())
	if err != nil {
		return nil, &SpawnError{Command: name, Err: err}
	}

	p := &Process{
		sup:      s,
		cmd:      cmd,
		ptmx:     ptmx,
		pid:      cmd.Process.Pid,
		rows:     rows,
		cols:     cols,
		reaped:   make(chan struct{}),
		readDone: make(chan struct{}),
		done:     make(chan struct{}),
		exitCh:   make(chan ExitEvent, 1),
	}
	p.log = s.log.With(zap.Int("pid", p.pid), zap.String("command", name))

	s.mu.Lock()
	s.procs[p.pid] = p
	s.mu.Unlock()

	go p.wait()

	p.log.Info("process started", zap.Strings("args", spec.Command[1:]), zap.String("dir", spec.Dir))
	return p, nil
}

// Live returns the number of processes that have not been reaped yet.
func (s *Supervisor) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.procs)
}

func (s *Supervisor) forget(p *Process) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.procs, p.pid)
}

// Shutdown refuses further spawns and terminates every live process
// concurrently, returning once all of them were reaped or declared
// unresponsive.
func (s *Supervisor) Shutdown(grace time.Duration) error {
	s.mu.Lock()
	s.closed = true
	procs := make([]*Process, 0, len(s.procs))
	for _, p := range s.procs {
		procs = append(procs, p)
	}
	s.mu.Unlock()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, p := range procs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.Terminate(grace); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}
