package terminal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/creack/pty"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// ExitEvent describes how a process ended. Code is -1 when the process was
// killed by a signal.
type ExitEvent struct {
	PID    int
	Code   int
	Signal syscall.Signal
	Err    error
}

// Signaled reports whether the process was killed by a signal.
func (e ExitEvent) Signaled() bool {
	return e.Signal != 0
}

func (e ExitEvent) String() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("wait failed: %v", e.Err)
	case e.Signaled():
		return fmt.Sprintf("killed by signal %d (%s)", int(e.Signal), e.Signal)
	default:
		return fmt.Sprintf("exited with code %d", e.Code)
	}
}

// Process is one child running on a pseudo-terminal.
//
// Output is read with Read, normally by a single dedicated goroutine. Input
// written with Write is serialized. The exit event is delivered exactly once
// on Exit, after the output that was pending when the child died has been
// drained (or a short linger expired).
type Process struct {
	sup  *Supervisor
	cmd  *exec.Cmd
	ptmx *os.File
	pid  int
	log  *zap.Logger

	writeMu sync.Mutex

	sizeMu     sync.Mutex
	rows, cols int

	reaped   chan struct{}
	gone     atomic.Bool
	readDone chan struct{}
	readOnce sync.Once
	done     chan struct{}
	exitCh   chan ExitEvent
	exit     ExitEvent

	termOnce     sync.Once
	termErr      error
	unresponsive atomic.Bool
}

// PID returns the child's process id.
func (p *Process) PID() int { return p.pid }

// Size returns the current window size.
func (p *Process) Size() (rows, cols int) {
	p.sizeMu.Lock()
	defer p.sizeMu.Unlock()
	return p.rows, p.cols
}

// Exit delivers the exit event. It is sent once and the channel is never
// closed; use Done to wait from several goroutines.
func (p *Process) Exit() <-chan ExitEvent { return p.exitCh }

// Done is closed once the exit event is available.
func (p *Process) Done() <-chan struct{} { return p.done }

// ExitStatus returns the exit event once the process is done.
func (p *Process) ExitStatus() (ExitEvent, bool) {
	select {
	case <-p.done:
		return p.exit, true
	default:
		return ExitEvent{}, false
	}
}

// Unresponsive reports whether the process survived a forced kill.
func (p *Process) Unresponsive() bool { return p.unresponsive.Load() }

// Read reads child output. It returns io.EOF once the child has exited and
// its output is drained.
func (p *Process) Read(b []byte) (int, error) {
	n, err := p.ptmx.Read(b)
	if err != nil {
		p.readOnce.Do(func() { close(p.readDone) })
		// Linux reports EIO once the slave side is gone.
		if errors.Is(err, syscall.EIO) || errors.Is(err, os.ErrClosed) {
			err = io.EOF
		}
	}
	return n, err
}

// Write forwards raw bytes to the child's input.
func (p *Process) Write(b []byte) (int, error) {
	if p.gone.Load() {
		return 0, &ClosedSessionError{Op: "write", PID: p.pid}
	}
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	n, err := p.ptmx.Write(b)
	if err != nil && p.gone.Load() {
		return n, &ClosedSessionError{Op: "write", PID: p.pid}
	}
	return n, err
}

// Resize sets the pty window size; the kernel notifies the child with
// SIGWINCH. Setting the current size again does nothing.
func (p *Process) Resize(rows, cols int) error {
	if rows < 1 || cols < 1 {
		return fmt.Errorf("resize: invalid size %dx%d", rows, cols)
	}
	p.sizeMu.Lock()
	defer p.sizeMu.Unlock()

	if rows == p.rows && cols == p.cols {
		return nil
	}
	if p.gone.Load() {
		return &ClosedSessionError{Op: "resize", PID: p.pid}
	}
	if err := pty.Setsize(p.ptmx, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)}); err != nil {
		return fmt.Errorf("resize pty: %w", err)
	}
	p.rows, p.cols = rows, cols
	return nil
}

// Terminate asks the child's process group to exit with SIGHUP and SIGTERM
// and sends SIGKILL if it is still alive after grace. It returns once the
// process was reaped. If the process outlives SIGKILL by the supervisor's
// kill timeout, Terminate returns ErrUnresponsive and the process is marked
// unresponsive. Calling Terminate again returns the first call's result.
func (p *Process) Terminate(grace time.Duration) error {
	p.termOnce.Do(func() {
		p.termErr = p.terminate(grace)
	})
	return p.termErr
}

func (p *Process) terminate(grace time.Duration) error {
	select {
	case <-p.reaped:
		return nil
	default:
	}

	p.signal(unix.SIGHUP)
	p.signal(unix.SIGTERM)

	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-p.reaped:
		return nil
	case <-timer.C:
	}

	p.log.Warn("process ignored termination, killing", zap.Duration("grace", grace))
	p.signal(unix.SIGKILL)

	kill := time.NewTimer(p.sup.killTimeout)
	defer kill.Stop()
	select {
	case <-p.reaped:
		return nil
	case <-kill.C:
		p.unresponsive.Store(true)
		p.log.Error("process survived SIGKILL")
		return fmt.Errorf("terminate pid %d: %w", p.pid, ErrUnresponsive)
	}
}

// signal delivers sig to the child's process group, falling back to the
// child alone.
func (p *Process) signal(sig syscall.Signal) {
	if err := unix.Kill(-p.pid, sig); err == nil {
		return
	}
	if err := unix.Kill(p.pid, sig); err != nil && !errors.Is(err, unix.ESRCH) {
		p.log.Debug("signal failed", zap.Stringer("signal", sig), zap.Error(err))
	}
}

// wait reaps the child, lets the reader drain, releases the pty and then
// publishes the exit event.
func (p *Process) wait() {
	err := p.cmd.Wait()
	p.gone.Store(true)
	close(p.reaped)

	ev := exitEvent(p.pid, p.cmd.ProcessState, err)

	linger := time.NewTimer(p.sup.drainTimeout)
	select {
	case <-p.readDone:
	case <-linger.C:
	}
	linger.Stop()
	if err := p.ptmx.Close(); err != nil {
		p.log.Debug("close pty", zap.Error(err))
	}

	p.sup.forget(p)
	p.exit = ev
	close(p.done)
	p.exitCh <- ev
	p.log.Info("process exited", zap.Stringer("status", ev))
}

func exitEvent(pid int, state *os.ProcessState, waitErr error) ExitEvent {
	ev := ExitEvent{PID: pid, Code: -1}
	if state == nil {
		ev.Err = waitErr
		return ev
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		ev.Signal = ws.Signal()
		return ev
	}
	ev.Code = state.ExitCode()
	return ev
}
