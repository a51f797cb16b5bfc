package session

import (
	"fmt"
	"syscall"
)

// Kind is the role of a session's panel.
type Kind int

const (
	KindShell Kind = iota
	KindAI
)

func (k Kind) String() string {
	if k == KindAI {
		return "ai"
	}
	return "shell"
}

// State is a session's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateStarting
	StateRunning
	StateExited
	StateCrashed
	StateUnresponsive
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	case StateCrashed:
		return "crashed"
	case StateUnresponsive:
		return "unresponsive"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether no process is running in this state. A new
// process may only be spawned from a terminal state.
func (s State) Terminal() bool {
	switch s {
	case StateIdle, StateExited, StateCrashed, StateFailed:
		return true
	}
	return false
}

// Status is a point-in-time view of a session's lifecycle.
type Status struct {
	State   State
	PID     int
	RunID   string
	Command []string
	// Code is the exit code in StateExited.
	Code int
	// Signal is the killing signal in StateCrashed.
	Signal syscall.Signal
	// Err is the spawn failure in StateFailed.
	Err error
}

// Message is the text a panel shows for the status.
func (s Status) Message() string {
	switch s.State {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateExited:
		return fmt.Sprintf("process finished with code %d", s.Code)
	case StateCrashed:
		if s.Signal == 0 {
			return "process crashed"
		}
		return fmt.Sprintf("killed by signal %d (%s)", int(s.Signal), s.Signal)
	case StateUnresponsive:
		return "unresponsive"
	case StateFailed:
		if isNotFound(s.Err) && len(s.Command) > 0 {
			return "command not found: " + s.Command[0]
		}
		return fmt.Sprintf("failed to start: %v", s.Err)
	default:
		return ""
	}
}
