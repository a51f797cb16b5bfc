package terminal

import (
	"errors"
	"fmt"
)

var (
	// ErrSpawn matches every SpawnError.
	ErrSpawn = errors.New("spawn failed")
	// ErrClosedSession matches every ClosedSessionError.
	ErrClosedSession = errors.New("session closed")
	// ErrUnresponsive is returned by Terminate when the process survived a
	// forced kill.
	ErrUnresponsive = errors.New("process unresponsive")
)

// SpawnError reports that a process could not be started: the executable
// could not be resolved, the working directory is unusable or no pty could
// be allocated.
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s: %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

func (e *SpawnError) Is(target error) bool { return target == ErrSpawn }

// ClosedSessionError reports an operation on a process that already exited.
type ClosedSessionError struct {
	Op  string
	PID int
}

func (e *ClosedSessionError) Error() string {
	return fmt.Sprintf("%s: process %d has exited", e.Op, e.PID)
}

func (e *ClosedSessionError) Is(target error) bool { return target == ErrClosedSession }
