package session

import (
	"errors"
	"os/exec"
)

var (
	// ErrNoSession is returned for an unknown session id.
	ErrNoSession = errors.New("no such session")
	// ErrRunning is returned when starting a session whose previous process
	// has not reached a terminal state.
	ErrRunning = errors.New("session is still running")
	// ErrNoFocus is returned when input arrives and no session is focused.
	ErrNoFocus = errors.New("no focused session")
	// ErrClosed is returned by a destroyed session or a shut down manager.
	ErrClosed = errors.New("session closed")
)

func isNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound)
}
