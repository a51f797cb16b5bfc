//go:build !linux

package terminal

import "syscall"

// sysProcAttr starts the child as a session leader with the pty as its
// controlling terminal.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setsid:  true,
		Setctty: true,
	}
}
