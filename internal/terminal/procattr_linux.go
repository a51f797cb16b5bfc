package terminal

import "syscall"

// sysProcAttr starts the child as a session leader with the pty as its
// controlling terminal. Pdeathsig takes it down with the host if the host
// dies without running its cleanup.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setsid:    true,
		Setctty:   true,
		Pdeathsig: syscall.SIGKILL,
	}
}
