// Package process inspects the OS process table through ps. It is used to
// show what is running inside a shell session and to check that exited
// session processes were reaped.
package process

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Info describes one process table entry.
type Info struct {
	PID     int
	PPID    int
	State   string // ps STAT column, e.g. "S", "R+", "Z"
	Command string // full command line with arguments
}

// Zombie reports whether the process has exited but was not reaped.
func (i Info) Zombie() bool {
	return strings.HasPrefix(i.State, "Z")
}

// Lookup returns the entry for pid. The boolean is false when no such
// process exists.
func Lookup(pid int) (Info, bool, error) {
	if pid <= 0 {
		return Info{}, false, fmt.Errorf("invalid pid %d", pid)
	}
	out, err := ps("-p", strconv.Itoa(pid), "-o", "pid=,ppid=,stat=,args=")
	if err != nil {
		var exitErr *exec.ExitError
		// ps exits 1 with no output when the pid is unknown
		if errors.As(err, &exitErr) && len(bytes.TrimSpace(out)) == 0 {
			return Info{}, false, nil
		}
		return Info{}, false, err
	}
	infos := parse(out)
	if len(infos) == 0 {
		return Info{}, false, nil
	}
	return infos[0], true, nil
}

// Children returns the direct children of pid.
func Children(pid int) ([]Info, error) {
	out, err := ps("-eo", "pid=,ppid=,stat=,args=")
	if err != nil {
		return nil, err
	}
	var children []Info
	for _, info := range parse(out) {
		if info.PPID == pid {
			children = append(children, info)
		}
	}
	return children, nil
}

// ForegroundApp returns the program a shell is currently running: the
// shell's first child, or the shell itself when it sits at its prompt.
// name is the executable's base name.
func ForegroundApp(shellPID int) (name string, cmdLine string, err error) {
	children, err := Children(shellPID)
	if err != nil {
		return "", "", err
	}
	if len(children) > 0 {
		return commandName(children[0].Command), children[0].Command, nil
	}

	info, ok, err := Lookup(shellPID)
	if err != nil {
		return "", "", err
	}
	if !ok {
		return "", "", fmt.Errorf("process %d not found", shellPID)
	}
	return commandName(info.Command), info.Command, nil
}

func ps(args ...string) ([]byte, error) {
	cmd := exec.Command("ps", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), fmt.Errorf("ps %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// parse reads "pid ppid stat args..." lines.
func parse(out []byte) []Info {
	var infos []Info
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		pid, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		ppid, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		infos = append(infos, Info{
			PID:     pid,
			PPID:    ppid,
			State:   fields[2],
			Command: strings.Join(fields[3:], " "),
		})
	}
	return infos
}

// commandName extracts the base name of the executable from a command line,
// so "/usr/local/bin/node script.js" becomes "node".
func commandName(cmdLine string) string {
	parts := strings.Fields(cmdLine)
	if len(parts) == 0 {
		return ""
	}
	cmd := parts[0]
	if idx := strings.LastIndex(cmd, "/"); idx >= 0 {
		cmd = cmd[idx+1:]
	}
	return strings.TrimPrefix(cmd, "-")
}
