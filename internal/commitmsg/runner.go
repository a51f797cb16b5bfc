package commitmsg

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Runner runs a one-shot command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, argv []string, stdin string) ([]byte, error)
}

// ExecRunner runs commands as local subprocesses in their own process
// group. When ctx is done the whole group is killed.
type ExecRunner struct {
	Dir string
	Log *zap.Logger
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, argv []string, stdin string) ([]byte, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("run: empty command")
	}
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.Dir
	cmd.Env = os.Environ()
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
	}
	cmd.WaitDelay = time.Second
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	log.Debug("one-shot command finished",
		zap.String("command", argv[0]),
		zap.Int("prompt_len", len(stdin)),
		zap.Int("stdout_len", stdout.Len()),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err))

	if ctxErr := ctx.Err(); ctxErr != nil {
		return stdout.Bytes(), ctxErr
	}
	if err != nil {
		return stdout.Bytes(), fmt.Errorf("%s: %w: %s", argv[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
