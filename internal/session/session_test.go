package session

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abdullathedruid/devhub/internal/history"
	"github.com/abdullathedruid/devhub/internal/terminal"
)

const waitFor = 5 * time.Second

func newSupervisor(t *testing.T) *terminal.Supervisor {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	sup := terminal.NewSupervisor(zap.NewNop(), terminal.WithKillTimeout(time.Second), terminal.WithDrainTimeout(100*time.Millisecond))
	t.Cleanup(func() { _ = sup.Shutdown(100 * time.Millisecond) })
	return sup
}

type recorder struct {
	mu     sync.Mutex
	states []State
}

func (r *recorder) onEvent(ev Event) {
	if ev.Kind != EventStatus {
		return
	}
	r.mu.Lock()
	r.states = append(r.states, ev.Status.State)
	r.mu.Unlock()
}

func (r *recorder) get() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

func newSession(t *testing.T, sup *terminal.Supervisor, opts Options) *Session {
	t.Helper()
	if opts.ID == "" {
		opts.ID = "shell"
	}
	if opts.Grace == 0 {
		opts.Grace = 500 * time.Millisecond
	}
	s := New(sup, opts)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func screenText(s *Session) string {
	return strings.Join(s.Snapshot().Text(), "\n")
}

func waitState(t *testing.T, s *Session, want State) Status {
	t.Helper()
	require.Eventually(t, func() bool { return s.Status().State == want }, waitFor, 10*time.Millisecond,
		"state %v never reached, last %v", want, s.Status().State)
	return s.Status()
}

func TestSessionHelloScenario(t *testing.T) {
	sup := newSupervisor(t)
	rec := &recorder{}
	s := newSession(t, sup, Options{Rows: 24, Cols: 80, OnEvent: rec.onEvent})

	require.NoError(t, s.Start([]string{"sh", "-c", "printf 'Hello\\n'"}))
	st := waitState(t, s, StateExited)
	assert.Equal(t, 0, st.Code)
	assert.Equal(t, "process finished with code 0", st.Message())

	snap := s.Snapshot()
	assert.Equal(t, "Hello", snap.Text()[0])
	assert.Equal(t, 1, snap.Cursor.Row)
	assert.Equal(t, 0, snap.Cursor.Col)

	assert.Equal(t, []State{StateStarting, StateRunning, StateExited}, rec.get())
}

func TestSessionCrash(t *testing.T) {
	sup := newSupervisor(t)
	s := newSession(t, sup, Options{})

	require.NoError(t, s.Start([]string{"sh", "-c", "kill -9 $$"}))
	st := waitState(t, s, StateCrashed)
	assert.Equal(t, syscall.SIGKILL, st.Signal)
	assert.Contains(t, st.Message(), "killed by signal 9")
}

func TestSessionSpawnFailure(t *testing.T) {
	sup := newSupervisor(t)
	s := newSession(t, sup, Options{})

	err := s.Start([]string{"definitely-not-a-real-binary-xyz"})
	require.Error(t, err)
	assert.ErrorIs(t, err, terminal.ErrSpawn)

	st := s.Status()
	assert.Equal(t, StateFailed, st.State)
	assert.Equal(t, "command not found: definitely-not-a-real-binary-xyz", st.Message())
}

func TestSessionSingleProcess(t *testing.T) {
	sup := newSupervisor(t)
	s := newSession(t, sup, Options{})

	require.NoError(t, s.Start([]string{"sleep", "30"}))
	assert.ErrorIs(t, s.Start([]string{"sleep", "30"}), ErrRunning)

	require.NoError(t, s.Terminate(context.Background()))
	assert.Equal(t, StateCrashed, s.Status().State)

	require.NoError(t, s.Start([]string{"sh", "-c", "echo again"}))
	waitState(t, s, StateExited)
	assert.Contains(t, screenText(s), "again")
}

func TestSessionConcurrentStart(t *testing.T) {
	sup := newSupervisor(t)
	rec := &recorder{}
	s := newSession(t, sup, Options{OnEvent: rec.onEvent})

	const starters = 8
	var (
		wg      sync.WaitGroup
		started = make(chan struct{})
		errs    = make(chan error, starters)
	)
	for i := 0; i < starters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-started
			errs <- s.Start([]string{"sleep", "30"})
		}()
	}
	close(started)
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrRunning)
	}
	assert.Equal(t, 1, ok)
	waitState(t, s, StateRunning)

	starting := 0
	for _, st := range rec.get() {
		if st == StateStarting {
			starting++
		}
	}
	assert.Equal(t, 1, starting)
	assert.Equal(t, 1, sup.Live())
}

func TestSessionWriteOrdered(t *testing.T) {
	sup := newSupervisor(t)
	s := newSession(t, sup, Options{})

	require.NoError(t, s.Start([]string{"sh", "-c", `read a; read b; read c; echo "got:$a-$b-$c"`}))
	for _, in := range []string{"one\r", "two\r", "three\r"} {
		_, err := s.Write([]byte(in))
		require.NoError(t, err)
	}

	waitState(t, s, StateExited)
	assert.Contains(t, screenText(s), "got:one-two-three")
}

func TestSessionWriteAfterExit(t *testing.T) {
	sup := newSupervisor(t)
	s := newSession(t, sup, Options{})

	_, err := s.Write([]byte("x"))
	assert.ErrorIs(t, err, terminal.ErrClosedSession)

	require.NoError(t, s.Start([]string{"sh", "-c", "exit 0"}))
	waitState(t, s, StateExited)

	_, err = s.Write([]byte("echo hi\r"))
	assert.ErrorIs(t, err, terminal.ErrClosedSession)
}

func TestSessionResize(t *testing.T) {
	sup := newSupervisor(t)
	s := newSession(t, sup, Options{Rows: 24, Cols: 80})

	require.NoError(t, s.Start([]string{"sh", "-c", "sleep 0.3; stty size"}))
	require.NoError(t, s.Resize(30, 100))

	snap := s.Snapshot()
	assert.Equal(t, 30, snap.Rows)
	assert.Equal(t, 100, snap.Cols)

	waitState(t, s, StateExited)
	assert.Contains(t, screenText(s), "30 100")

	// resizing after exit only changes the screen
	require.NoError(t, s.Resize(10, 40))
	assert.Equal(t, 10, s.Snapshot().Rows)
}

func TestSessionPasteBracketed(t *testing.T) {
	sup := newSupervisor(t)
	s := newSession(t, sup, Options{})

	script := `printf '\033[?2004h'; stty -echo; read line; printf '%s' "$line" | od -An -c`
	require.NoError(t, s.Start([]string{"sh", "-c", script}))
	require.Eventually(t, s.interp.BracketedPaste, waitFor, 10*time.Millisecond)

	require.NoError(t, s.Paste("hi\n"))
	waitState(t, s, StateExited)
	text := screenText(s)
	assert.Contains(t, text, "033   [   2   0   0   ~   h   i")
}

func TestSessionHistory(t *testing.T) {
	sup := newSupervisor(t)
	store, err := history.Open(t.TempDir(), 0)
	require.NoError(t, err)
	s := newSession(t, sup, Options{History: store})

	require.NoError(t, s.Start([]string{"sh", "-c", "read x; exit 2"}))
	_, err = s.Write([]byte("helo"))
	require.NoError(t, err)
	_, err = s.Write([]byte{0x7f})
	require.NoError(t, err)
	_, err = s.Write([]byte("lo\r"))
	require.NoError(t, err)
	waitState(t, s, StateExited)

	recs, err := store.Recent("shell", 10)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, history.TypeStart, recs[0].Type)
	assert.Equal(t, "hello", recs[1].Text)
	assert.Equal(t, history.TypeExit, recs[2].Type)
	require.NotNil(t, recs[2].Code)
	assert.Equal(t, 2, *recs[2].Code)
	assert.Equal(t, recs[0].RunID, recs[2].RunID)
}

func TestSessionClose(t *testing.T) {
	sup := newSupervisor(t)
	s := New(sup, Options{ID: "shell", Grace: 500 * time.Millisecond})

	require.NoError(t, s.Start([]string{"sleep", "30"}))
	require.NoError(t, s.Close(context.Background()))
	require.NoError(t, s.Close(context.Background()))
	assert.Zero(t, sup.Live())

	assert.True(t, errors.Is(s.Start([]string{"sleep", "1"}), ErrClosed))
}
