package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abdullathedruid/devhub/internal/commitmsg"
)

const testDiff = `diff --git a/main.go b/main.go
--- a/main.go
+++ b/main.go
@@ -1 +1,2 @@
 package main
+// hello
`

type fakeRepo struct {
	diff      string
	diffErr   error
	commitErr error

	mu        sync.Mutex
	committed []string
}

func (r *fakeRepo) CurrentDiff() (string, error) { return r.diff, r.diffErr }

func (r *fakeRepo) CommitAll(message string) error {
	if r.commitErr != nil {
		return r.commitErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, message)
	return nil
}

// fakeGenerator answers each call with the next queued result, or with
// "from <command>" once the queue is empty. A call blocks until release is
// closed when release is set.
type fakeGenerator struct {
	mu      sync.Mutex
	results [][]commitmsg.Candidate
	err     error
	calls   []string
	release chan struct{}
}

func (g *fakeGenerator) Generate(ctx context.Context, diff, command string, n int) ([]commitmsg.Candidate, error) {
	g.mu.Lock()
	g.calls = append(g.calls, command)
	out := candidates("from " + command)
	if len(g.results) > 0 {
		out = g.results[0]
		g.results = g.results[1:]
	}
	release := g.release
	g.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return out, g.err
}

func candidates(texts ...string) []commitmsg.Candidate {
	out := make([]commitmsg.Candidate, len(texts))
	for i, t := range texts {
		out[i] = commitmsg.Candidate{Text: t, Convention: commitmsg.Feat}
	}
	return out
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("generation did not finish")
	}
}

func signal() (chan struct{}, func()) {
	ch := make(chan struct{}, 4)
	return ch, func() { ch <- struct{}{} }
}

func TestCommitFlowNoChanges(t *testing.T) {
	f := NewCommitFlow(&fakeRepo{}, &fakeGenerator{}, 3, zap.NewNop())

	err := f.Open("claude", nil)
	assert.ErrorIs(t, err, ErrNoChanges)
	assert.False(t, f.IsOpen())
}

func TestCommitFlowDiffError(t *testing.T) {
	boom := errors.New("git diff: exit status 128")
	f := NewCommitFlow(&fakeRepo{diffErr: boom}, &fakeGenerator{}, 3, zap.NewNop())

	assert.ErrorIs(t, f.Open("claude", nil), boom)
	assert.False(t, f.IsOpen())
}

func TestCommitFlowOpenAndAccept(t *testing.T) {
	repo := &fakeRepo{diff: testDiff}
	gen := &fakeGenerator{results: [][]commitmsg.Candidate{
		candidates("feat: add greeting", "docs: comment main"),
	}}
	f := NewCommitFlow(repo, gen, 2, zap.NewNop())

	done, notify := signal()
	require.NoError(t, f.Open("claude", notify))
	assert.True(t, f.IsOpen())
	waitDone(t, done)

	d := f.Dialog()
	assert.False(t, d.Busy)
	assert.Equal(t, "Claude", d.Tool)
	assert.Equal(t, []string{"main.go +1 -0"}, d.Stat)
	require.Len(t, d.Candidates, 2)

	assert.True(t, f.Select(1))
	assert.False(t, f.Select(5))

	msg, err := f.Accept()
	require.NoError(t, err)
	assert.Equal(t, "docs: comment main", msg)
	assert.Equal(t, []string{"docs: comment main"}, repo.committed)
	assert.False(t, f.IsOpen())
}

func TestCommitFlowMoveStaysInRange(t *testing.T) {
	gen := &fakeGenerator{results: [][]commitmsg.Candidate{candidates("a", "b")}}
	f := NewCommitFlow(&fakeRepo{diff: testDiff}, gen, 2, zap.NewNop())

	done, notify := signal()
	require.NoError(t, f.Open("claude", notify))
	waitDone(t, done)

	f.Move(-1)
	assert.Equal(t, 0, f.Dialog().Selected)
	f.Move(5)
	assert.Equal(t, 1, f.Dialog().Selected)
}

func TestCommitFlowAcceptWhileBusy(t *testing.T) {
	gen := &fakeGenerator{release: make(chan struct{})}
	repo := &fakeRepo{diff: testDiff}
	f := NewCommitFlow(repo, gen, 3, zap.NewNop())
	defer f.Close()

	require.NoError(t, f.Open("claude", nil))
	assert.True(t, f.Dialog().Busy)

	_, err := f.Accept()
	assert.Error(t, err)
	assert.Empty(t, repo.committed)
	assert.True(t, f.IsOpen())
}

func TestCommitFlowCommitFailureKeepsDialog(t *testing.T) {
	gen := &fakeGenerator{results: [][]commitmsg.Candidate{candidates("fix: typo")}}
	repo := &fakeRepo{diff: testDiff, commitErr: errors.New("git commit: hook failed")}
	f := NewCommitFlow(repo, gen, 1, zap.NewNop())

	done, notify := signal()
	require.NoError(t, f.Open("claude", notify))
	waitDone(t, done)

	_, err := f.Accept()
	assert.EqualError(t, err, "git commit: hook failed")
	assert.True(t, f.IsOpen())
	assert.Len(t, f.Dialog().Candidates, 1)
}

func TestCommitFlowGenerationError(t *testing.T) {
	gen := &fakeGenerator{err: commitmsg.ErrGeneration}
	f := NewCommitFlow(&fakeRepo{diff: testDiff}, gen, 3, zap.NewNop())

	done, notify := signal()
	require.NoError(t, f.Open("gemini", notify))
	waitDone(t, done)

	d := f.Dialog()
	assert.False(t, d.Busy)
	assert.Equal(t, "Gemini", d.Tool)
	assert.ErrorIs(t, d.Err, commitmsg.ErrGeneration)
	_, ok := d.Choice()
	assert.False(t, ok)
}

func TestCommitFlowRetryWithOtherTool(t *testing.T) {
	gen := &fakeGenerator{results: [][]commitmsg.Candidate{
		candidates("from claude"),
		candidates("from opencode"),
	}}
	f := NewCommitFlow(&fakeRepo{diff: testDiff}, gen, 1, zap.NewNop())

	done, notify := signal()
	require.NoError(t, f.Open("claude", notify))
	waitDone(t, done)

	f.Generate("opencode", notify)
	waitDone(t, done)

	assert.Equal(t, "opencode", f.Tool())
	d := f.Dialog()
	require.Len(t, d.Candidates, 1)
	assert.Equal(t, "from opencode", d.Candidates[0].Text)
	assert.Equal(t, []string{"claude", "opencode"}, gen.calls)
}

func TestCommitFlowStaleResultDropped(t *testing.T) {
	release := make(chan struct{})
	gen := &fakeGenerator{release: release}
	f := NewCommitFlow(&fakeRepo{diff: testDiff}, gen, 1, zap.NewNop())

	done, notify := signal()
	require.NoError(t, f.Open("claude", notify))
	// The claude run is replaced before it answers and must not land.
	f.Generate("opencode", notify)
	close(release)
	waitDone(t, done)

	d := f.Dialog()
	require.Len(t, d.Candidates, 1)
	assert.Equal(t, "from opencode", d.Candidates[0].Text)
	assert.Equal(t, "opencode", f.Tool())
}

func TestCommitFlowCloseCancelsGeneration(t *testing.T) {
	gen := &fakeGenerator{release: make(chan struct{})}
	f := NewCommitFlow(&fakeRepo{diff: testDiff}, gen, 1, zap.NewNop())

	called := make(chan struct{}, 1)
	require.NoError(t, f.Open("claude", func() { called <- struct{}{} }))
	f.Close()

	assert.False(t, f.IsOpen())
	assert.Equal(t, 0, len(f.Dialog().Candidates))
	select {
	case <-called:
		t.Fatal("done ran after close")
	case <-time.After(100 * time.Millisecond):
	}
}
