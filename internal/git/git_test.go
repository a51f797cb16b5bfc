package git

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newRepo creates an empty repository on branch main with an isolated git
// configuration.
func newRepo(t *testing.T) *Repo {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")
	t.Setenv("GIT_AUTHOR_NAME", "Test")
	t.Setenv("GIT_AUTHOR_EMAIL", "test@example.com")
	t.Setenv("GIT_COMMITTER_NAME", "Test")
	t.Setenv("GIT_COMMITTER_EMAIL", "test@example.com")

	dir := t.TempDir()
	gitCmd(t, dir, "init", "-q")
	gitCmd(t, dir, "symbolic-ref", "HEAD", "refs/heads/main")

	repo, err := Open(dir)
	require.NoError(t, err)
	return repo
}

func gitCmd(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := exec.Command("git", append([]string{"-C", dir}, args...)...).CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
	return string(out)
}

func writeFile(t *testing.T, repo *Repo, name, content string) {
	t.Helper()
	path := filepath.Join(repo.Root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestOpenOutsideRepository(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	t.Setenv("GIT_CEILING_DIRECTORIES", os.TempDir())
	_, err := Open(t.TempDir())
	assert.True(t, errors.Is(err, ErrNotRepository), "err = %v", err)
}

func TestOpenFromSubdirectory(t *testing.T) {
	repo := newRepo(t)
	writeFile(t, repo, "sub/dir/file.txt", "x\n")

	got, err := Open(filepath.Join(repo.Root, "sub", "dir"))
	require.NoError(t, err)
	want, err := filepath.EvalSymlinks(repo.Root)
	require.NoError(t, err)
	gotRoot, err := filepath.EvalSymlinks(got.Root)
	require.NoError(t, err)
	assert.Equal(t, want, gotRoot)
}

func TestStatusUnbornBranch(t *testing.T) {
	repo := newRepo(t)
	assert.False(t, repo.HasCommits())

	st, err := repo.Status()
	require.NoError(t, err)
	assert.Equal(t, "main", st.Branch)
	assert.False(t, st.Detached)
	assert.True(t, st.Clean())
}

func TestStatusLists(t *testing.T) {
	repo := newRepo(t)
	writeFile(t, repo, "tracked.txt", "one\n")
	writeFile(t, repo, "staged.txt", "one\n")
	require.NoError(t, repo.CommitAll("chore: initial"))

	writeFile(t, repo, "tracked.txt", "two\n")
	writeFile(t, repo, "staged.txt", "two\n")
	gitCmd(t, repo.Root, "add", "staged.txt")
	writeFile(t, repo, "new.txt", "new\n")

	st, err := repo.Status()
	require.NoError(t, err)
	assert.Equal(t, []string{"staged.txt"}, st.Staged)
	assert.Equal(t, []string{"tracked.txt"}, st.Modified)
	assert.Equal(t, []string{"new.txt"}, st.Untracked)
	assert.False(t, st.Clean())
}

func TestParseStatus(t *testing.T) {
	out := "M  a.go\x00 M b.go\x00MM c.go\x00?? d.go\x00R  new.go\x00old.go\x00!! ignored\x00"
	st := parseStatus(out)
	assert.Equal(t, []string{"a.go", "c.go", "new.go"}, st.Staged)
	assert.Equal(t, []string{"b.go", "c.go"}, st.Modified)
	assert.Equal(t, []string{"d.go"}, st.Untracked)
}

func TestBranchDetached(t *testing.T) {
	repo := newRepo(t)
	writeFile(t, repo, "a.txt", "a\n")
	require.NoError(t, repo.CommitAll("feat: a"))
	writeFile(t, repo, "a.txt", "b\n")
	require.NoError(t, repo.CommitAll("feat: b"))

	gitCmd(t, repo.Root, "checkout", "-q", "HEAD~1")
	_, detached, err := repo.Branch()
	require.NoError(t, err)
	assert.True(t, detached)
}

func TestCurrentDiffUnbornIncludesUntracked(t *testing.T) {
	repo := newRepo(t)
	writeFile(t, repo, "hello.txt", "hello\nworld\n")

	diff, err := repo.CurrentDiff()
	require.NoError(t, err)
	assert.Contains(t, diff, "diff --git a/hello.txt b/hello.txt")
	assert.Contains(t, diff, "new file mode 100644")
	assert.Contains(t, diff, "+hello\n")
	assert.Contains(t, diff, "+world\n")
}

func TestCurrentDiffTrackedAndStaged(t *testing.T) {
	repo := newRepo(t)
	writeFile(t, repo, "a.txt", "one\n")
	require.NoError(t, repo.CommitAll("chore: initial"))

	writeFile(t, repo, "a.txt", "two\n")
	diff, err := repo.CurrentDiff()
	require.NoError(t, err)
	assert.Contains(t, diff, "-one")
	assert.Contains(t, diff, "+two")

	gitCmd(t, repo.Root, "add", "a.txt")
	staged, err := repo.CurrentDiff()
	require.NoError(t, err)
	assert.Equal(t, diff, staged)
}

func TestCurrentDiffSkipsBinary(t *testing.T) {
	repo := newRepo(t)
	writeFile(t, repo, "blob.bin", "a\x00b")
	writeFile(t, repo, "text.txt", "text\n")

	diff, err := repo.CurrentDiff()
	require.NoError(t, err)
	assert.NotContains(t, diff, "blob.bin")
	assert.Contains(t, diff, "text.txt")
}

func TestCurrentDiffCleanTree(t *testing.T) {
	repo := newRepo(t)
	writeFile(t, repo, "a.txt", "one\n")
	require.NoError(t, repo.CommitAll("chore: initial"))

	diff, err := repo.CurrentDiff()
	require.NoError(t, err)
	assert.Empty(t, diff)
}

func TestCommitAll(t *testing.T) {
	repo := newRepo(t)
	writeFile(t, repo, "a.txt", "one\n")
	writeFile(t, repo, "b.txt", "two\n")

	require.NoError(t, repo.CommitAll("feat: add files\n\nbody line"))

	c, err := repo.LastCommit()
	require.NoError(t, err)
	assert.Equal(t, "feat: add files", c.Subject)
	assert.NotEmpty(t, c.Hash)
	assert.WithinDuration(t, time.Now(), c.Time, time.Minute)

	st, err := repo.Status()
	require.NoError(t, err)
	assert.True(t, st.Clean())
}

func TestStateDirExcluded(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
	}{
		{"at root", ""},
		{"in subproject", "svc/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newRepo(t)
			writeFile(t, repo, tt.prefix+"main.go", "package main\n")
			writeFile(t, repo, tt.prefix+".devhub/history/shell.log", "export TOKEN=hunter2\n")
			writeFile(t, repo, tt.prefix+".devhub/settings.yaml", "last_ai: claude\n")

			diff, err := repo.CurrentDiff()
			require.NoError(t, err)
			assert.Contains(t, diff, tt.prefix+"main.go")
			assert.NotContains(t, diff, ".devhub")
			assert.NotContains(t, diff, "hunter2")

			st, err := repo.Status()
			require.NoError(t, err)
			assert.Equal(t, []string{tt.prefix + "main.go"}, st.Untracked)

			require.NoError(t, repo.CommitAll("feat: add main"))
			files := strings.Fields(gitCmd(t, repo.Root, "show", "--name-only", "--format=", "HEAD"))
			assert.Equal(t, []string{tt.prefix + "main.go"}, files)

			st, err = repo.Status()
			require.NoError(t, err)
			assert.True(t, st.Clean())
		})
	}
}

func TestCommitAllRejectsEmptyMessage(t *testing.T) {
	repo := newRepo(t)
	writeFile(t, repo, "a.txt", "one\n")
	assert.Error(t, repo.CommitAll("  \n"))
	assert.False(t, repo.HasCommits())
}

func TestCommitAllNothingToCommit(t *testing.T) {
	repo := newRepo(t)
	writeFile(t, repo, "a.txt", "one\n")
	require.NoError(t, repo.CommitAll("chore: initial"))

	err := repo.CommitAll("chore: again")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "git commit:"), "err = %v", err)
}

func TestPushToBareRemote(t *testing.T) {
	repo := newRepo(t)
	remote := t.TempDir()
	gitCmd(t, remote, "init", "-q", "--bare")
	gitCmd(t, repo.Root, "remote", "add", "origin", remote)

	writeFile(t, repo, "a.txt", "one\n")
	require.NoError(t, repo.CommitAll("chore: initial"))
	require.NoError(t, repo.Push())

	local := strings.TrimSpace(gitCmd(t, repo.Root, "rev-parse", "HEAD"))
	pushed := strings.TrimSpace(gitCmd(t, remote, "rev-parse", "main"))
	assert.Equal(t, local, pushed)

	writeFile(t, repo, "a.txt", "two\n")
	require.NoError(t, repo.CommitAll("fix: update"))
	require.NoError(t, repo.Push())
}

func TestDiffStat(t *testing.T) {
	diff := "diff --git a/a.go b/a.go\n--- a/a.go\n+++ b/a.go\n@@ -1 +1,2 @@\n-x\n+y\n+z\n" +
		"diff --git a/b.go b/b.go\nnew file mode 100644\n--- /dev/null\n+++ b/b.go\n@@ -0,0 +1 @@\n+b\n"
	assert.Equal(t, []string{"a.go +2 -1", "b.go +1 -0"}, DiffStat(diff))
	assert.Empty(t, DiffStat(""))
}

func TestWatcherNotifiesOnce(t *testing.T) {
	repo := newRepo(t)
	w, err := NewWatcher(repo.Root, 100*time.Millisecond, zap.NewNop())
	require.NoError(t, err)

	var calls atomic.Int32
	w.OnChange(func() { calls.Add(1) })
	w.Start()
	t.Cleanup(w.Stop)

	for i := 0; i < 5; i++ {
		writeFile(t, repo, "burst.txt", strings.Repeat("x", i+1))
	}

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 3*time.Second, 10*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	repo := newRepo(t)
	w, err := NewWatcher(repo.Root, 0, zap.NewNop())
	require.NoError(t, err)
	w.Start()
	w.Stop()
	w.Stop()
}
