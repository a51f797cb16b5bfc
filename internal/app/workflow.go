package app

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/abdullathedruid/devhub/internal/ai"
	"github.com/abdullathedruid/devhub/internal/commitmsg"
	"github.com/abdullathedruid/devhub/internal/git"
	"github.com/abdullathedruid/devhub/internal/ui"
)

// ErrNoChanges is returned when there is nothing to commit.
var ErrNoChanges = errors.New("no changes to commit")

// Repository is the git collaborator of the commit workflow.
type Repository interface {
	CurrentDiff() (string, error)
	CommitAll(message string) error
}

// Generator produces commit message candidates for a diff.
type Generator interface {
	Generate(ctx context.Context, diff, command string, n int) ([]commitmsg.Candidate, error)
}

// CommitFlow is the state of the commit dialog: the diff being described,
// the tool asked for messages and the candidates it returned. Generation
// runs in the background; a result that arrives after the dialog moved on is
// dropped.
type CommitFlow struct {
	repo    Repository
	gen     Generator
	options int
	log     *zap.Logger

	mu     sync.Mutex
	open   bool
	tool   string
	diff   string
	dialog ui.CommitDialog
	cancel context.CancelFunc
	seq    int
}

// NewCommitFlow creates a closed dialog. options is the number of
// candidates asked for.
func NewCommitFlow(repo Repository, gen Generator, options int, log *zap.Logger) *CommitFlow {
	return &CommitFlow{repo: repo, gen: gen, options: options, log: log}
}

// Open reads the diff and starts generating with tool. done runs on the
// generating goroutine once candidates or an error are available.
func (f *CommitFlow) Open(tool string, done func()) error {
	diff, err := f.repo.CurrentDiff()
	if err != nil {
		return err
	}
	if diff == "" {
		return ErrNoChanges
	}

	f.mu.Lock()
	f.open = true
	f.diff = diff
	f.dialog = ui.CommitDialog{Stat: git.DiffStat(diff), Diff: diff}
	f.mu.Unlock()

	f.Generate(tool, done)
	return nil
}

// Generate asks tool for candidates again, replacing the current ones.
func (f *CommitFlow) Generate(tool string, done func()) {
	f.mu.Lock()
	if !f.open {
		f.mu.Unlock()
		return
	}
	if f.cancel != nil {
		f.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	f.seq++
	seq := f.seq
	f.tool = tool
	f.dialog.Tool = displayName(tool)
	f.dialog.Busy = true
	f.dialog.Err = nil
	f.dialog.Candidates = nil
	f.dialog.Selected = 0
	diff := f.diff
	f.mu.Unlock()

	go func() {
		defer cancel()
		cands, err := f.gen.Generate(ctx, diff, tool, f.options)

		f.mu.Lock()
		if seq != f.seq || !f.open {
			f.mu.Unlock()
			return
		}
		f.dialog.Busy = false
		f.dialog.Candidates = cands
		f.dialog.Err = err
		f.mu.Unlock()

		if err != nil {
			f.log.Warn("commit message generation failed", zap.String("tool", tool), zap.Error(err))
		}
		if done != nil {
			done()
		}
	}()
}

// Retry generates again with the current tool.
func (f *CommitFlow) Retry(done func()) {
	f.mu.Lock()
	tool := f.tool
	f.mu.Unlock()
	f.Generate(tool, done)
}

// Tool returns the command messages are generated with.
func (f *CommitFlow) Tool() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tool
}

// IsOpen reports whether the dialog is showing.
func (f *CommitFlow) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

// Dialog returns a copy of the dialog state for rendering.
func (f *CommitFlow) Dialog() ui.CommitDialog {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := f.dialog
	d.Candidates = append([]commitmsg.Candidate(nil), f.dialog.Candidates...)
	d.Stat = append([]string(nil), f.dialog.Stat...)
	return d
}

// Move changes the selected candidate.
func (f *CommitFlow) Move(delta int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dialog.Move(delta)
}

// Select picks candidate i (0-based) if it exists.
func (f *CommitFlow) Select(i int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i < 0 || i >= len(f.dialog.Candidates) {
		return false
	}
	f.dialog.Selected = i
	return true
}

// Accept commits every change with the selected candidate and closes the
// dialog. It returns the committed message.
func (f *CommitFlow) Accept() (string, error) {
	f.mu.Lock()
	c, ok := f.dialog.Choice()
	f.mu.Unlock()
	if !ok {
		return "", errors.New("no commit message selected")
	}
	if err := f.repo.CommitAll(c.Text); err != nil {
		return "", err
	}
	f.Close()
	return c.Text, nil
}

// Close discards the dialog and cancels a running generation.
func (f *CommitFlow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.open = false
	f.seq++
	f.diff = ""
	f.dialog = ui.CommitDialog{}
}

func displayName(command string) string {
	tool, err := ai.Resolve(command)
	if err != nil {
		return command
	}
	return tool.DisplayName()
}
