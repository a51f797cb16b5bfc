package app

import (
	"go.uber.org/zap"

	"github.com/abdullathedruid/devhub/internal/git"
	"github.com/abdullathedruid/devhub/internal/ui"
)

// startGit loads the git panel and watches the work tree for changes.
func (a *App) startGit() {
	a.refreshGit()
	if a.repo == nil {
		return
	}

	w, err := git.NewWatcher(a.repo.Root, git.DefaultDebounce, a.log)
	if err != nil {
		a.log.Warn("git watcher unavailable, relying on periodic refresh", zap.Error(err))
		return
	}
	w.OnChange(a.refreshGit)
	w.Start()
	a.watcher = w
}

// refreshGit reloads the branch, the changed files and the last commit.
func (a *App) refreshGit() {
	panel := loadGitPanel(a.repo)
	if panel.Err != nil {
		a.log.Debug("git status", zap.Error(panel.Err))
	}

	a.mu.Lock()
	a.gitPanel = panel
	a.mu.Unlock()
	a.redraw()
}

func loadGitPanel(repo *git.Repo) ui.GitPanel {
	if repo == nil {
		return ui.GitPanel{}
	}
	st, err := repo.Status()
	if err != nil {
		return ui.GitPanel{Err: err}
	}
	panel := ui.GitPanel{Status: st}
	if repo.HasCommits() {
		if last, err := repo.LastCommit(); err == nil {
			panel.Last = &last
		}
	}
	return panel
}
